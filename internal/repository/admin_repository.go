package repository

import (
	"context"
	"fst_cloud_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository struct {
	DB *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

func (r *AdminRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.AdminUser{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (r *AdminRepository) Grant(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.AdminUser{UserID: userID}).Error
}

func (r *AdminRepository) Revoke(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.AdminUser{}).Error
}
