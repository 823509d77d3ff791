package repository

import (
	"context"
	"fst_cloud_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	DB *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{DB: db}
}

// Add is idempotent.
func (r *FavoriteRepository) Add(ctx context.Context, userID, pdfID string) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.FavoritePdf{PdfID: pdfID, UserID: userID}).Error
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, pdfID string) error {
	return r.DB.WithContext(ctx).
		Where("pdf_id = ? AND user_id = ?", pdfID, userID).
		Delete(&model.FavoritePdf{}).Error
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, pdfID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.FavoritePdf{}).
		Where("pdf_id = ? AND user_id = ?", pdfID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListDocuments returns the user's favorited documents that are still
// approved, most recently favorited first.
func (r *FavoriteRepository) ListDocuments(ctx context.Context, userID string) ([]model.PdfFile, error) {
	var pdfs []model.PdfFile
	err := r.DB.WithContext(ctx).
		Table("pdf_files").
		Select("pdf_files.*").
		Joins("JOIN favorite_pdfs ON favorite_pdfs.pdf_id = pdf_files.id").
		Where("favorite_pdfs.user_id = ? AND pdf_files.status = ? AND pdf_files.deleted_at IS NULL", userID, model.PdfApproved).
		Order("favorite_pdfs.created_at DESC").
		Find(&pdfs).Error
	return pdfs, err
}
