package repository

import (
	"context"
	"fst_cloud_backend/internal/model"

	"gorm.io/gorm"
)

// ExtractedTextRepository stores the text archive written after extraction.
type ExtractedTextRepository struct {
	DB *gorm.DB
}

func NewExtractedTextRepository(db *gorm.DB) *ExtractedTextRepository {
	return &ExtractedTextRepository{DB: db}
}

func (r *ExtractedTextRepository) Create(ctx context.Context, rec *model.ExtractedText) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *ExtractedTextRepository) CountByPdf(ctx context.Context, pdfID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ExtractedText{}).Where("pdf_id = ?", pdfID).Count(&count).Error
	return count, err
}
