package repository

import (
	"context"
	"fst_cloud_backend/internal/model"
	"strings"

	"gorm.io/gorm"
)

type DocumentRepository struct {
	DB *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

// DocumentFilter narrows catalog listings. Empty fields do not filter.
type DocumentFilter struct {
	Status model.PdfStatus
	Course string
	Level  string
	Search string
	UserID string
}

func (r *DocumentRepository) Create(ctx context.Context, pdf *model.PdfFile) error {
	return r.DB.WithContext(ctx).Create(pdf).Error
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*model.PdfFile, error) {
	var pdf model.PdfFile
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&pdf).Error; err != nil {
		return nil, err
	}
	return &pdf, nil
}

func (r *DocumentRepository) FindApprovedByID(ctx context.Context, id string) (*model.PdfFile, error) {
	var pdf model.PdfFile
	err := r.DB.WithContext(ctx).
		Where("id = ? AND status = ?", id, model.PdfApproved).
		First(&pdf).Error
	if err != nil {
		return nil, err
	}
	return &pdf, nil
}

func (r *DocumentRepository) applyFilter(query *gorm.DB, f DocumentFilter) *gorm.DB {
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Course != "" {
		query = query.Where("course = ?", f.Course)
	}
	if f.Level != "" {
		query = query.Where("level = ?", f.Level)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(tags) LIKE ? ESCAPE '!'", like, like, like)
	}
	return query
}

// '!' escapes LIKE wildcards; ESCAPE '!' reads the same on mysql, postgres
// and sqlite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Facets lists the distinct non-empty courses and levels among approved
// documents, sorted.
func (r *DocumentRepository) Facets(ctx context.Context) (courses, levels []string, err error) {
	distinct := func(column string) ([]string, error) {
		var values []string
		err := r.DB.WithContext(ctx).Model(&model.PdfFile{}).
			Where("status = ?", model.PdfApproved).
			Where(column + " <> ''").
			Distinct(column).
			Order(column).
			Pluck(column, &values).Error
		return values, err
	}
	if courses, err = distinct("course"); err != nil {
		return nil, nil, err
	}
	if levels, err = distinct("level"); err != nil {
		return nil, nil, err
	}
	return courses, levels, nil
}

// FindWithPagination lists documents matching f, newest first.
func (r *DocumentRepository) FindWithPagination(ctx context.Context, f DocumentFilter, offset, limit int) ([]model.PdfFile, int, error) {
	var pdfs []model.PdfFile
	var total int64

	query := r.applyFilter(r.DB.WithContext(ctx).Model(&model.PdfFile{}), f)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&pdfs).Error
	if err != nil {
		return nil, 0, err
	}

	return pdfs, int(total), nil
}

// FindAll lists every document matching f, newest first.
func (r *DocumentRepository) FindAll(ctx context.Context, f DocumentFilter) ([]model.PdfFile, error) {
	var pdfs []model.PdfFile
	err := r.applyFilter(r.DB.WithContext(ctx).Model(&model.PdfFile{}), f).
		Order("created_at DESC").
		Find(&pdfs).Error
	return pdfs, err
}

// UpdateStatus returns gorm.ErrRecordNotFound when id does not exist.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status model.PdfStatus) error {
	res := r.DB.WithContext(ctx).Model(&model.PdfFile{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the document row and the favorites pointing at it.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pdf_id = ?", id).Delete(&model.FavoritePdf{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id = ?", id).Delete(&model.PdfFile{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
