package service

import (
	"context"
	"errors"
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/internal/repository"
	"fst_cloud_backend/internal/util"

	"gorm.io/gorm"
)

type FavoriteService struct {
	Favorites *repository.FavoriteRepository
	Documents *repository.DocumentRepository
}

func NewFavoriteService(favorites *repository.FavoriteRepository, documents *repository.DocumentRepository) *FavoriteService {
	return &FavoriteService{Favorites: favorites, Documents: documents}
}

// only approved documents can be bookmarked
func (s *FavoriteService) ensureApproved(ctx context.Context, pdfID string) error {
	if _, err := s.Documents.FindApprovedByID(ctx, pdfID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrDocumentNotFound
		}
		return err
	}
	return nil
}

func (s *FavoriteService) Add(ctx context.Context, userID, pdfID string) error {
	if err := s.ensureApproved(ctx, pdfID); err != nil {
		return err
	}
	return s.Favorites.Add(ctx, userID, pdfID)
}

// Remove is idempotent.
func (s *FavoriteService) Remove(ctx context.Context, userID, pdfID string) error {
	return s.Favorites.Remove(ctx, userID, pdfID)
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, pdfID string) (bool, error) {
	return s.Favorites.Exists(ctx, userID, pdfID)
}

// Toggle flips the bookmark and returns the new state.
func (s *FavoriteService) Toggle(ctx context.Context, userID, pdfID string) (bool, error) {
	exists, err := s.Favorites.Exists(ctx, userID, pdfID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.Favorites.Remove(ctx, userID, pdfID)
	}
	if err := s.Add(ctx, userID, pdfID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.PdfFile, error) {
	return s.Favorites.ListDocuments(ctx, userID)
}
