package service

import (
	"context"
	"errors"
	"fmt"
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/internal/repository"
	"fst_cloud_backend/internal/util"
	"fst_cloud_backend/pkg/logger"
	"io"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ObjectStore interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	Download(ctx context.Context, filename string) (io.ReadCloser, error)
	Delete(ctx context.Context, filename string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev DocumentEvent) error
}

type UploadInput struct {
	Name        string
	Course      string
	Level       string
	Description string
	Tags        []string
}

type DocumentService struct {
	Repo           *repository.DocumentRepository
	Storage        ObjectStore
	Events         EventPublisher
	MaxUploadBytes int64
}

func NewDocumentService(repo *repository.DocumentRepository, storage ObjectStore, events EventPublisher, maxUploadMB int) *DocumentService {
	return &DocumentService{
		Repo:           repo,
		Storage:        storage,
		Events:         events,
		MaxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// Upload stores a PDF and records it as pending approval.
func (s *DocumentService) Upload(ctx context.Context, userID string, file *multipart.FileHeader, in UploadInput) (*model.PdfFile, error) {
	if s.MaxUploadBytes > 0 && file.Size > s.MaxUploadBytes {
		return nil, util.ErrFileTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if _, err := util.ValidateMimeType(src, []string{util.MimePDF}); err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	key := uuid.New().String() + ".pdf"
	if _, err := s.Storage.Upload(ctx, key, src, file.Size, util.MimePDF); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = util.DisplayName(file.Filename)
	}
	pdf := &model.PdfFile{
		Name:        name,
		Path:        key,
		Course:      strings.TrimSpace(in.Course),
		Level:       strings.TrimSpace(in.Level),
		Status:      model.PdfPending,
		UserID:      userID,
		Description: strings.TrimSpace(in.Description),
		Tags:        in.Tags,
		Size:        file.Size,
	}
	if err := s.Repo.Create(ctx, pdf); err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			logger.Log.Error("Failed to remove orphaned upload", zap.String("path", key), zap.Error(delErr))
		}
		return nil, err
	}

	s.publish(ctx, DocumentEvent{Event: EventPdfUploaded, PdfID: pdf.ID, Name: pdf.Name, OwnerID: userID, Status: pdf.Status})
	logger.Log.Info("PDF uploaded", zap.String("pdfId", pdf.ID), zap.String("userId", userID), zap.Int64("size", file.Size))
	return pdf, nil
}

func (s *DocumentService) publish(ctx context.Context, ev DocumentEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logger.Log.Error("Failed to publish document event", zap.String("event", ev.Event), zap.String("pdfId", ev.PdfID), zap.Error(err))
	}
}

// ListApproved is the public catalog listing.
func (s *DocumentService) ListApproved(ctx context.Context, course, level, search string, page, limit int) ([]model.PdfFile, int, error) {
	_, limit, offset := util.Paginate(page, limit)
	f := repository.DocumentFilter{Status: model.PdfApproved, Course: course, Level: level, Search: search}
	return s.Repo.FindWithPagination(ctx, f, offset, limit)
}

// CatalogFacets are the filter values offered by the public listing.
type CatalogFacets struct {
	Courses []string `json:"courses"`
	Levels  []string `json:"levels"`
}

func (s *DocumentService) Facets(ctx context.Context) (*CatalogFacets, error) {
	courses, levels, err := s.Repo.Facets(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []string{}
	}
	if levels == nil {
		levels = []string{}
	}
	return &CatalogFacets{Courses: courses, Levels: levels}, nil
}

func (s *DocumentService) ListMine(ctx context.Context, userID string) ([]model.PdfFile, error) {
	return s.Repo.FindAll(ctx, repository.DocumentFilter{UserID: userID})
}

func (s *DocumentService) ListPending(ctx context.Context) ([]model.PdfFile, error) {
	return s.Repo.FindAll(ctx, repository.DocumentFilter{Status: model.PdfPending})
}

// Get returns a document visible to the caller: approved ones to everybody,
// others only to their owner and to admins.
func (s *DocumentService) Get(ctx context.Context, id, userID string, isAdmin bool) (*model.PdfFile, error) {
	pdf, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrDocumentNotFound
		}
		return nil, err
	}
	if pdf.Status != model.PdfApproved && pdf.UserID != userID && !isAdmin {
		return nil, util.ErrDocumentNotFound
	}
	return pdf, nil
}

// Open streams a document's bytes. The caller closes the reader.
func (s *DocumentService) Open(ctx context.Context, id, userID string, isAdmin bool) (*model.PdfFile, io.ReadCloser, error) {
	pdf, err := s.Get(ctx, id, userID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.Storage.Download(ctx, pdf.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", pdf.Path, err)
	}
	return pdf, rc, nil
}

// SetStatus moves a document between pending, approved and rejected and
// tells the owner.
func (s *DocumentService) SetStatus(ctx context.Context, id string, status model.PdfStatus) (*model.PdfFile, error) {
	if !status.Valid() {
		return nil, util.ErrInvalidStatus
	}
	if err := s.Repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrDocumentNotFound
		}
		return nil, err
	}
	pdf, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, DocumentEvent{Event: EventPdfStatusChanged, PdfID: pdf.ID, Name: pdf.Name, OwnerID: pdf.UserID, Status: status})
	logger.Log.Info("PDF status changed", zap.String("pdfId", id), zap.String("status", string(status)))
	return pdf, nil
}

// Delete removes the stored object first, then the row.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	pdf, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrDocumentNotFound
		}
		return err
	}
	if err := s.Storage.Delete(ctx, pdf.Path); err != nil {
		return fmt.Errorf("delete object %s: %w", pdf.Path, err)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrDocumentNotFound
		}
		return err
	}
	logger.Log.Info("PDF deleted", zap.String("pdfId", id), zap.String("path", pdf.Path))
	return nil
}

// ApprovedDocument resolves quiz sources; only approved documents qualify.
func (s *DocumentService) ApprovedDocument(ctx context.Context, id string) (*quiz.DocumentRef, error) {
	pdf, err := s.Repo.FindApprovedByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, quiz.ErrNotFound
		}
		return nil, err
	}
	return &quiz.DocumentRef{ID: pdf.ID, Name: pdf.Name, StoragePath: pdf.Path}, nil
}
