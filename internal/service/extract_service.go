package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/pkg/logger"
	"io"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Extraction failure modes. Each is reported with its own message; quiz
// preparation treats them all as a failed extraction.
var (
	ErrDownloadFailed   = errors.New("document download failed")
	ErrEngineInitFailed = errors.New("text engine initialization failed")
	ErrProcessingFailed = errors.New("document processing failed")
)

// TextEngine turns PDF bytes into plain text.
type TextEngine interface {
	Name() string
	ExtractText(ctx context.Context, data []byte) (text string, pages int, err error)
}

// NativeEngine reads the PDF text layer in process.
type NativeEngine struct{}

func (NativeEngine) Name() string { return "native" }

func (NativeEngine) ExtractText(ctx context.Context, data []byte) (text string, pages int, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProcessingFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrEngineInitFailed, err)
	}
	pages = r.NumPage()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", pages, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", pages, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return "", pages, err
	}
	return buf.String(), pages, nil
}

// PdftotextEngine shells out to poppler's pdftotext, which copes better
// with unusual encodings than the native reader.
type PdftotextEngine struct {
	Path string
}

func (PdftotextEngine) Name() string { return "pdftotext" }

func (e PdftotextEngine) ExtractText(ctx context.Context, data []byte) (string, int, error) {
	bin := e.Path
	if bin == "" {
		bin = "pdftotext"
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrEngineInitFailed, err)
	}

	cmd := exec.CommandContext(ctx, resolved, "-enc", "UTF-8", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		return "", 0, fmt.Errorf("%w: pdftotext: %v: %s", ErrProcessingFailed, err, strings.TrimSpace(stderr.String()))
	}

	text := string(out)
	// pages are separated by form feeds
	pages := strings.Count(text, "\f")
	if pages == 0 && strings.TrimSpace(text) != "" {
		pages = 1
	}
	return strings.ReplaceAll(text, "\f", "\n"), pages, nil
}

func NewTextEngine(cfg *config.ExtractConfig) TextEngine {
	if cfg.Engine == "pdftotext" {
		return PdftotextEngine{Path: cfg.PdftotextPath}
	}
	return NativeEngine{}
}

type ObjectDownloader interface {
	Download(ctx context.Context, filename string) (io.ReadCloser, error)
}

type TextArchive interface {
	Create(ctx context.Context, rec *model.ExtractedText) error
}

// ExtractService implements quiz.Extractor over the object store.
type ExtractService struct {
	Storage  ObjectDownloader
	Engine   TextEngine
	Archive  TextArchive
	MaxBytes int64
}

func NewExtractService(storage ObjectDownloader, engine TextEngine, archive TextArchive, cfg *config.ExtractConfig) *ExtractService {
	s := &ExtractService{
		Storage:  storage,
		Engine:   engine,
		MaxBytes: int64(cfg.MaxBytesMB) << 20,
	}
	if cfg.Archive {
		s.Archive = archive
	}
	return s
}

func (s *ExtractService) Extract(ctx context.Context, doc quiz.DocumentRef) (*quiz.Extraction, error) {
	data, err := s.download(ctx, doc.StoragePath)
	if err != nil {
		return nil, err
	}

	text, pages, err := s.Engine.ExtractText(ctx, data)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: no text layer found in %q", ErrProcessingFailed, doc.Name)
	}

	logger.Log.Debug("Extracted document text",
		zap.String("documentId", doc.ID),
		zap.String("engine", s.Engine.Name()),
		zap.Int("pages", pages),
		zap.Int("chars", len(text)),
	)

	if s.Archive != nil {
		rec := &model.ExtractedText{
			PdfID:       doc.ID,
			Title:       doc.Name,
			TextContent: text,
			PageCount:   pages,
			Engine:      s.Engine.Name(),
		}
		if err := s.Archive.Create(ctx, rec); err != nil {
			logger.Log.Warn("Failed to archive extracted text", zap.String("documentId", doc.ID), zap.Error(err))
		}
	}

	return &quiz.Extraction{Text: text, PageCount: pages}, nil
}

func (s *ExtractService) download(ctx context.Context, path string) ([]byte, error) {
	rc, err := s.Storage.Download(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if s.MaxBytes > 0 {
		r = io.LimitReader(rc, s.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: document exceeds %d MB", ErrDownloadFailed, s.MaxBytes>>20)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty object %q", ErrDownloadFailed, path)
	}
	return data, nil
}
