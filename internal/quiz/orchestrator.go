package quiz

import (
	"context"
	"errors"
	"fmt"
	"fst_cloud_backend/pkg/logger"
	"fst_cloud_backend/pkg/monitoring"
	"fst_cloud_backend/pkg/tracing"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultMaxChars bounds the text handed to the generator.
const DefaultMaxChars = 15000

// Catalog resolves approved documents. It returns an error matching
// ErrNotFound when the document is missing or not approved.
type Catalog interface {
	ApprovedDocument(ctx context.Context, id string) (*DocumentRef, error)
}

type Extraction struct {
	Text      string
	PageCount int
}

// Extractor pulls plain text out of a stored document.
type Extractor interface {
	Extract(ctx context.Context, doc DocumentRef) (*Extraction, error)
}

type GenerateRequest struct {
	Text  string
	Kind  Kind
	Count int
}

// Generator returns the raw model completion for a request. The completion
// is expected to embed a JSON array of question objects.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type Phase string

const (
	PhaseResolving  Phase = "resolving"
	PhaseExtracting Phase = "extracting"
	PhaseGenerating Phase = "generating"
	PhaseReady      Phase = "ready"
	PhaseFailed     Phase = "failed"
)

// ProgressFunc observes phase transitions during Prepare. It may be nil.
type ProgressFunc func(Phase)

type Orchestrator struct {
	catalog   Catalog
	extractor Extractor
	generator Generator
	maxChars  int
	newID     func() string
}

func NewOrchestrator(catalog Catalog, extractor Extractor, generator Generator, maxChars int) *Orchestrator {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Orchestrator{
		catalog:   catalog,
		extractor: extractor,
		generator: generator,
		maxChars:  maxChars,
		newID:     func() string { return uuid.New().String() },
	}
}

// Prepare runs resolve, extract, generate and validate strictly in order
// and returns a fresh session. Any failure aborts the whole preparation;
// no partial session is returned. Cancelling ctx abandons the in-flight
// step and returns ctx's error.
func (o *Orchestrator) Prepare(ctx context.Context, documentID string, kind Kind, count int, progress ProgressFunc) (sess *Session, err error) {
	if progress == nil {
		progress = func(Phase) {}
	}

	ctx, span := tracing.StartSpan(ctx, "quiz.Prepare")
	span.SetAttributes(
		attribute.String("quiz.document_id", documentID),
		attribute.String("quiz.kind", string(kind)),
		attribute.Int("quiz.count", count),
	)
	defer func() {
		outcome := Outcome(err)
		monitoring.QuizPrepareTotal.WithLabelValues(string(kind), outcome).Inc()
		if err != nil {
			progress(PhaseFailed)
			fields := []zap.Field{
				zap.String("documentId", documentID),
				zap.String("kind", string(kind)),
				zap.String("outcome", outcome),
				zap.Error(err),
			}
			var pe *PrepareError
			if errors.As(err, &pe) && pe.RawResponse != "" {
				fields = append(fields, zap.String("rawResponse", pe.RawResponse))
			}
			logger.Log.Warn("Quiz preparation failed", fields...)
		}
		tracing.End(span, err)
	}()

	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown question type %q", ErrInvalidRequest, kind)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: question count must be positive, got %d", ErrInvalidRequest, count)
	}

	progress(PhaseResolving)
	doc, err := o.resolve(ctx, documentID)
	if err != nil {
		return nil, err
	}

	progress(PhaseExtracting)
	text, err := o.extract(ctx, *doc)
	if err != nil {
		return nil, err
	}

	progress(PhaseGenerating)
	questions, err := o.generate(ctx, text, kind, count)
	if err != nil {
		return nil, err
	}

	sess = NewSession(o.newID(), *doc, kind, count, questions)
	progress(PhaseReady)
	logger.Log.Info("Quiz prepared",
		zap.String("sessionId", sess.ID),
		zap.String("documentId", doc.ID),
		zap.String("kind", string(kind)),
		zap.Int("requested", count),
		zap.Int("questions", len(questions)),
	)
	return sess, nil
}

func (o *Orchestrator) resolve(ctx context.Context, documentID string) (*DocumentRef, error) {
	defer observePhase(PhaseResolving, time.Now())

	if strings.TrimSpace(documentID) == "" {
		return nil, newPrepareError(ErrNotFound, "empty document id", nil)
	}
	doc, err := o.catalog.ApprovedDocument(ctx, documentID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrNotFound) {
			return nil, newPrepareError(ErrNotFound, documentID, nil)
		}
		return nil, fmt.Errorf("resolve document %s: %w", documentID, err)
	}
	if doc == nil {
		return nil, newPrepareError(ErrNotFound, documentID, nil)
	}
	return doc, nil
}

func (o *Orchestrator) extract(ctx context.Context, doc DocumentRef) (string, error) {
	defer observePhase(PhaseExtracting, time.Now())
	ctx, span := tracing.StartSpan(ctx, "quiz.extract")
	defer span.End()

	ex, err := o.extractor.Extract(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", newPrepareError(ErrExtractionFailed, "", err)
	}
	if ex == nil || strings.TrimSpace(ex.Text) == "" {
		return "", newPrepareError(ErrExtractionFailed, "no text could be read from the document", nil)
	}
	span.SetAttributes(attribute.Int("quiz.pages", ex.PageCount), attribute.Int("quiz.chars", len(ex.Text)))
	return Truncate(ex.Text, o.maxChars), nil
}

func (o *Orchestrator) generate(ctx context.Context, text string, kind Kind, count int) ([]Question, error) {
	defer observePhase(PhaseGenerating, time.Now())
	ctx, span := tracing.StartSpan(ctx, "quiz.generate")
	defer span.End()

	raw, err := o.generator.Generate(ctx, GenerateRequest{Text: text, Kind: kind, Count: count})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newPrepareError(ErrGenerationFailed, "", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, newPrepareError(ErrGenerationFailed, "model returned an empty response", nil)
	}

	res, err := ParseQuestions(raw, kind, count)
	if err != nil {
		return nil, err
	}
	if len(res.Dropped) > 0 || res.Trimmed > 0 {
		logger.Log.Warn("Generated questions adjusted",
			zap.String("kind", string(kind)),
			zap.Strings("dropped", res.Dropped),
			zap.Int("trimmed", res.Trimmed),
		)
	}
	span.SetAttributes(attribute.Int("quiz.questions", len(res.Questions)))
	return res.Questions, nil
}

func observePhase(p Phase, start time.Time) {
	monitoring.QuizPrepareDuration.WithLabelValues(string(p)).Observe(time.Since(start).Seconds())
}

// Truncate cuts s to at most max characters without splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
