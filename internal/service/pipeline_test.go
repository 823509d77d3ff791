package service

import (
	"bytes"
	"context"
	"errors"
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/internal/quiz"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.objects[filename] = data
	return filename, nil
}

func (m *memStore) Download(ctx context.Context, filename string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[filename]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(ctx context.Context, filename string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.objects, filename)
	return nil
}

type echoEngine struct {
	err error
}

func (echoEngine) Name() string { return "echo" }

func (e echoEngine) ExtractText(ctx context.Context, data []byte) (string, int, error) {
	if e.err != nil {
		return "", 0, e.err
	}
	return string(data), 1, nil
}

type recordingArchive struct {
	recs []*model.ExtractedText
	err  error
}

func (a *recordingArchive) Create(ctx context.Context, rec *model.ExtractedText) error {
	a.recs = append(a.recs, rec)
	return a.err
}

func TestExtractServiceArchivesText(t *testing.T) {
	store := newMemStore()
	store.objects["a.pdf"] = []byte("  photosynthesis converts light  ")
	archive := &recordingArchive{}
	svc := &ExtractService{Storage: store, Engine: echoEngine{}, Archive: archive, MaxBytes: 1 << 20}

	got, err := svc.Extract(context.Background(), quiz.DocumentRef{ID: "doc-1", Name: "Bio", StoragePath: "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "photosynthesis converts light", got.Text)
	require.Len(t, archive.recs, 1)
	assert.Equal(t, "doc-1", archive.recs[0].PdfID)
	assert.Equal(t, "echo", archive.recs[0].Engine)
}

func TestExtractServiceArchiveFailureIsNotFatal(t *testing.T) {
	store := newMemStore()
	store.objects["a.pdf"] = []byte("text")
	svc := &ExtractService{Storage: store, Engine: echoEngine{}, Archive: &recordingArchive{err: errors.New("db down")}}

	_, err := svc.Extract(context.Background(), quiz.DocumentRef{ID: "doc-1", StoragePath: "a.pdf"})
	assert.NoError(t, err)
}

func TestExtractServiceFailures(t *testing.T) {
	store := newMemStore()
	store.objects["blank.pdf"] = []byte("   ")
	store.objects["big.pdf"] = bytes.Repeat([]byte("x"), 64)

	svc := &ExtractService{Storage: store, Engine: echoEngine{}, MaxBytes: 32}

	_, err := svc.Extract(context.Background(), quiz.DocumentRef{StoragePath: "missing.pdf"})
	assert.ErrorIs(t, err, ErrDownloadFailed)

	_, err = svc.Extract(context.Background(), quiz.DocumentRef{StoragePath: "big.pdf"})
	assert.ErrorIs(t, err, ErrDownloadFailed)

	_, err = svc.Extract(context.Background(), quiz.DocumentRef{StoragePath: "blank.pdf"})
	assert.ErrorIs(t, err, ErrProcessingFailed)

	svc.Engine = echoEngine{err: ErrEngineInitFailed}
	store.objects["ok.pdf"] = []byte("text")
	_, err = svc.Extract(context.Background(), quiz.DocumentRef{StoragePath: "ok.pdf"})
	assert.ErrorIs(t, err, ErrEngineInitFailed)
}

type capturingProvider struct {
	prompt   string
	reply    string
	err      error
	deadline bool
}

func (p *capturingProvider) Name() string { return "capture" }

func (p *capturingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.prompt = prompt
	_, p.deadline = ctx.Deadline()
	return p.reply, p.err
}

func TestBuildPromptPerKind(t *testing.T) {
	mcq, err := BuildPrompt(quiz.KindMultipleChoice, 5, "TEXT")
	require.NoError(t, err)
	assert.Contains(t, mcq, "write 5 multiple-choice questions")
	assert.Contains(t, mcq, "TEXT")

	fill, err := BuildPrompt(quiz.KindFillBlank, 3, "TEXT")
	require.NoError(t, err)
	assert.Contains(t, fill, "write 3 fill-in-the-blank questions")
	assert.Equal(t, 3, strings.Count(fill, quiz.BlankMarker))
	assert.Contains(t, fill, `"question": "The capital of France is `+quiz.BlankMarker+`."`)

	theory, err := BuildPrompt(quiz.KindTheory, 2, "TEXT")
	require.NoError(t, err)
	assert.Contains(t, theory, "keyPoints")

	_, err = BuildPrompt(quiz.Kind("essay"), 1, "TEXT")
	assert.ErrorIs(t, err, quiz.ErrInvalidRequest)
}

func TestQuestionGeneratorTruncatesText(t *testing.T) {
	p := &capturingProvider{reply: "[]"}
	g := NewQuestionGenerator(p, 10, time.Minute)

	raw, err := g.Generate(context.Background(), quiz.GenerateRequest{
		Text:  strings.Repeat("a", 10) + "OVERFLOW",
		Kind:  quiz.KindTheory,
		Count: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	assert.Contains(t, p.prompt, strings.Repeat("a", 10))
	assert.NotContains(t, p.prompt, "OVERFLOW")
	assert.True(t, p.deadline)
}

func TestUnavailableProviderFailsCleanly(t *testing.T) {
	g := NewQuestionGenerator(unavailableProvider{err: errors.New("no key")}, 0, 0)
	_, err := g.Generate(context.Background(), quiz.GenerateRequest{Text: "x", Kind: quiz.KindMultipleChoice, Count: 1})
	assert.EqualError(t, err, "no key")
}
