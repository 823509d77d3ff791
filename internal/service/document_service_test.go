package service

import (
	"bytes"
	"context"
	"fmt"
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/internal/repository"
	"fst_cloud_backend/internal/util"
	"fst_cloud_backend/pkg/database"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// multipartFile builds the *multipart.FileHeader gin hands to controllers.
func multipartFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

type recordingPublisher struct {
	events []DocumentEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev DocumentEvent) error {
	p.events = append(p.events, ev)
	return nil
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

func newDocumentServiceForTest(t *testing.T) (*DocumentService, *memStore, *recordingPublisher) {
	db := newServiceTestDB(t)
	store := newMemStore()
	events := &recordingPublisher{}
	return NewDocumentService(repository.NewDocumentRepository(db), store, events, 1), store, events
}

func TestDocumentServiceUploadAndApprove(t *testing.T) {
	svc, store, events := newDocumentServiceForTest(t)
	ctx := context.Background()

	pdf, err := svc.Upload(ctx, "owner", multipartFile(t, "notes/Linear Algebra.pdf", samplePDF), UploadInput{
		Course: " MTH101 ",
		Level:  "100",
		Tags:   util.SplitTags("math, algebra"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", pdf.Name)
	assert.Equal(t, "MTH101", pdf.Course)
	assert.Equal(t, model.PdfPending, pdf.Status)
	assert.Contains(t, store.objects, pdf.Path)
	require.Len(t, events.events, 1)
	assert.Equal(t, EventPdfUploaded, events.events[0].Event)

	_, err = svc.Get(ctx, pdf.ID, "stranger", false)
	assert.ErrorIs(t, err, util.ErrDocumentNotFound)
	_, err = svc.Get(ctx, pdf.ID, "owner", false)
	assert.NoError(t, err)

	_, err = svc.ApprovedDocument(ctx, pdf.ID)
	assert.ErrorIs(t, err, quiz.ErrNotFound)

	_, err = svc.SetStatus(ctx, pdf.ID, model.PdfApproved)
	require.NoError(t, err)
	require.Len(t, events.events, 2)
	assert.Equal(t, EventPdfStatusChanged, events.events[1].Event)
	assert.Equal(t, "owner", events.events[1].OwnerID)

	ref, err := svc.ApprovedDocument(ctx, pdf.ID)
	require.NoError(t, err)
	assert.Equal(t, pdf.Path, ref.StoragePath)

	list, total, err := svc.ListApproved(ctx, "MTH101", "", "", 1, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	_, rc, err := svc.Open(ctx, pdf.ID, "stranger", false)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)
}

func TestDocumentServiceRejectsBadUploads(t *testing.T) {
	svc, store, _ := newDocumentServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "owner", multipartFile(t, "fake.pdf", []byte("just some text")), UploadInput{Course: "C", Level: "1"})
	assert.ErrorIs(t, err, util.ErrInvalidFileType)

	big := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("x"), 2<<20)...)
	_, err = svc.Upload(ctx, "owner", multipartFile(t, "big.pdf", big), UploadInput{Course: "C", Level: "1"})
	assert.ErrorIs(t, err, util.ErrFileTooLarge)

	assert.Empty(t, store.objects)
}

func TestDocumentServiceStatusAndDelete(t *testing.T) {
	svc, store, _ := newDocumentServiceForTest(t)
	ctx := context.Background()

	pdf, err := svc.Upload(ctx, "owner", multipartFile(t, "a.pdf", samplePDF), UploadInput{Course: "C", Level: "1"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, pdf.ID, model.PdfStatus("archived"))
	assert.ErrorIs(t, err, util.ErrInvalidStatus)
	_, err = svc.SetStatus(ctx, "missing", model.PdfApproved)
	assert.ErrorIs(t, err, util.ErrDocumentNotFound)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, svc.Delete(ctx, pdf.ID))
	assert.NotContains(t, store.objects, pdf.Path)
	assert.ErrorIs(t, svc.Delete(ctx, pdf.ID), util.ErrDocumentNotFound)
}

func TestFavoriteServiceToggle(t *testing.T) {
	db := newServiceTestDB(t)
	docs := repository.NewDocumentRepository(db)
	svc := NewFavoriteService(repository.NewFavoriteRepository(db), docs)
	ctx := context.Background()

	pending := &model.PdfFile{Name: "Draft", Path: "d.pdf", Course: "C", Level: "1", Status: model.PdfPending, UserID: "owner"}
	approved := &model.PdfFile{Name: "Final", Path: "f.pdf", Course: "C", Level: "1", Status: model.PdfApproved, UserID: "owner"}
	require.NoError(t, docs.Create(ctx, pending))
	require.NoError(t, docs.Create(ctx, approved))

	assert.ErrorIs(t, svc.Add(ctx, "reader", pending.ID), util.ErrDocumentNotFound)

	on, err := svc.Toggle(ctx, "reader", approved.ID)
	require.NoError(t, err)
	assert.True(t, on)

	list, err := svc.List(ctx, "reader")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)

	on, err = svc.Toggle(ctx, "reader", approved.ID)
	require.NoError(t, err)
	assert.False(t, on)

	fav, err := svc.IsFavorite(ctx, "reader", approved.ID)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestDocumentServiceFacets(t *testing.T) {
	svc, _, _ := newDocumentServiceForTest(t)
	ctx := context.Background()

	empty, err := svc.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, empty.Courses)
	assert.Equal(t, []string{}, empty.Levels)

	pdf, err := svc.Upload(ctx, "owner", multipartFile(t, "a.pdf", samplePDF), UploadInput{Course: "MTH101", Level: "100"})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "owner", multipartFile(t, "b.pdf", samplePDF), UploadInput{Course: "CHM201", Level: "200"})
	require.NoError(t, err)

	facets, err := svc.Facets(ctx)
	require.NoError(t, err)
	assert.Empty(t, facets.Courses, "pending uploads are not offered as filters")

	_, err = svc.SetStatus(ctx, pdf.ID, model.PdfApproved)
	require.NoError(t, err)
	facets, err = svc.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MTH101"}, facets.Courses)
	assert.Equal(t, []string{"100"}, facets.Levels)
}
