package repository

import (
	"context"
	"fmt"
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/pkg/database"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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

func seed(t *testing.T, repo *DocumentRepository, pdfs ...model.PdfFile) []model.PdfFile {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := range pdfs {
		pdfs[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(context.Background(), &pdfs[i]))
	}
	return pdfs
}

func TestDocumentRepository_ApprovedListing(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	seed(t, repo,
		model.PdfFile{Name: "Thermodynamics", Path: "a.pdf", Course: "PHY101", Level: "100", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "Kinematics", Path: "b.pdf", Course: "PHY101", Level: "100", Status: model.PdfApproved, UserID: "u2", Tags: []string{"motion"}},
		model.PdfFile{Name: "Organic chemistry", Path: "c.pdf", Course: "CHM201", Level: "200", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "Draft notes", Path: "d.pdf", Course: "PHY101", Level: "100", Status: model.PdfPending, UserID: "u1"},
	)

	list, total, err := repo.FindWithPagination(ctx, DocumentFilter{Status: model.PdfApproved}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, "Organic chemistry", list[0].Name, "newest first")

	list, total, err = repo.FindWithPagination(ctx, DocumentFilter{Status: model.PdfApproved, Course: "PHY101"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	list, total, err = repo.FindWithPagination(ctx, DocumentFilter{Status: model.PdfApproved, Search: "MOTION"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Kinematics", list[0].Name)
	assert.Equal(t, []string{"motion"}, list[0].Tags)

	list, total, err = repo.FindWithPagination(ctx, DocumentFilter{Status: model.PdfApproved}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)

	_, err = repo.FindApprovedByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDocumentRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	seed(t, repo,
		model.PdfFile{Name: "100% pass guide", Path: "a.pdf", Course: "GST101", Level: "100", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "1000 solved problems", Path: "b.pdf", Course: "MTH101", Level: "100", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "lab_manual", Path: "c.pdf", Course: "PHY101", Level: "100", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "lab-safety", Path: "d.pdf", Course: "PHY101", Level: "100", Status: model.PdfApproved, UserID: "u1"},
	)

	list, total, err := repo.FindWithPagination(ctx, DocumentFilter{Status: model.PdfApproved, Search: "100%"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "100% pass guide", list[0].Name)

	list, total, err = repo.FindWithPagination(ctx, DocumentFilter{Status: model.PdfApproved, Search: "lab_"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "lab_manual", list[0].Name)
}

func TestDocumentRepository_Facets(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)

	seed(t, repo,
		model.PdfFile{Name: "a", Path: "a.pdf", Course: "PHY101", Level: "100", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "b", Path: "b.pdf", Course: "PHY101", Level: "100", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "c", Path: "c.pdf", Course: "CHM201", Level: "200", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "d", Path: "d.pdf", Course: "BIO301", Level: "300", Status: model.PdfPending, UserID: "u1"},
		model.PdfFile{Name: "e", Path: "e.pdf", Course: "", Level: "", Status: model.PdfApproved, UserID: "u1"},
	)

	courses, levels, err := repo.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CHM201", "PHY101"}, courses)
	assert.Equal(t, []string{"100", "200"}, levels)
}

func TestDocumentRepository_StatusAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	favs := NewFavoriteRepository(db)
	ctx := context.Background()

	pdfs := seed(t, repo, model.PdfFile{Name: "Notes", Path: "n.pdf", Status: model.PdfPending, UserID: "u1"})
	id := pdfs[0].ID
	require.NotEmpty(t, id)

	_, err := repo.FindApprovedByID(ctx, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdateStatus(ctx, id, model.PdfApproved))
	got, err := repo.FindApprovedByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.PdfApproved, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", model.PdfApproved), gorm.ErrRecordNotFound)

	require.NoError(t, favs.Add(ctx, "u2", id))
	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	ok, err := favs.Exists(ctx, "u2", id)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, repo.Delete(ctx, id), gorm.ErrRecordNotFound)
}

func TestFavoriteRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)
	favs := NewFavoriteRepository(db)
	ctx := context.Background()

	pdfs := seed(t, repo,
		model.PdfFile{Name: "One", Path: "1.pdf", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "Two", Path: "2.pdf", Status: model.PdfApproved, UserID: "u1"},
		model.PdfFile{Name: "Hidden", Path: "3.pdf", Status: model.PdfRejected, UserID: "u1"},
	)

	require.NoError(t, favs.Add(ctx, "u9", pdfs[0].ID))
	require.NoError(t, favs.Add(ctx, "u9", pdfs[0].ID), "adding twice is a no-op")
	require.NoError(t, favs.Add(ctx, "u9", pdfs[2].ID))

	list, err := favs.ListDocuments(ctx, "u9")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "One", list[0].Name)

	require.NoError(t, favs.Remove(ctx, "u9", pdfs[0].ID))
	ok, err := favs.Exists(ctx, "u9", pdfs[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminRepository(t *testing.T) {
	db := newTestDB(t)
	admins := NewAdminRepository(db)
	ctx := context.Background()

	ok, err := admins.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, admins.Grant(ctx, "u1"))
	require.NoError(t, admins.Grant(ctx, "u1"))
	ok, err = admins.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, admins.Revoke(ctx, "u1"))
	ok, _ = admins.IsAdmin(ctx, "u1")
	assert.False(t, ok)
}

func TestExtractedTextRepository_Archive(t *testing.T) {
	db := newTestDB(t)
	repo := NewExtractedTextRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.ExtractedText{PdfID: "p1", Title: "Bio", TextContent: "cells", PageCount: 2, Engine: "native"}))
	require.NoError(t, repo.Create(ctx, &model.ExtractedText{PdfID: "p1", Title: "Bio", TextContent: "cells", PageCount: 2, Engine: "native"}))

	n, err := repo.CountByPdf(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.CountByPdf(ctx, "p2")
	require.NoError(t, err)
	assert.Zero(t, n)
}
