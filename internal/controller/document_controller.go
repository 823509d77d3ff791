package controller

import (
	"errors"
	"fmt"
	"fst_cloud_backend/internal/service"
	"fst_cloud_backend/internal/util"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	DocumentService *service.DocumentService
}

func NewDocumentController(documentService *service.DocumentService) *DocumentController {
	return &DocumentController{DocumentService: documentService}
}

// UploadDocumentRequest defines model for document upload
// swagger:model UploadDocumentRequest
type UploadDocumentRequest struct {
	Name        string `form:"name"`
	Course      string `form:"course" binding:"required"`
	Level       string `form:"level" binding:"required"`
	Description string `form:"description"`
	Tags        string `form:"tags"`
}

// writeDocumentError maps catalog errors to responses.
func writeDocumentError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrDocumentNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrInvalidFileType), errors.Is(err, util.ErrInvalidStatus):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrFileTooLarge):
		util.Error(ctx, http.StatusRequestEntityTooLarge, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// Upload godoc
// @Summary Upload a PDF
// @Description Upload a PDF for admin approval. Only approved documents are listed publicly.
// @Tags documents
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "PDF file"
// @Param   course formData string true "Course code"
// @Param   level formData string true "Level"
// @Param   name formData string false "Display name, defaults to the file name"
// @Param   description formData string false "Description"
// @Param   tags formData string false "Comma separated tags"
// @Success 201 {object} util.Response{data=model.PdfFile} "Created"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 401 {object} util.Response "Unauthorized"
// @Failure 413 {object} util.Response "File too large"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /documents [post]
func (c *DocumentController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UploadDocumentRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}

	pdf, err := c.DocumentService.Upload(ctx.Request.Context(), claims.UserID(), file, service.UploadInput{
		Name:        req.Name,
		Course:      req.Course,
		Level:       req.Level,
		Description: req.Description,
		Tags:        util.SplitTags(req.Tags),
	})
	if err != nil {
		writeDocumentError(ctx, err)
		return
	}

	util.Created(ctx, pdf)
}

// List godoc
// @Summary List approved documents
// @Tags documents
// @Produce  json
// @Security ApiKeyAuth
// @Param   course query string false "Course filter"
// @Param   level query string false "Level filter"
// @Param   search query string false "Matches name, description or tag"
// @Param   page query int false "Page number" default(1)
// @Param   limit query int false "Page size" default(9)
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /documents [get]
func (c *DocumentController) List(ctx *gin.Context) {
	page, limit, _ := util.Paginate(util.ParseIntDefault(ctx.Query("page"), 1), util.ParseIntDefault(ctx.Query("limit"), util.DefaultPageSize))

	docs, total, err := c.DocumentService.ListApproved(ctx.Request.Context(), ctx.Query("course"), ctx.Query("level"), ctx.Query("search"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Page(ctx, docs, int64(total), page, limit)
}

// Facets godoc
// @Summary Course and level filter values
// @Description Distinct courses and levels of approved documents
// @Tags documents
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.CatalogFacets} "Success"
// @Failure 500 {object} util.Response "Internal Server Error"
// @Router /documents/facets [get]
func (c *DocumentController) Facets(ctx *gin.Context) {
	facets, err := c.DocumentService.Facets(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, facets)
}

// Mine godoc
// @Summary List my uploads
// @Description Every document the caller uploaded, whatever its status
// @Tags documents
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.PdfFile} "Success"
// @Router /documents/mine [get]
func (c *DocumentController) Mine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	docs, err := c.DocumentService.ListMine(ctx.Request.Context(), claims.UserID())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, docs)
}

// Get godoc
// @Summary Document detail
// @Tags documents
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Document ID"
// @Success 200 {object} util.Response{data=model.PdfFile} "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /documents/{id} [get]
func (c *DocumentController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	pdf, err := c.DocumentService.Get(ctx.Request.Context(), ctx.Param("id"), claims.UserID(), util.IsAdminFromContext(ctx))
	if err != nil {
		writeDocumentError(ctx, err)
		return
	}
	util.Success(ctx, pdf)
}

// Download godoc
// @Summary Download a document
// @Tags documents
// @Produce application/pdf
// @Security ApiKeyAuth
// @Param   id path string true "Document ID"
// @Success 200 {file} file "PDF"
// @Failure 404 {object} util.Response "Not Found"
// @Router /documents/{id}/download [get]
func (c *DocumentController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	pdf, rc, err := c.DocumentService.Open(ctx.Request.Context(), ctx.Param("id"), claims.UserID(), util.IsAdminFromContext(ctx))
	if err != nil {
		writeDocumentError(ctx, err)
		return
	}
	defer rc.Close()

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strconv.Quote(pdf.Name+".pdf")))
	ctx.Header("Content-Type", util.MimePDF)
	if pdf.Size > 0 {
		ctx.Header("Content-Length", strconv.FormatInt(pdf.Size, 10))
	}
	ctx.Status(http.StatusOK)
	if _, err := io.Copy(ctx.Writer, rc); err != nil {
		ctx.Error(err)
	}
}
