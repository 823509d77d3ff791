package controller

import (
	"fst_cloud_backend/internal/model"
	"fst_cloud_backend/internal/repository"
	"fst_cloud_backend/internal/service"
	"fst_cloud_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminController serves the approval queue.
type AdminController struct {
	DocumentService *service.DocumentService
}

func NewAdminController(documentService *service.DocumentService) *AdminController {
	return &AdminController{DocumentService: documentService}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected" example:"approved"`
}

// Pending godoc
// @Summary Documents awaiting approval (Admin only)
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.PdfFile} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Router /admin/documents/pending [get]
func (c *AdminController) Pending(ctx *gin.Context) {
	docs, err := c.DocumentService.ListPending(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, docs)
}

// Approved godoc
// @Summary Approved documents with name search (Admin only)
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Param   search query string false "Name search"
// @Param   page query int false "Page number" default(1)
// @Param   limit query int false "Page size" default(9)
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /admin/documents/approved [get]
func (c *AdminController) Approved(ctx *gin.Context) {
	page, limit, offset := util.Paginate(util.ParseIntDefault(ctx.Query("page"), 1), util.ParseIntDefault(ctx.Query("limit"), util.DefaultPageSize))

	f := repository.DocumentFilter{Status: model.PdfApproved, Search: ctx.Query("search")}
	docs, total, err := c.DocumentService.Repo.FindWithPagination(ctx.Request.Context(), f, offset, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Page(ctx, docs, int64(total), page, limit)
}

// UpdateStatus godoc
// @Summary Approve or reject a document (Admin only)
// @Tags admin
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Document ID"
// @Param   body body UpdateStatusRequest true "New status"
// @Success 200 {object} util.Response{data=model.PdfFile} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 404 {object} util.Response "Not Found"
// @Router /admin/documents/{id}/status [patch]
func (c *AdminController) UpdateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pdf, err := c.DocumentService.SetStatus(ctx.Request.Context(), ctx.Param("id"), model.PdfStatus(req.Status))
	if err != nil {
		writeDocumentError(ctx, err)
		return
	}
	util.Success(ctx, pdf)
}

// Delete godoc
// @Summary Delete a document and its stored file (Admin only)
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Document ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /admin/documents/{id} [delete]
func (c *AdminController) Delete(ctx *gin.Context) {
	if err := c.DocumentService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		writeDocumentError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("id")})
}
