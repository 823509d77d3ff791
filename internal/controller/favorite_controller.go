package controller

import (
	"fst_cloud_backend/internal/service"
	"fst_cloud_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FavoriteController struct {
	FavoriteService *service.FavoriteService
}

func NewFavoriteController(favoriteService *service.FavoriteService) *FavoriteController {
	return &FavoriteController{FavoriteService: favoriteService}
}

// List godoc
// @Summary My favorite documents
// @Tags favorites
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.PdfFile} "Success"
// @Router /favorites [get]
func (c *FavoriteController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	docs, err := c.FavoriteService.List(ctx.Request.Context(), claims.UserID())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, docs)
}

// Status godoc
// @Summary Whether a document is a favorite
// @Tags favorites
// @Produce  json
// @Security ApiKeyAuth
// @Param   documentId path string true "Document ID"
// @Success 200 {object} util.Response "Success"
// @Router /favorites/{documentId} [get]
func (c *FavoriteController) Status(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	fav, err := c.FavoriteService.IsFavorite(ctx.Request.Context(), claims.UserID(), ctx.Param("documentId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"documentId": ctx.Param("documentId"), "favorite": fav})
}

// Add godoc
// @Summary Add a favorite
// @Tags favorites
// @Produce  json
// @Security ApiKeyAuth
// @Param   documentId path string true "Document ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /favorites/{documentId} [post]
func (c *FavoriteController) Add(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.FavoriteService.Add(ctx.Request.Context(), claims.UserID(), ctx.Param("documentId")); err != nil {
		writeDocumentError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"documentId": ctx.Param("documentId"), "favorite": true})
}

// Remove godoc
// @Summary Remove a favorite
// @Tags favorites
// @Produce  json
// @Security ApiKeyAuth
// @Param   documentId path string true "Document ID"
// @Success 200 {object} util.Response "Success"
// @Router /favorites/{documentId} [delete]
func (c *FavoriteController) Remove(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if err := c.FavoriteService.Remove(ctx.Request.Context(), claims.UserID(), ctx.Param("documentId")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"documentId": ctx.Param("documentId"), "favorite": false})
}

// Toggle godoc
// @Summary Toggle a favorite
// @Tags favorites
// @Produce  json
// @Security ApiKeyAuth
// @Param   documentId path string true "Document ID"
// @Success 200 {object} util.Response "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /favorites/{documentId}/toggle [post]
func (c *FavoriteController) Toggle(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	fav, err := c.FavoriteService.Toggle(ctx.Request.Context(), claims.UserID(), ctx.Param("documentId"))
	if err != nil {
		writeDocumentError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"documentId": ctx.Param("documentId"), "favorite": fav})
}
