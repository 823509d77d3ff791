package controller

import (
	"fst_cloud_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProfileController struct{}

func NewProfileController() *ProfileController {
	return &ProfileController{}
}

type ProfileResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

// GetProfile godoc
// @Summary Current user
// @Description Identity from the bearer token plus the admin flag
// @Tags profile
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=ProfileResponse} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /profile [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, ProfileResponse{
		ID:      claims.UserID(),
		Email:   claims.Email,
		Role:    claims.Role,
		IsAdmin: util.IsAdminFromContext(ctx),
	})
}
