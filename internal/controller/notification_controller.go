package controller

import (
	"fst_cloud_backend/internal/service"
	"fst_cloud_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Hub *service.NotificationHub
}

func NewNotificationController(hub *service.NotificationHub) *NotificationController {
	return &NotificationController{Hub: hub}
}

// HandleWS godoc
// @Summary Notification websocket
// @Description Pushes upload and approval notifications. Admins receive every upload; owners receive news about their own documents.
// @Tags notifications
// @Security ApiKeyAuth
// @Param   token query string false "JWT, for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols"
// @Router /notifications/ws [get]
func (ctrl *NotificationController) HandleWS(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	service.ServeNotifications(ctrl.Hub, c.Writer, c.Request, claims.UserID(), util.IsAdminFromContext(c))
}
