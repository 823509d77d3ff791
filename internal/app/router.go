package app

import (
	"fst_cloud_backend/docs"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/middleware"
	"fst_cloud_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	router.GET("/api/health", c.health.HealthCheck)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, repos.admin))
	{
		authGroup.GET("/profile", c.profile.GetProfile)

		a.registerDocumentRoutes(authGroup, c)
		a.registerFavoriteRoutes(authGroup, c)
		a.registerQuizRoutes(authGroup, c)

		authGroup.GET("/notifications/ws", c.notification.HandleWS)

		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerDocumentRoutes(rg *gin.RouterGroup, c *controllers) {
	documents := rg.Group("/documents")
	{
		documents.GET("", c.document.List)
		documents.POST("", c.document.Upload)
		documents.GET("/mine", c.document.Mine)
		documents.GET("/facets", c.document.Facets)
		documents.GET("/:id", c.document.Get)
		documents.GET("/:id/download", c.document.Download)
	}
}

func (a *App) registerFavoriteRoutes(rg *gin.RouterGroup, c *controllers) {
	favorites := rg.Group("/favorites")
	{
		favorites.GET("", c.favorite.List)
		favorites.GET("/:documentId", c.favorite.Status)
		favorites.POST("/:documentId", c.favorite.Add)
		favorites.DELETE("/:documentId", c.favorite.Remove)
		favorites.POST("/:documentId/toggle", c.favorite.Toggle)
	}
}

func (a *App) registerQuizRoutes(rg *gin.RouterGroup, c *controllers) {
	sessions := rg.Group("/quiz/sessions")
	{
		sessions.POST("", c.quiz.Start)
		sessions.GET("/:id", c.quiz.Get)
		sessions.PUT("/:id/answers/:index", c.quiz.Answer)
		sessions.POST("/:id/navigate", c.quiz.Navigate)
		sessions.POST("/:id/submit", c.quiz.Submit)
		sessions.POST("/:id/retake", c.quiz.Retake)
		sessions.GET("/:id/results", c.quiz.Results)
		sessions.DELETE("/:id", c.quiz.Discard)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/documents/pending", c.admin.Pending)
		admin.GET("/documents/approved", c.admin.Approved)
		admin.PATCH("/documents/:id/status", c.admin.UpdateStatus)
		admin.DELETE("/documents/:id", c.admin.Delete)
	}
}
