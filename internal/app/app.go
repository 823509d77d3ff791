package app

import (
	"context"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/controller"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/internal/repository"
	"fst_cloud_backend/internal/service"
	"fst_cloud_backend/pkg/configwatcher"
	"fst_cloud_backend/pkg/database"
	"fst_cloud_backend/pkg/logger"
	"fst_cloud_backend/pkg/monitoring"
	"fst_cloud_backend/pkg/security"
	"fst_cloud_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stopWatcher     context.CancelFunc
}

type repositories struct {
	document      *repository.DocumentRepository
	favorite      *repository.FavoriteRepository
	admin         *repository.AdminRepository
	extractedText *repository.ExtractedTextRepository
}

type services struct {
	storage    *service.StorageService
	document   *service.DocumentService
	favorite   *service.FavoriteService
	extract    *service.ExtractService
	completion service.CompletionProvider
	quiz       *service.QuizService
	hub        *service.NotificationHub
}

type controllers struct {
	document     *controller.DocumentController
	admin        *controller.AdminController
	favorite     *controller.FavoriteController
	quiz         *controller.QuizController
	notification *controller.NotificationController
	profile      *controller.ProfileController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		document:      repository.NewDocumentRepository(db),
		favorite:      repository.NewFavoriteRepository(db),
		admin:         repository.NewAdminRepository(db),
		extractedText: repository.NewExtractedTextRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)

	s.hub = service.NewNotificationHub(rdb)
	go s.hub.Run()

	s.document = service.NewDocumentService(repos.document, s.storage, s.hub, cfg.Storage.MaxUploadMB)
	s.favorite = service.NewFavoriteService(repos.favorite, repos.document)

	s.extract = service.NewExtractService(s.storage, service.NewTextEngine(&cfg.Extract), repos.extractedText, &cfg.Extract)
	s.completion = service.NewCompletionProvider(context.Background(), &cfg.AI)
	generator := service.NewQuestionGenerator(s.completion, cfg.Extract.MaxChars, cfg.AI.Timeout())

	orchestrator := quiz.NewOrchestrator(s.document, s.extract, generator, cfg.Extract.MaxChars)
	s.quiz = service.NewQuizService(orchestrator, cfg.Quiz)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		document:     controller.NewDocumentController(s.document),
		admin:        controller.NewAdminController(s.document),
		favorite:     controller.NewFavoriteController(s.favorite),
		quiz:         controller.NewQuizController(s.quiz),
		notification: controller.NewNotificationController(s.hub),
		profile:      controller.NewProfileController(),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	go s.quiz.RunJanitor(time.Minute)

	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetLevel(cfg)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.quiz.UpdateLimits(cfg.Quiz)
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatcher = cancel
	go func() {
		err := configwatcher.WatchConfig(ctx, "configs", func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.ForceMigrate || cfg.Server.Mode == gin.DebugMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Database migration failed", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.stopWatcher != nil {
		a.stopWatcher()
	}
	// close websockets first so Shutdown does not wait on hijacked connections
	if a.services != nil {
		a.services.hub.Stop()
		a.services.quiz.Stop()
		if closer, ok := a.services.completion.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Log.Warn("Failed to close question generator client", zap.Error(err))
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
