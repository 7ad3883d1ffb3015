package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lunamoss/readmaster/config"
	"github.com/lunamoss/readmaster/database"
	_ "github.com/lunamoss/readmaster/docs" // Swagger docs
	adminctrl "github.com/lunamoss/readmaster/internal/controller/admin"
	authctrl "github.com/lunamoss/readmaster/internal/controller/auth"
	parentctrl "github.com/lunamoss/readmaster/internal/controller/parent"
	studentctrl "github.com/lunamoss/readmaster/internal/controller/student"
	teacherctrl "github.com/lunamoss/readmaster/internal/controller/teacher"
	wsctrl "github.com/lunamoss/readmaster/internal/controller/ws"
	"github.com/lunamoss/readmaster/internal/logger"
	"github.com/lunamoss/readmaster/internal/middleware"
	"github.com/lunamoss/readmaster/internal/model"
	"github.com/lunamoss/readmaster/internal/notifier"
	"github.com/lunamoss/readmaster/internal/queue"
	"github.com/lunamoss/readmaster/internal/repository"
	"github.com/lunamoss/readmaster/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title ReadMaster API
// @version 1.0
// @description Reading assessment platform with AI speech analysis, comprehension quizzes and realtime notifications.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewUserRepository,
			repository.NewReadingRepository,
			repository.NewQuizQuestionRepository,
			repository.NewAssessmentRepository,
			repository.NewAssessmentResultRepository,
			repository.NewStudentQuizAnswerRepository,
			repository.NewUploadTicketRepository,
			repository.NewClassRepository,
			repository.NewNotificationRepository,
		),

		fx.Provide(
			notifier.NewHub,
			// The hub is the Pusher on the API side; the worker publishes
			// through redis instead.
			func(repo repository.NotificationRepository, hub *notifier.Hub) notifier.Service {
				return notifier.NewService(repo, hub)
			},
			notifier.NewBridge,
		),

		fx.Provide(
			service.NewObjectStorage,
			queue.NewEnqueuer,
			service.NewAuthService,
			service.NewUserService,
			service.NewReadingService,
			service.NewClassService,
			service.NewAssessmentService,
			service.NewQuizService,
			service.NewUploadService,
		),

		fx.Provide(
			authctrl.NewAuthController,
			studentctrl.NewStudentController,
			teacherctrl.NewTeacherController,
			parentctrl.NewParentController,
			adminctrl.NewAdminController,
			wsctrl.NewWsController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RunNotificationBridge),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RunNotificationBridge forwards worker events from redis into the local
// websocket hub for the lifetime of the process.
func RunNotificationBridge(lc fx.Lifecycle, bridge *notifier.Bridge) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go bridge.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// RegisterRoutesAndStartServer mounts all route groups and manages the HTTP
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authService service.AuthService,
	userRepo repository.UserRepository,
	authController *authctrl.AuthController,
	studentController *studentctrl.StudentController,
	teacherController *teacherctrl.TeacherController,
	parentController *parentctrl.ParentController,
	adminController *adminctrl.AdminController,
	wsController *wsctrl.WsController,
) {
	public := router.Group("/api/v1")
	authController.RegisterPublicRoutes(public)

	authed := router.Group("/api/v1")
	authed.Use(middleware.Auth(authService, userRepo))
	authController.RegisterProtectedRoutes(authed)
	studentController.RegisterRoutes(authed)
	wsController.RegisterRoutes(authed)

	teaching := router.Group("/api/v1")
	teaching.Use(middleware.Auth(authService, userRepo), middleware.RequireRoles(model.RoleTeacher, model.RoleAdmin))
	teacherController.RegisterRoutes(teaching)

	parents := router.Group("/api/v1")
	parents.Use(middleware.Auth(authService, userRepo), middleware.RequireRoles(model.RoleParent))
	parentController.RegisterRoutes(parents)

	assigning := router.Group("/api/v1")
	assigning.Use(middleware.Auth(authService, userRepo),
		middleware.RequireRoles(model.RoleTeacher, model.RoleParent, model.RoleAdmin))
	teacherController.RegisterAssignmentRoutes(assigning)

	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.Auth(authService, userRepo), middleware.RequireRoles(model.RoleAdmin))
	adminController.RegisterRoutes(admin)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("ReadMaster API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.ParentStudentLink{},
		&model.Reading{},
		&model.QuizQuestion{},
		&model.Assessment{},
		&model.AssessmentResult{},
		&model.StudentQuizAnswer{},
		&model.UploadTicket{},
		&model.Class{},
		&model.Notification{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
