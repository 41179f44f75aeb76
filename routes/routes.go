// Package routes assembles the HTTP surface shared by the server and its tests.
package routes

import (
	"net/http"
	"time"

	"speed-api/config"
	"speed-api/handlers"
	"speed-api/helper"
	"speed-api/metrics"
	"speed-api/middleware"
	"speed-api/models"
	"speed-api/repositories"
	"speed-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	loginMaxFailures = 10
	loginWindow      = 15 * time.Minute
)

// Dependencies are the collaborators the router needs. Notifier may be nil,
// in which case notifications are logged according to the stored config.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.AppConfig
	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Notifier services.Notifier
}

// NewRouter wires repositories, services and handlers onto a gin engine.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCollector()
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(deps.DB)
	articleRepo := repositories.NewArticleRepository(deps.DB)
	ratingRepo := repositories.NewRatingRepository(deps.DB)
	configRepo := repositories.NewSiteConfigRepository(deps.DB)

	notifier := deps.Notifier
	if notifier == nil {
		notifier = services.NewLogNotifier(configRepo, deps.Logger)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, deps.Config.Auth, deps.Logger)
	userService := services.NewUserService(userRepo, deps.Logger)
	articleService := services.NewArticleService(articleRepo, ratingRepo, notifier, deps.Config.Workflow, deps.Logger, deps.Metrics)
	searchService := services.NewSearchService(articleRepo, deps.Config.Search)
	configService := services.NewSiteConfigService(configRepo, deps.Logger)

	// Initialize handlers
	httpHelper := helper.NewHTTPHelper(deps.Logger)
	authHandler := handlers.NewAuthHandler(authService, httpHelper)
	articleHandler := handlers.NewArticleHandler(articleService, searchService, httpHelper)
	adminHandler := handlers.NewAdminHandler(articleService, configService, userService, deps.Metrics, httpHelper)

	var lookup middleware.UserLookup
	if deps.Config.Auth.VerifyUserOnRequest {
		lookup = authService
	}
	auth := middleware.NewAuthMiddleware(httpHelper, lookup)
	request := middleware.NewRequestMiddleware(deps.Logger, httpHelper, deps.Metrics)
	throttle := middleware.LoginThrottle(middleware.NewAttemptTracker(loginMaxFailures, loginWindow), httpHelper, deps.Logger)

	router := gin.New()
	router.Use(request.ProcessRequest(), request.RecoverPanic(), middleware.CORS(deps.Config.CORSOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", throttle, authHandler.Login)
		}

		api.GET("/profile", auth.Authenticate(), authHandler.GetProfile)

		articles := api.Group("/articles")
		{
			articles.GET("/search", articleHandler.Search)
			articles.GET("/filters", articleHandler.Filters)
			articles.POST("/submit", articleHandler.Submit)
			articles.GET("/pending", auth.Authenticate(), auth.RequireRole(models.RoleModerator, models.RoleAdmin), articleHandler.PendingModeration)
			articles.GET("/mine", auth.Authenticate(), articleHandler.Mine)
			articles.GET("/analysis/pending", auth.Authenticate(), auth.RequireRole(models.RoleAnalyst, models.RoleModerator, models.RoleAdmin), articleHandler.PendingAnalysis)
			if deps.Config.DebugRoutes {
				articles.GET("/debug/pending", articleHandler.PendingModeration)
			}

			articles.GET("/:id", articleHandler.GetArticle)
			articles.POST("/:id/rate", articleHandler.Rate)
			articles.PUT("/:id/moderate", auth.Authenticate(), auth.RequireRole(models.RoleModerator, models.RoleAdmin), articleHandler.Moderate)
			articles.PUT("/:id/analyze", auth.Authenticate(), auth.RequireRole(models.RoleAnalyst, models.RoleModerator, models.RoleAdmin), articleHandler.Analyze)
		}

		admin := api.Group("/admin")
		admin.Use(auth.Authenticate(), auth.RequireRole(models.RoleAdmin))
		{
			admin.GET("/config", adminHandler.GetConfig)
			admin.PUT("/config", adminHandler.UpsertConfig)
			admin.PATCH("/articles/*idOrDoi", adminHandler.PatchArticle)
			admin.DELETE("/articles/:id/ratings", adminHandler.RemoveRating)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:userId", adminHandler.UpdateUser)
			admin.GET("/metrics", adminHandler.Metrics)
			admin.GET("/metrics/prometheus", gin.WrapH(deps.Metrics.Handler()))
		}
	}

	return router
}
