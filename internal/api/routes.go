package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"healthhive/internal/api/middleware"
	"healthhive/internal/auth"
	"healthhive/internal/config"
	"healthhive/internal/database"
)

// Dependencies carries the constructed service handles the routes need.
// Lifecycle is owned by the process entry point, not by this package.
type Dependencies struct {
	DB          *gorm.DB
	AuthService *auth.AuthService
	Redis       *redis.Client
	Enqueuer    TaskEnqueuer
	Storage     MediaStorage
	Logger      *slog.Logger
	Config      *config.Config
}

// RegisterRoutes wires every handler under /v1.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	authHandler := NewAuthHandler(
		deps.DB, deps.AuthService, deps.Redis, deps.Logger,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		cfg.Auth.LoginLockTTL(),
		cfg.Auth.CookieDomain,
	)
	workoutHandler := NewWorkoutHandler(deps.DB, deps.Storage, deps.Logger)
	nutritionHandler := NewNutritionHandler(deps.DB, deps.Storage, deps.Logger)
	blogHandler := NewBlogHandler(deps.DB, deps.Storage, deps.Logger)
	communityHandler := NewCommunityHandler(deps.DB, deps.Redis, deps.Storage, deps.Logger)
	progressHandler := NewProgressHandler(deps.DB)
	userHandler := NewUserHandler(deps.DB)
	newsletterHandler := NewNewsletterHandler(deps.DB, deps.Enqueuer, deps.Logger)
	mediaHandler := NewMediaHandler(deps.Storage, deps.Logger, cfg.Uploads.ClamdAddr, cfg.Uploads.MaxBytes)
	feedHandler := NewFeedHandler(deps.Redis, deps.AuthService, deps.Logger, cfg.API.AllowedOrigins)

	requireAuth := middleware.AuthMiddleware(deps.AuthService)
	optionalAuth := middleware.OptionalAuthMiddleware(deps.AuthService)
	requireAdmin := middleware.RequireRole(database.RoleAdmin)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", requireAuth, authHandler.Logout)
		}

		workouts := v1.Group("/workouts")
		{
			workouts.GET("", optionalAuth, workoutHandler.ListWorkouts)
			workouts.GET("/:id", optionalAuth, workoutHandler.GetWorkout)
			workouts.POST("", requireAuth, requireAdmin, workoutHandler.CreateWorkout)
			workouts.PUT("/:id", requireAuth, workoutHandler.UpdateWorkout)
			workouts.DELETE("/:id", requireAuth, workoutHandler.DeleteWorkout)
		}

		nutrition := v1.Group("/nutrition")
		{
			nutrition.GET("", optionalAuth, nutritionHandler.ListNutritionPlans)
			nutrition.GET("/:id", optionalAuth, nutritionHandler.GetNutritionPlan)
			nutrition.POST("", requireAuth, requireAdmin, nutritionHandler.CreateNutritionPlan)
			nutrition.PUT("/:id", requireAuth, nutritionHandler.UpdateNutritionPlan)
			nutrition.DELETE("/:id", requireAuth, nutritionHandler.DeleteNutritionPlan)
		}

		blogs := v1.Group("/blogs")
		{
			blogs.GET("", optionalAuth, blogHandler.ListBlogPosts)
			blogs.GET("/:id", optionalAuth, blogHandler.GetBlogPost)
			blogs.POST("", requireAuth, requireAdmin, blogHandler.CreateBlogPost)
			blogs.PUT("/:id", requireAuth, blogHandler.UpdateBlogPost)
			blogs.DELETE("/:id", requireAuth, blogHandler.DeleteBlogPost)
		}

		community := v1.Group("/community")
		{
			community.GET("/feed", feedHandler.HandleConnection)
			community.GET("", optionalAuth, communityHandler.ListCommunityPosts)
			community.GET("/:id", optionalAuth, communityHandler.GetCommunityPost)
			community.POST("", requireAuth, communityHandler.CreateCommunityPost)
			community.PUT("/:id", requireAuth, communityHandler.UpdateCommunityPost)
			community.DELETE("/:id", requireAuth, communityHandler.DeleteCommunityPost)
		}

		progress := v1.Group("/progress")
		progress.Use(requireAuth)
		{
			progress.GET("", progressHandler.ListProgressLogs)
			progress.POST("", progressHandler.CreateProgressLog)
			progress.PUT("/:id", progressHandler.UpdateProgressLog)
			progress.DELETE("/:id", progressHandler.DeleteProgressLog)
		}

		users := v1.Group("/users")
		users.Use(requireAuth, requireAdmin)
		{
			users.GET("", userHandler.ListUsers)
			users.PUT("/:id/role", userHandler.UpdateUserRole)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		newsletter := v1.Group("/newsletter")
		{
			newsletter.POST("", newsletterHandler.Subscribe)
			newsletter.DELETE("", newsletterHandler.Unsubscribe)
		}

		media := v1.Group("/media")
		media.Use(requireAuth)
		{
			media.POST("/upload", mediaHandler.Upload)
			media.GET("/view", mediaHandler.View)
		}
	}
}
