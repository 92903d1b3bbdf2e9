package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/Mayank9056-MM/social-post-application/internal/config"
	"github.com/Mayank9056-MM/social-post-application/internal/database"
	"github.com/Mayank9056-MM/social-post-application/internal/handlers"
	"github.com/Mayank9056-MM/social-post-application/internal/logging"
	"github.com/Mayank9056-MM/social-post-application/internal/media"
	"github.com/Mayank9056-MM/social-post-application/internal/middleware"
	"github.com/Mayank9056-MM/social-post-application/internal/monitoring"
	"github.com/Mayank9056-MM/social-post-application/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.NewDefault(false).Error(ctx, "invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logging.NewDefault(cfg.IsProduction())

	db, err := database.New(cfg)
	if err != nil {
		log.Error(ctx, "database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.CreateTables(db); err != nil {
		log.Error(ctx, "schema setup failed", "error", err)
		os.Exit(1)
	}

	mediaStore, err := media.NewS3Store(ctx, cfg)
	if err != nil {
		log.Error(ctx, "media store setup failed", "error", err)
		os.Exit(1)
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	monitor := monitoring.NewService(db, time.Now())
	api := handlers.New(db, mediaStore, tokens, log, monitor, cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(log))
	router.Use(monitor.RequestMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Origin"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", api.HealthCheck)
	router.GET("/api/status", api.Status)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Stop()
	v1 := router.Group("/api/v1", limiter.Middleware())

	users := v1.Group("/users")
	users.POST("/register", api.Register)
	users.POST("/login", api.Login)
	users.POST("/logout", middleware.Auth(tokens), api.Logout)
	users.GET("/profile", middleware.Auth(tokens), api.Profile)

	posts := v1.Group("/posts", middleware.Auth(tokens))
	posts.POST("/create", api.CreatePost)
	posts.PATCH("/update/:postId", api.UpdatePost)
	posts.DELETE("/delete/:postId", api.DeletePost)
	posts.GET("/all-posts", api.GetAllPosts)
	posts.POST("/add-comment/:postId", api.AddComment)
	posts.PATCH("/toggle-like/:postId", api.ToggleLike)

	monitor1 := v1.Group("/monitor")
	monitor1.GET("/snapshot", api.MonitorSnapshot)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  http.StatusNotFound,
			"message": "Route not found",
			"error":   "Route not found",
		})
	})

	log.Info(ctx, "starting server", "addr", cfg.HTTPAddr, "env", cfg.Environment)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Error(ctx, "server failed", "error", err)
		os.Exit(1)
	}
}
