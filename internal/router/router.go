package router

import (
	"time"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/handlers"
	lcmiddleware "linkcard/backend/internal/middleware"
	"linkcard/backend/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter wires middleware and routes onto a new gin engine.
func SetupRouter(log *zap.Logger, h *handlers.Handler) (*gin.Engine, error) {
	router := gin.New()

	router.Use(lcmiddleware.Metrics())
	router.Use(lcmiddleware.GinZap(log, time.RFC3339, true))
	router.Use(lcmiddleware.GinRecovery(log, true))
	if len(config.Cfg.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(config.Cfg.AllowedOrigins))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthcheck", h.HealthCheckHandler)

	rate := config.Cfg.AuthRateLimit
	if rate == "" {
		rate = config.DefaultAuthRateLimit
	}
	authLimit, err := lcmiddleware.RateLimiter(rate)
	if err != nil {
		return nil, err
	}
	setupAuthRoutes(router, h, authLimit)
	setupUserRoutes(router, h)
	setupUploadRoutes(router, h)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func setupAuthRoutes(r *gin.Engine, h *handlers.Handler, limit gin.HandlerFunc) {
	r.POST("/register", limit, h.RegisterHandler)
	r.POST("/login", limit, h.LoginHandler)
	r.POST("/logout", h.LogoutHandler)

	password := r.Group("/password", limit)
	{
		password.POST("/forgot", h.ForgotPasswordHandler)
		password.POST("/reset/:token", h.ResetPasswordHandler)
	}
}

func setupUserRoutes(r *gin.Engine, h *handlers.Handler) {
	users := r.Group("/user")
	{
		users.GET("/profile", auth.AuthMiddleware(), h.GetCurrentUserHandler)
		users.GET("/:username", h.GetUserHandler)
		users.GET("/:username/qr", h.GetUserQRCodeHandler)
		users.PATCH("/:username", auth.AuthMiddleware(), h.UpdateUserHandler)
		users.DELETE("/:username", auth.AuthMiddleware(), h.DeleteUserHandler)
	}
}

// Upload limits run ahead of auth so malformed uploads are rejected the same
// way for every caller.
func setupUploadRoutes(r *gin.Engine, h *handlers.Handler) {
	r.POST("/upload-avatar", lcmiddleware.UploadLimit(), auth.AuthMiddleware(), h.UploadAvatarHandler)
	r.POST("/upload-background", lcmiddleware.UploadLimit(), auth.AuthMiddleware(), h.UploadBackgroundHandler)
}
