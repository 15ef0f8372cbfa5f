package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureTransport {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.Middleware())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Next()
		})
	}

	// Logged after auth so the user id is known
	router.Use(RequestLogger(log))

	// Health endpoints
	health := NewHealthController(nil, cfg.Version)
	if cfg.Database != nil {
		health = NewHealthController(cfg.Database, cfg.Version)
	}
	for name, check := range cfg.HealthChecks {
		health.AddCheck(name, check)
	}
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Register auth routes if auth service is available
	if cfg.AuthService != nil {
		authController := auth.NewAuthController(cfg.AuthService, log)
		router.POST("/api/register", authController.Register)
		router.POST("/api/login", authController.Login)
	}

	// Books API endpoints
	if cfg.Books != nil {
		booksController := NewBooksController(cfg.Books, cfg.LocationQueue, log)
		router.GET("/api/books", booksController.ListBooks)
		router.POST("/api/books", booksController.SaveBook)
		router.GET("/api/books/:id", booksController.GetBook)
		router.PUT("/api/books/:id", booksController.UpdateBook)
		router.DELETE("/api/books/:id", booksController.DeleteBook)
		router.POST("/api/sync", booksController.Sync)

		locationsController := NewLocationsController(cfg.Books, cfg.LocationQueue, cfg.LocationGenerator, log)
		router.GET("/api/books/:id/locations", locationsController.GetLocations)
		router.POST("/api/books/:id/locations", locationsController.GenerateLocations)
	}

	// Reading positions
	if cfg.Positions != nil {
		positionsController := NewPositionsController(cfg.Positions, log)
		router.GET("/api/books/:id/position", positionsController.GetPosition)
		router.PUT("/api/books/:id/position", positionsController.PutPosition)
		router.GET("/api/positions", positionsController.ListPositions)
	}

	// Reader settings
	if cfg.Settings != nil {
		settingsController := NewSettingsController(cfg.Settings, log)
		router.GET("/api/settings", settingsController.GetSettings)
		router.PUT("/api/settings", settingsController.UpdateSettings)
		router.DELETE("/api/settings", settingsController.ResetSettings)
	}

	return router
}
