package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/auth"
	"github.com/mrlokans/rustypages/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	Books     BookStore
	Positions PositionStore
	Settings  SettingsStore

	// Location indexes. Queue is preferred; Generator runs inline when
	// no queue is configured. Both may be nil.
	LocationQueue     LocationQueue
	LocationGenerator LocationGenerator

	// Extra health checks, e.g. the task queue database
	HealthChecks map[string]Pinger

	// Authentication. When AuthService is nil every request acts as
	// auth.DefaultUserID.
	AuthService     *auth.Service
	AuthMiddleware  *auth.Middleware
	RateLimiter     *auth.RateLimiter
	SecureTransport bool

	// Application info
	Version string

	Log *zap.Logger
}
