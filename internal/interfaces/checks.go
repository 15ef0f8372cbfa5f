package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/rustypages/internal/auth"
	"github.com/mrlokans/rustypages/internal/database"
	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/database/positions"
	dbsettings "github.com/mrlokans/rustypages/internal/database/settings"
	"github.com/mrlokans/rustypages/internal/database/users"
	"github.com/mrlokans/rustypages/internal/http"
	"github.com/mrlokans/rustypages/internal/persistence"
	"github.com/mrlokans/rustypages/internal/progress"
	"github.com/mrlokans/rustypages/internal/reader"
	"github.com/mrlokans/rustypages/internal/renderer/epub"
	"github.com/mrlokans/rustypages/internal/renderer/pdf"
	"github.com/mrlokans/rustypages/internal/scheduler"
	"github.com/mrlokans/rustypages/internal/services"
	"github.com/mrlokans/rustypages/internal/settings"
	"github.com/mrlokans/rustypages/internal/tasks"
	"github.com/mrlokans/rustypages/internal/tui"
)

// =============================================================================
// Content Renderers
// =============================================================================

var _ progress.Renderer = (*epub.Renderer)(nil)
var _ progress.Renderer = (*pdf.Renderer)(nil)

// Only the reflowable renderer repaginates on resize
var _ progress.Relayouter = (*epub.Renderer)(nil)

// =============================================================================
// Persistence Gateways
// =============================================================================

var _ progress.Gateway = (*persistence.DatabaseGateway)(nil)
var _ progress.Gateway = (*persistence.RemoteGateway)(nil)
var _ progress.Gateway = (*persistence.MirrorGateway)(nil)

var _ persistence.PositionStore = (*positions.Repository)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.PositionStore = (*positions.Repository)(nil)
var _ http.SettingsStore = (*settings.Store)(nil)
var _ http.Pinger = (*database.Database)(nil)

var _ settings.Repository = (*dbsettings.Repository)(nil)
var _ auth.UserRepository = (*users.Repository)(nil)
var _ services.BookStore = (*books.Repository)(nil)
var _ reader.Library = (*books.Repository)(nil)

// =============================================================================
// Locations Generation
// =============================================================================

var _ http.LocationQueue = (*tasks.Client)(nil)
var _ http.LocationGenerator = (*services.LocationService)(nil)
var _ tasks.LocationGenerator = (*services.LocationService)(nil)
var _ scheduler.Sweeper = (*tasks.Client)(nil)

// =============================================================================
// Terminal Reader
// =============================================================================

var _ tui.Session = (*reader.Controller)(nil)
var _ progress.Listener = (*tui.Display)(nil)
