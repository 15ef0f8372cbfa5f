// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and see how to implement new functionality.
//
// # Interface Categories
//
// ## Reading Core
//
//   - Renderer: Content engine driven by the tracker (internal/progress/renderer.go)
//   - Relayouter: Optional resize hook for reflowable engines (internal/progress/renderer.go)
//   - Gateway: Reading position persistence (internal/progress/gateway.go)
//   - Listener: Page and percent display updates (internal/progress/gateway.go)
//
// ## Data Access Interfaces
//
//   - BookStore, PositionStore, SettingsStore: HTTP controller storage (internal/http/stores.go)
//   - PositionStore: Storage behind the local gateway (internal/persistence/database.go)
//   - BookStore: Book access for locations generation (internal/services/interfaces.go)
//   - Library: Books recorded by the terminal reader (internal/reader/controller.go)
//   - UserRepository: Accounts (internal/auth/service.go)
//
// ## Background Work
//
//   - LocationQueue, LocationGenerator: Scheduling index generation (internal/http/stores.go)
//   - LocationGenerator: Work run by task queues (internal/tasks/locations.go)
//   - Sweeper: Periodic missing-index runs (internal/scheduler/locations_sweep.go)
//
// ## Terminal Reader
//
//   - Session: What the bubbletea model drives (internal/tui/model.go)
//
// # Adding a New Content Format
//
// To support a new format (e.g., a plain text engine):
//
//  1. Create a renderer in internal/renderer/<format>/
//
//     type Renderer struct {
//         pages []string
//         page  int
//     }
//
//     func (r *Renderer) Display(ctx context.Context, loc progress.Locator) (progress.Location, error)
//     func (r *Renderer) DisplayUnit(ctx context.Context, pageIndex int) (progress.Location, error)
//     func (r *Renderer) Step(ctx context.Context, dir progress.Direction) (progress.Location, error)
//     func (r *Renderer) ResolvePercent(percent float64) (progress.Locator, bool)
//     func (r *Renderer) ResolveLocator(loc progress.Locator) (float64, bool)
//     func (r *Renderer) TotalUnits() int
//
//     var _ progress.Renderer = (*Renderer)(nil)
//
//  2. Add a format tag to entities.BookFormat and a case to renderer.Open
//
//  3. Teach renderer.DetectFormat its magic bytes or extension
//
// # Adding a New Persistence Gateway
//
// To store positions somewhere else:
//
//  1. Implement Gateway in internal/persistence/
//
//     func (g *FileGateway) Save(ctx context.Context, bookID string, loc progress.Locator, pageIndex int) error
//     func (g *FileGateway) Load(ctx context.Context, bookID string) (progress.SavedPosition, error)
//
//     Load must return progress.ErrNotFound when nothing is stored.
//
//  2. Add a compile-time check to checks.go
//
//  3. Configure in internal/entrypoint/reader.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
