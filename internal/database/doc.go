// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── books/           # Library entries, content and location indexes
//	├── positions/       # Reading positions
//	├── settings/        # Per-user reader settings
//	└── users/           # User accounts
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./rustypages.db", logger)
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db.DB)
//	positionsRepo := positions.NewRepository(db.DB)
//
//	// Use repositories
//	book, err := booksRepo.GetBook(userID, "moby-dick")
//	err = positionsRepo.Upsert(userID, "moby-dick", "epubcfi(/6/4!/4:0)", 2)
//
// # Interface Implementations
//
//   - books.Repository: implements http.BookStore and tasks.LocationStore
//   - positions.Repository: implements http.PositionStore and persistence.PositionStore
//   - settings.Repository: implements settings.Store
//
// The terminal reader opens its own database file with the same migrations
// and uses the repositories with auth.DefaultUserID.
package database
