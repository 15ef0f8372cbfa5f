package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the sync backend database
	DefaultDatabasePath = "./rustypages.db"

	// DefaultReaderStateDir holds the terminal reader's local database
	DefaultReaderStateDir = "./.rustypages"

	// ReaderDatabaseName is the local database file inside the reader state dir
	ReaderDatabaseName = "library.db"
)

// DefaultLocationChunkSize is the number of characters per EPUB location
const DefaultLocationChunkSize = 1024
