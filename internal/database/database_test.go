package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/rustypages/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_MigratesEntities(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, model := range []any{&entities.User{}, &entities.Book{}, &entities.ReadingPosition{}, &entities.Setting{}} {
		assert.True(t, db.DB.Migrator().HasTable(model), "%T", model)
	}
	assert.NoError(t, db.Ping())
}

func TestNewDatabase_BookIDUniquePerUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.DB.Create(&entities.Book{UserID: 1, BookID: "b1", Title: "One"}).Error)
	require.NoError(t, db.DB.Create(&entities.Book{UserID: 2, BookID: "b1", Title: "One"}).Error)
	assert.Error(t, db.DB.Create(&entities.Book{UserID: 1, BookID: "b1", Title: "Again"}).Error)
}

func TestDatabase_Close(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
