package settings

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/rustypages/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_settings_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Setting{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_SetSetting_New(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting(1, "theme", "dark")
	require.NoError(t, err)

	setting, err := repo.GetSetting(1, "theme")
	require.NoError(t, err)
	assert.Equal(t, "theme", setting.Key)
	assert.Equal(t, "dark", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Set initial value
	err := repo.SetSetting(1, "theme", "light")
	require.NoError(t, err)

	// Update value
	err = repo.SetSetting(1, "theme", "sepia")
	require.NoError(t, err)

	setting, err := repo.GetSetting(1, "theme")
	require.NoError(t, err)
	assert.Equal(t, "sepia", setting.Value)
}

func TestRepository_SettingsArePerUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(1, "theme", "dark"))
	require.NoError(t, repo.SetSetting(2, "theme", "sepia"))

	one, err := repo.GetSettings(1)
	require.NoError(t, err)
	two, err := repo.GetSettings(2)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"theme": "dark"}, one)
	assert.Equal(t, map[string]string{"theme": "sepia"}, two)
}

func TestRepository_SetSettings(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSettings(1, map[string]string{"theme": "dark", "font": "serif"}))

	values, err := repo.GetSettings(1)
	require.NoError(t, err)
	assert.Equal(t, "dark", values["theme"])
	assert.Equal(t, "serif", values["font"])
}

func TestRepository_DeleteSetting(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting(1, "theme", "dark"))
	require.NoError(t, repo.DeleteSetting(1, "theme"))

	_, err := repo.GetSetting(1, "theme")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
