package settings

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/database"
	dbsettings "github.com/mrlokans/rustypages/internal/database/settings"
	"github.com/mrlokans/rustypages/internal/entities"
)

func setupStore(t *testing.T, env map[string]string) *Store {
	t.Helper()
	dbPath := "./test_settings_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	store := New(dbsettings.NewRepository(db.DB))
	store.getenv = func(key string) string { return env[key] }
	return store
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(entities.SettingKeyTheme, "sepia"))
	assert.NoError(t, Validate(entities.SettingKeyFont, "dyslexic"))
	assert.ErrorIs(t, Validate(entities.SettingKeyTheme, "neon"), ErrInvalidValue)
	assert.ErrorIs(t, Validate("line_height", "1.5"), ErrInvalidValue)

	assert.NoError(t, Defaults().Validate())
	bad := Defaults()
	bad.Margin = "huge"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidValue)
}

func TestStore_Get(t *testing.T) {
	t.Run("returns defaults when nothing is set", func(t *testing.T) {
		store := setupStore(t, nil)

		got, err := store.Get(1)
		require.NoError(t, err)
		assert.Equal(t, Defaults(), got)
	})

	t.Run("environment overrides default", func(t *testing.T) {
		store := setupStore(t, map[string]string{"READER_THEME": "dark", "READER_FONT": "comic"})

		info, err := store.Info(1)
		require.NoError(t, err)
		assert.Equal(t, "dark", info.Settings.Theme)
		assert.Equal(t, "environment", info.Sources[entities.SettingKeyTheme])
		assert.Equal(t, "serif", info.Settings.Font, "invalid environment values are ignored")
		assert.Equal(t, "default", info.Sources[entities.SettingKeyFont])
	})

	t.Run("database overrides environment", func(t *testing.T) {
		store := setupStore(t, map[string]string{"READER_THEME": "dark"})

		_, err := store.Update(1, map[string]string{entities.SettingKeyTheme: "sepia"})
		require.NoError(t, err)

		info, err := store.Info(1)
		require.NoError(t, err)
		assert.Equal(t, "sepia", info.Settings.Theme)
		assert.Equal(t, "database", info.Sources[entities.SettingKeyTheme])
	})
}

func TestStore_Update(t *testing.T) {
	store := setupStore(t, nil)

	got, err := store.Update(1, map[string]string{
		entities.SettingKeyFontSize: "large",
		entities.SettingKeyMargin:   "small",
	})
	require.NoError(t, err)
	assert.Equal(t, Reader{Theme: "light", Font: "serif", FontSize: "large", Margin: "small"}, got)

	_, err = store.Update(1, map[string]string{entities.SettingKeyTheme: "neon"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	other, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), other, "settings are per user")
}

func TestStore_Reset(t *testing.T) {
	store := setupStore(t, nil)

	_, err := store.Update(1, map[string]string{entities.SettingKeyTheme: "dark"})
	require.NoError(t, err)
	require.NoError(t, store.Reset(1))

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}
