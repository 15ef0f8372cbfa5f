package services

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/database"
	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/renderer/epub/epubtest"
)

func setupService(t *testing.T) (*LocationService, *books.Repository, *locations.Cache) {
	t.Helper()
	dbPath := "./test_services_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	repo := books.NewRepository(db.DB)
	cache, err := locations.NewCache(8)
	require.NoError(t, err)
	return NewLocationService(repo, cache, 100, zap.NewNop()), repo, cache
}

func addEPUB(t *testing.T, repo *books.Repository, userID uint, id string, chapters ...string) {
	t.Helper()
	_, err := repo.SaveBook(userID, &entities.Book{
		BookID: id,
		Title:  id,
		Format: entities.BookFormatEPUB,
		Data:   epubtest.Build("Book", chapters...),
	})
	require.NoError(t, err)
}

func TestLocationService_Generate(t *testing.T) {
	svc, repo, cache := setupService(t)
	addEPUB(t, repo, 1, "novel", strings.Repeat("a", 250), strings.Repeat("b", 100))

	ix, err := svc.Generate(context.Background(), 1, "novel")
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Total)
	assert.Equal(t, 1, cache.Len())

	stored, err := repo.GetBook(1, "novel")
	require.NoError(t, err)
	assert.True(t, stored.HasLocations())
	assert.Equal(t, 2, stored.TotalUnits)

	loaded, err := locations.Load([]byte(stored.Locations))
	require.NoError(t, err)
	assert.Equal(t, ix, loaded)
}

func TestLocationService_GenerateReusesIdenticalContent(t *testing.T) {
	svc, repo, _ := setupService(t)
	addEPUB(t, repo, 1, "copy-a", "same text")
	addEPUB(t, repo, 2, "copy-b", "same text")

	first, err := svc.Generate(context.Background(), 1, "copy-a")
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), 2, "copy-b")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLocationService_GenerateRejectsPDF(t *testing.T) {
	svc, repo, _ := setupService(t)
	_, err := repo.SaveBook(1, &entities.Book{BookID: "doc", Title: "Doc", Format: entities.BookFormatPDF, Data: []byte("%PDF-1.4")})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), 1, "doc")
	assert.ErrorIs(t, err, ErrNotReflowable)

	_, err = svc.Generate(context.Background(), 1, "missing")
	assert.ErrorIs(t, err, books.ErrBookNotFound)
}

func TestLocationService_GenerateMissing(t *testing.T) {
	svc, repo, _ := setupService(t)
	addEPUB(t, repo, 1, "good", "some text")
	_, err := repo.SaveBook(1, &entities.Book{BookID: "broken", Title: "Broken", Format: entities.BookFormatEPUB, Data: []byte("not a zip")})
	require.NoError(t, err)

	result, err := svc.GenerateMissing(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, GenerateResult{Total: 2, Generated: 1, Failed: 1}, result)

	stored, err := repo.GetBook(1, "good")
	require.NoError(t, err)
	assert.True(t, stored.HasLocations())
}
