package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/auth"
	"github.com/mrlokans/rustypages/internal/config"
	"github.com/mrlokans/rustypages/internal/database"
	"github.com/mrlokans/rustypages/internal/database/books"
	"github.com/mrlokans/rustypages/internal/database/positions"
	dbsettings "github.com/mrlokans/rustypages/internal/database/settings"
	"github.com/mrlokans/rustypages/internal/logging"
	"github.com/mrlokans/rustypages/internal/persistence"
	"github.com/mrlokans/rustypages/internal/progress"
	"github.com/mrlokans/rustypages/internal/reader"
	"github.com/mrlokans/rustypages/internal/settings"
	"github.com/mrlokans/rustypages/internal/tui"
)

const deviceIDFile = "device_id"

// RunReader opens the book at path in the terminal reader. Positions are
// stored in the local state directory and, when a sync URL is configured,
// mirrored to the backend.
func RunReader(cfg *config.Config, path string) error {
	if err := os.MkdirAll(cfg.Reader.StateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	log := logging.NewFileOnly(cfg.Log)
	defer func() { _ = log.Sync() }()

	deviceID, err := loadDeviceID(cfg.Reader.StateDir)
	if err != nil {
		return err
	}
	log = log.With(zap.String("device_id", deviceID))

	db, err := database.NewDatabase(filepath.Join(cfg.Reader.StateDir, config.ReaderDatabaseName), log)
	if err != nil {
		return fmt.Errorf("failed to open local library: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("error closing database", zap.Error(err))
		}
	}()

	appearance, err := settings.New(dbsettings.NewRepository(db.DB)).Get(auth.DefaultUserID)
	if err != nil {
		log.Warn("using default settings", zap.Error(err))
		appearance = settings.Defaults()
	}

	var gateway progress.Gateway = persistence.NewDatabaseGateway(positions.NewRepository(db.DB), auth.DefaultUserID)
	var mirror *persistence.MirrorGateway
	if cfg.Reader.SyncURL != "" {
		remote := persistence.NewRemoteGateway(cfg.Reader.SyncURL, cfg.Reader.SyncToken, log,
			persistence.WithRetry(uint(max(cfg.Reader.SyncMaxTry, 1)), 500*time.Millisecond))
		mirror = persistence.NewMirrorGateway(gateway, remote, log)
		gateway = mirror
		log.Info("mirroring positions", zap.String("url", cfg.Reader.SyncURL))
	}

	display := &tui.Display{}
	controller := reader.New(books.NewRepository(db.DB), gateway,
		reader.WithListener(display),
		reader.WithLogger(log),
		reader.WithAckGrace(cfg.Reader.AckGrace),
		reader.WithChunkSize(cfg.Locations.ChunkSize),
		reader.WithErrorHandler(func(err error) {
			log.Warn("reader error", zap.Error(err))
		}),
	)

	ctx := context.Background()
	book, err := controller.Open(ctx, path)
	if err != nil {
		return err
	}
	log.Info("opened book", zap.String("book_id", book.BookID), zap.String("format", string(book.Format)))

	program := tea.NewProgram(tui.NewModel(controller, book.Title, tui.NewTheme(appearance)), tea.WithAltScreen())
	display.Bind(program.Send)

	_, runErr := program.Run()

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	closeErr := controller.Close(closeCtx)
	if mirror != nil {
		mirror.Wait()
	}
	return errors.Join(runErr, closeErr)
}

// loadDeviceID returns the id of this installation, creating it on first use.
func loadDeviceID(dir string) (string, error) {
	path := filepath.Join(dir, deviceIDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if id, parseErr := uuid.Parse(strings.TrimSpace(string(data))); parseErr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to write device id: %w", err)
	}
	return id, nil
}
