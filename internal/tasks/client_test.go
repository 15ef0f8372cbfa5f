package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/config"
	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/services"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	// Start client in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop should complete successfully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// signalGenerator reports each generation on a channel, since it runs on a
// backlite worker.
type signalGenerator struct {
	done chan GenerateLocationsTask
}

func (g *signalGenerator) Generate(_ context.Context, userID uint, bookID string) (*locations.Index, error) {
	g.done <- GenerateLocationsTask{UserID: userID, BookID: bookID}
	return locations.Generate([]string{"text"}, 10), nil
}

func (g *signalGenerator) GenerateMissing(context.Context, int) (services.GenerateResult, error) {
	return services.GenerateResult{}, nil
}

func TestEnqueueLocations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	gen := &signalGenerator{done: make(chan GenerateLocationsTask, 1)}
	client.Register(NewGenerateLocationsQueue(gen, nil), NewGenerateMissingLocationsQueue(gen, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	require.NoError(t, client.EnqueueLocations(ctx, 7, "novel"))

	select {
	case task := <-gen.done:
		assert.Equal(t, GenerateLocationsTask{UserID: 7, BookID: "novel"}, task)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}

	assert.NoError(t, client.EnqueueSweep(ctx))
	assert.NoError(t, client.DB().Ping())
}

func TestGenerateLocationsTaskConfig(t *testing.T) {
	task := GenerateLocationsTask{UserID: 1, BookID: "novel"}
	cfg := task.Config()

	assert.Equal(t, "generate_locations", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestGenerateMissingLocationsTaskConfig(t *testing.T) {
	cfg := GenerateMissingLocationsTask{}.Config()

	assert.Equal(t, "generate_missing_locations", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 60*time.Minute, cfg.Timeout)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Tasks{Workers: 4, TaskTimeout: time.Minute})

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 3, cfg.MaxRetries, "unset values keep defaults")
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
}
