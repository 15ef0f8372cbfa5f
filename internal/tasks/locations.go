package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/services"
)

// LocationGenerator builds location indexes. Implemented by
// services.LocationService.
type LocationGenerator interface {
	Generate(ctx context.Context, userID uint, bookID string) (*locations.Index, error)
	GenerateMissing(ctx context.Context, limit int) (services.GenerateResult, error)
}

// GenerateLocationsTask builds the location index of one uploaded EPUB.
type GenerateLocationsTask struct {
	UserID uint   `json:"user_id"`
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for location generation tasks.
func (t GenerateLocationsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "generate_locations",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// GenerateLocationsProcessor creates a processor function for GenerateLocationsTask.
func GenerateLocationsProcessor(gen LocationGenerator, log *zap.Logger) backlite.QueueProcessor[GenerateLocationsTask] {
	log = nopIfNil(log)
	return func(ctx context.Context, task GenerateLocationsTask) error {
		if gen == nil {
			return fmt.Errorf("location generator not configured")
		}

		ix, err := gen.Generate(ctx, task.UserID, task.BookID)
		if err != nil {
			return fmt.Errorf("generate locations for %s: %w", task.BookID, err)
		}

		log.Info("generated location index",
			zap.Uint("user_id", task.UserID),
			zap.String("book_id", task.BookID),
			zap.Int("locations", ix.Total))
		return nil
	}
}

// NewGenerateLocationsQueue creates a backlite queue for location generation tasks.
func NewGenerateLocationsQueue(gen LocationGenerator, log *zap.Logger) backlite.Queue {
	return backlite.NewQueue(GenerateLocationsProcessor(gen, log))
}

// GenerateMissingLocationsTask builds indexes for every EPUB still missing one.
type GenerateMissingLocationsTask struct {
	Limit int `json:"limit,omitempty"`
}

// Config returns the queue configuration for the missing-locations sweep.
func (t GenerateMissingLocationsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "generate_missing_locations",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     60 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DefaultSweepLimit bounds one sweep when the task does not set a limit.
const DefaultSweepLimit = 100

// GenerateMissingLocationsProcessor creates a processor function for GenerateMissingLocationsTask.
func GenerateMissingLocationsProcessor(gen LocationGenerator, log *zap.Logger) backlite.QueueProcessor[GenerateMissingLocationsTask] {
	log = nopIfNil(log)
	return func(ctx context.Context, task GenerateMissingLocationsTask) error {
		if gen == nil {
			return fmt.Errorf("location generator not configured")
		}

		limit := task.Limit
		if limit <= 0 {
			limit = DefaultSweepLimit
		}
		result, err := gen.GenerateMissing(ctx, limit)
		if err != nil {
			return fmt.Errorf("generate missing locations: %w", err)
		}

		log.Info("location sweep complete",
			zap.Int("total", result.Total),
			zap.Int("generated", result.Generated),
			zap.Int("failed", result.Failed))
		return nil
	}
}

// NewGenerateMissingLocationsQueue creates a backlite queue for location sweeps.
func NewGenerateMissingLocationsQueue(gen LocationGenerator, log *zap.Logger) backlite.Queue {
	return backlite.NewQueue(GenerateMissingLocationsProcessor(gen, log))
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
