package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/rustypages/internal/locations"
	"github.com/mrlokans/rustypages/internal/services"
)

type fakeGenerator struct {
	generated []string
	limit     int
	err       error
}

func (g *fakeGenerator) Generate(_ context.Context, userID uint, bookID string) (*locations.Index, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.generated = append(g.generated, bookID)
	return locations.Generate([]string{"text"}, 10), nil
}

func (g *fakeGenerator) GenerateMissing(_ context.Context, limit int) (services.GenerateResult, error) {
	g.limit = limit
	return services.GenerateResult{Total: 2, Generated: 2}, g.err
}

func TestGenerateLocationsProcessor(t *testing.T) {
	gen := &fakeGenerator{}
	process := GenerateLocationsProcessor(gen, nil)

	require.NoError(t, process(context.Background(), GenerateLocationsTask{UserID: 1, BookID: "novel"}))
	assert.Equal(t, []string{"novel"}, gen.generated)

	gen.err = errors.New("corrupt archive")
	err := process(context.Background(), GenerateLocationsTask{UserID: 1, BookID: "broken"})
	assert.ErrorContains(t, err, "broken")

	assert.Error(t, GenerateLocationsProcessor(nil, nil)(context.Background(), GenerateLocationsTask{}))
}

func TestGenerateMissingLocationsProcessor(t *testing.T) {
	gen := &fakeGenerator{}
	process := GenerateMissingLocationsProcessor(gen, nil)

	require.NoError(t, process(context.Background(), GenerateMissingLocationsTask{}))
	assert.Equal(t, DefaultSweepLimit, gen.limit)

	require.NoError(t, process(context.Background(), GenerateMissingLocationsTask{Limit: 5}))
	assert.Equal(t, 5, gen.limit)

	gen.err = errors.New("database locked")
	assert.Error(t, process(context.Background(), GenerateMissingLocationsTask{}))
}
