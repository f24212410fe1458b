package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	assert.Zero(t, AddRequests(context.Background()), "no counters without Set")

	ctx := Set(context.Background())
	before := m.requests.Value()
	assert.Equal(t, before+1, AddRequests(ctx))
	assert.Equal(t, before+2, AddRequests(ctx))

	errs := m.errors.Value()
	assert.Equal(t, errs+1, AddErrors(ctx))

	panics := m.panics.Value()
	assert.Equal(t, panics+1, AddPanics(ctx))

	generated := m.generated.Value()
	assert.Equal(t, generated+1, AddGenerated(ctx))

	assert.Positive(t, AddGoroutines(ctx))
}
