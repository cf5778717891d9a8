package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextWithoutIDs(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotNil(t, log)
}

func TestWithSessionAndMatchID(t *testing.T) {
	ctx := WithSessionID(context.Background(), GenerateSessionID())
	ctx = WithMatchID(ctx, "GALICE|GBOB")

	// Attribute wiring is structural; just ensure a logger comes back and
	// the IDs survive the context round trip.
	assert.NotNil(t, FromContext(ctx))
	assert.Equal(t, "GALICE|GBOB", ctx.Value(matchIDKey))
}
