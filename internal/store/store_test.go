package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farklezone/farkle-client/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoginLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	login, err := s.LoadLogin(ctx)
	require.NoError(t, err)
	assert.Nil(t, login, "fresh store has no login")

	require.NoError(t, s.SaveLogin(ctx, Login{Username: "alice", Seed: "SEED1", Method: "keypair"}))
	login, err = s.LoadLogin(ctx)
	require.NoError(t, err)
	require.NotNil(t, login)
	assert.Equal(t, "alice", login.Username)

	// Saving again replaces, never duplicates.
	require.NoError(t, s.SaveLogin(ctx, Login{Username: "alice", Seed: "SEED2", Method: "keypair"}))
	login, err = s.LoadLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SEED2", login.Seed)

	require.NoError(t, s.ClearLogin(ctx))
	login, err = s.LoadLogin(ctx)
	require.NoError(t, err)
	assert.Nil(t, login)
}

func TestMatchHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, winner := range []domain.Player{"GSELF", "GRIVAL", "GSELF"} {
		require.NoError(t, s.RecordMatch(ctx, MatchRecord{
			MatchID:       "m-" + string(rune('a'+i)),
			Opponent:      "GRIVAL",
			Winner:        winner,
			SelfScore:     2000 + i,
			OpponentScore: 1500,
			FinishedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	records, err := s.ListMatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first, timestamps round-trip to the millisecond.
	assert.Equal(t, "m-c", records[0].MatchID)
	assert.Equal(t, base.Add(2*time.Hour), records[0].FinishedAt)
	assert.Equal(t, "m-b", records[1].MatchID)

	records, err = s.ListMatches(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
