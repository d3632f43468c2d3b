package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/site"
)

func testResult(incremental bool, started time.Time) *site.Result {
	return &site.Result{
		ID:            uuid.NewString(),
		Status:        site.StatusSuccess,
		Incremental:   incremental,
		PagesTotal:    5,
		PagesRendered: 3,
		ChangedURLs:   []string{"/", "/posts/hello/"},
		StartTime:     started,
		Duration:      120 * time.Millisecond,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	first := testResult(false, time.Now().Add(-time.Minute))
	second := testResult(true, time.Now())
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	require.Equal(t, second.ID, entries[0].ID)
	require.True(t, entries[0].Incremental)
	require.Equal(t, site.StatusSuccess, entries[0].Status)
	require.Equal(t, []string{"/", "/posts/hello/"}, entries[0].ChangedURLs)
	require.Equal(t, 120*time.Millisecond, entries[0].Duration)
	require.Equal(t, first.ID, entries[1].ID)
}

func TestStore_RecentHonorsLimit(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, testResult(false, time.Now().Add(time.Duration(i)*time.Second))))
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	res := testResult(false, time.Now())
	require.NoError(t, s.Record(ctx, res))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, res.ID, entries[0].ID)
}
