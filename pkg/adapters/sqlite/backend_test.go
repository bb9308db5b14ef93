package sqlite_test

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tabnotes/pkg/adapters/sqlite"
	"github.com/aretw0/tabnotes/pkg/core"
)

func openBackend(t *testing.T, path string) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.New(sqlite.Config{Path: path, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_GetSet(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t, filepath.Join(t.TempDir(), "notes.db"))

	_, found, err := b.Get(ctx, "local:notes")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Set(ctx, "local:notes", []byte("one")))
	require.NoError(t, b.Set(ctx, "local:notes", []byte("two")))

	got, found, err := b.Get(ctx, "local:notes")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", string(got))
}

func TestBackend_RejectsBadKeys(t *testing.T) {
	b := openBackend(t, filepath.Join(t.TempDir(), "notes.db"))

	err := b.Set(context.Background(), "managed:x", []byte("x"))
	assert.ErrorIs(t, err, core.ErrUnsupportedArea)

	_, err = b.Watch("no-area", func(core.Change) {})
	assert.ErrorIs(t, err, core.ErrInvalidKey)
}

func TestBackend_WatchSeesOtherConnection(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.db")
	reader := openBackend(t, path)
	writer := openBackend(t, path)

	var mu sync.Mutex
	var got []core.Change
	unwatch, err := reader.Watch("local:notes", func(c core.Change) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
	})
	require.NoError(t, err)
	defer unwatch()

	require.NoError(t, writer.Set(ctx, "local:notes", []byte(`{"1":{}}`)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Nil(t, got[0].OldValue)
	assert.Equal(t, `{"1":{}}`, string(got[0].NewValue))
	mu.Unlock()

	// Rewriting the same bytes bumps the version but is not a change.
	require.NoError(t, writer.Set(ctx, "local:notes", []byte(`{"1":{}}`)))
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	assert.Len(t, got, 1)
	mu.Unlock()
}

func TestBackend_PollNeverGoesBackwards(t *testing.T) {
	ctx := context.Background()
	b, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "notes.db"), PollInterval: time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	var (
		mu      sync.Mutex
		highest = -1
		stale   []int
	)
	unwatch, err := b.Watch("local:counter", func(c core.Change) {
		n, err := strconv.Atoi(string(c.NewValue))
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if n < highest {
			stale = append(stale, n)
			return
		}
		highest = n
	})
	require.NoError(t, err)
	defer unwatch()

	const writes = 300
	for i := 0; i < writes; i++ {
		require.NoError(t, b.Set(ctx, "local:counter", []byte(strconv.Itoa(i))))
	}
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, stale)
	assert.Equal(t, writes-1, highest)
}

func TestBackend_Close(t *testing.T) {
	b, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "notes.db")})
	require.NoError(t, err)

	_, err = b.Watch("local:notes", func(core.Change) {})
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Set(context.Background(), "local:notes", nil), core.ErrClosed)
	assert.True(t, b.State().(sqlite.BackendState).Closed)
}
