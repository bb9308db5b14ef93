package memory_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tabnotes/pkg/adapters/memory"
	"github.com/aretw0/tabnotes/pkg/core"
)

func TestBackend_GetSet(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	_, found, err := b.Get(ctx, "local:notes")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Set(ctx, "local:notes", []byte(`{}`)))
	v, found, err := b.Get(ctx, "local:notes")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{}`), v)
}

func TestBackend_RejectsBadKeys(t *testing.T) {
	b := memory.New()
	err := b.Set(context.Background(), "notes", []byte("x"))
	assert.ErrorIs(t, err, core.ErrInvalidKey)

	_, err = b.Watch("sync:notes", func(core.Change) {})
	assert.ErrorIs(t, err, core.ErrUnsupportedArea)
}

func TestBackend_WatchReportsOldAndNew(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	require.NoError(t, b.Set(ctx, "local:notes", []byte("v1")))

	var changes []core.Change
	unwatch, err := b.Watch("local:notes", func(c core.Change) { changes = append(changes, c) })
	require.NoError(t, err)

	require.NoError(t, b.Set(ctx, "local:notes", []byte("v2")))
	require.NoError(t, b.Set(ctx, "local:notes", []byte("v2")))
	unwatch()
	unwatch()
	require.NoError(t, b.Set(ctx, "local:notes", []byte("v3")))

	require.Len(t, changes, 1)
	assert.Equal(t, []byte("v1"), changes[0].OldValue)
	assert.Equal(t, []byte("v2"), changes[0].NewValue)
}

func TestBackend_WatchEndsOnStoredValue(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	var (
		mu   sync.Mutex
		last []byte
	)
	unwatch, err := b.Watch("local:notes", func(c core.Change) {
		mu.Lock()
		last = c.NewValue
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unwatch()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = b.Set(ctx, "local:notes", []byte(strconv.Itoa(w*1000+i)))
			}
		}(w)
	}
	wg.Wait()

	stored, found, err := b.Get(ctx, "local:notes")
	require.NoError(t, err)
	require.True(t, found)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, string(stored), string(last))
}

func TestBackend_Closed(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Set(ctx, "local:notes", nil), core.ErrClosed)
	_, _, err := b.Get(ctx, "local:notes")
	assert.ErrorIs(t, err, core.ErrClosed)

	state := b.State().(memory.BackendState)
	assert.True(t, state.Closed)
}
