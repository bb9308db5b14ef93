package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tabnotes/pkg/adapters/memory"
	"github.com/aretw0/tabnotes/pkg/core"
	"github.com/aretw0/tabnotes/pkg/notes"
)

func TestSource_EmitsStoreChanges(t *testing.T) {
	store, err := notes.New(memory.New(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewSource(store, nil)
	require.NoError(t, src.Start(ctx))

	require.NoError(t, store.Replace(ctx, core.Notes{1_000: {Title: "a", TimeLastModified: 1_000}}))
	require.NoError(t, store.Replace(ctx, core.Notes{1_000: {Title: "b", TimeLastModified: 2_000}}))

	want := []core.Event{
		{Type: core.EventCreate, ID: 1_000, Timestamp: 1_000},
		{Type: core.EventModify, ID: 1_000, Timestamp: 2_000},
	}
	for _, w := range want {
		select {
		case e := <-src.Events():
			assert.Equal(t, w, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("missing event %s", w)
		}
	}
}

func TestSource_ClosesOnCancel(t *testing.T) {
	store, err := notes.New(memory.New(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	src := NewSource(store, nil)
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel was not closed")
	}

	assert.Equal(t, 0, store.State().(notes.StoreState).Subscribers)
}

func TestSource_SubscribeError(t *testing.T) {
	backend := memory.New()
	store, err := notes.New(backend, "")
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	err = NewSource(store, nil).Start(context.Background())
	assert.Error(t, err)
}
