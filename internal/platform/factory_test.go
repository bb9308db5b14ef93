package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tabnotes/pkg/adapters/fs"
	"github.com/aretw0/tabnotes/pkg/adapters/memory"
	"github.com/aretw0/tabnotes/pkg/adapters/sqlite"
	"github.com/aretw0/tabnotes/pkg/core"
)

func openStack(t *testing.T, opts ...Option) *Stack {
	t.Helper()
	stack, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Close() })
	return stack
}

func TestNew_Adapters(t *testing.T) {
	tests := []struct {
		adapter string
		check   func(t *testing.T, stack *Stack, local core.Backend)
	}{
		{
			adapter: AdapterFS,
			check: func(t *testing.T, stack *Stack, local core.Backend) {
				assert.IsType(t, &fs.Backend{}, local)
				assert.DirExists(t, filepath.Join(DataDir(stack.Root), "local"))
			},
		},
		{
			adapter: AdapterSQLite,
			check: func(t *testing.T, stack *Stack, local core.Backend) {
				assert.IsType(t, &sqlite.Backend{}, local)
				assert.FileExists(t, filepath.Join(DataDir(stack.Root), databaseFile))
			},
		},
		{
			adapter: AdapterMemory,
			check: func(t *testing.T, stack *Stack, local core.Backend) {
				assert.IsType(t, &memory.Backend{}, local)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.adapter, func(t *testing.T) {
			stack := openStack(t, WithAdapter(tt.adapter))
			assert.Equal(t, tt.adapter, stack.Adapter)

			local, ok := stack.Backend.Backend(core.AreaLocal)
			require.True(t, ok)
			tt.check(t, stack, local)

			session, ok := stack.Backend.Backend(core.AreaSession)
			require.True(t, ok)
			assert.IsType(t, &memory.Backend{}, session)

			ctx := context.Background()
			id, store, err := stack.Service.NewNote(ctx, core.Notes{})
			require.NoError(t, err)
			loaded, err := stack.Store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, store, loaded)
			assert.Contains(t, loaded, id)
		})
	}
}

func TestNew_UnknownAdapter(t *testing.T) {
	_, err := New(t.TempDir(), WithAdapter("s3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter")
}

func TestNew_InjectedBackend(t *testing.T) {
	shared := memory.New()
	a := openStack(t, WithBackend(shared))
	b := openStack(t, WithBackend(shared))
	assert.Equal(t, "custom", a.Adapter)

	ctx := context.Background()
	_, written, err := a.Service.NewNote(ctx, core.Notes{})
	require.NoError(t, err)

	seen, err := b.Store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, written, seen)
}

func TestNew_StoreKey(t *testing.T) {
	stack := openStack(t, WithAdapter(AdapterMemory), WithStoreKey("session:scratch"))
	assert.Equal(t, "session:scratch", stack.Store.Key())

	_, err := New(t.TempDir(), WithAdapter(AdapterMemory), WithStoreKey("sync:notes"))
	assert.ErrorIs(t, err, core.ErrUnsupportedArea)
}

func TestNew_MustExist(t *testing.T) {
	root := t.TempDir()
	_, err := New(root, WithMustExist(true))
	require.Error(t, err)

	require.NoError(t, os.Mkdir(DataDir(root), 0755))
	stack, err := New(root, WithMustExist(true))
	require.NoError(t, err)
	require.NoError(t, stack.Close())
}

func TestNew_WatchAcrossStacks(t *testing.T) {
	root := t.TempDir()
	opts := []Option{WithEventBuffer(10 * time.Millisecond)}

	a, err := New(root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	b, err := New(root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	got := make(chan core.Notes, 4)
	unsubscribe, err := a.Store.Subscribe(func(newStore, _ core.Notes) { got <- newStore })
	require.NoError(t, err)
	defer unsubscribe()

	ctx := context.Background()
	_, written, err := b.Service.NewNote(ctx, core.Notes{})
	require.NoError(t, err)

	select {
	case seen := <-got:
		assert.Equal(t, written, seen)
	case <-time.After(5 * time.Second):
		t.Fatal("change from the other stack was not observed")
	}
}

func TestNew_ForceTemp(t *testing.T) {
	stack, err := New("my-notes", WithAdapter(AdapterMemory), WithForceTemp(true))
	require.NoError(t, err)
	defer stack.Close()
	assert.Equal(t, filepath.Join(os.TempDir(), devRoot, "my-notes"), stack.Root)

	root := t.TempDir()
	kept, err := New(root, WithAdapter(AdapterMemory), WithForceTemp(true))
	require.NoError(t, err)
	defer kept.Close()
	assert.Equal(t, filepath.Clean(root), kept.Root)
}
