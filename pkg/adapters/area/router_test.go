package area_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tabnotes/pkg/adapters/area"
	"github.com/aretw0/tabnotes/pkg/adapters/memory"
	"github.com/aretw0/tabnotes/pkg/core"
)

func TestRouter_RoutesByArea(t *testing.T) {
	ctx := context.Background()
	local := memory.New()
	session := memory.New()
	r := area.New(map[core.Area]core.Backend{
		core.AreaLocal:   local,
		core.AreaSession: session,
	})

	require.NoError(t, r.Set(ctx, "local:notes", []byte("persisted")))
	require.NoError(t, r.Set(ctx, "session:draft", []byte("scratch")))

	v, found, err := local.Get(ctx, "local:notes")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", string(v))

	_, found, err = local.Get(ctx, "session:draft")
	require.NoError(t, err)
	assert.False(t, found)

	v, _, err = r.Get(ctx, "session:draft")
	require.NoError(t, err)
	assert.Equal(t, "scratch", string(v))
}

func TestRouter_WatchGoesToOwningBackend(t *testing.T) {
	ctx := context.Background()
	local := memory.New()
	r := area.New(map[core.Area]core.Backend{core.AreaLocal: local})

	var got []string
	unwatch, err := r.Watch("local:notes", func(c core.Change) {
		got = append(got, string(c.NewValue))
	})
	require.NoError(t, err)
	defer unwatch()

	require.NoError(t, local.Set(ctx, "local:notes", []byte("direct")))
	assert.Equal(t, []string{"direct"}, got)
}

func TestRouter_MissingArea(t *testing.T) {
	r := area.New(map[core.Area]core.Backend{core.AreaLocal: memory.New()})

	err := r.Set(context.Background(), "session:draft", []byte("x"))
	assert.ErrorIs(t, err, core.ErrUnsupportedArea)

	_, _, err = r.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, core.ErrInvalidKey)
}

func TestRouter_CloseSharedBackendOnce(t *testing.T) {
	shared := memory.New()
	r := area.New(map[core.Area]core.Backend{
		core.AreaLocal:   shared,
		core.AreaSession: shared,
	})

	require.NoError(t, r.Close())
	assert.True(t, shared.State().(memory.BackendState).Closed)

	state := r.State().(area.RouterState)
	assert.Contains(t, state.Areas, "local")
	assert.Contains(t, state.Areas, "session")
}
