package tabnotes

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tabnotes/pkg/core"
)

func TestOpen_State(t *testing.T) {
	app, err := Open(t.TempDir(), WithAdapter("sqlite"))
	require.NoError(t, err)
	defer app.Close()

	_, _, err = app.Service().NewNote(context.Background(), core.Notes{})
	require.NoError(t, err)

	state, ok := app.State().(AppState)
	require.True(t, ok)
	assert.Equal(t, "sqlite", state.Adapter)
	assert.Equal(t, app.Root(), state.Root)
	assert.NotEmpty(t, state.Version)
	assert.Contains(t, state.Components, "area-router")
	assert.Contains(t, state.Components, "notes-store")
	assert.Contains(t, state.Components, "service")

	_, err = json.Marshal(state)
	assert.NoError(t, err)
	assert.Equal(t, "app", app.ComponentType())
}

func TestOpen_UnknownAdapter(t *testing.T) {
	_, err := Open(t.TempDir(), WithAdapter("redis"))
	assert.Error(t, err)
}
