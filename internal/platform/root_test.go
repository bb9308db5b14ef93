package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	// base/
	//   store/.tabnotes/
	//     projects/deep/
	//   bare/
	//   decoy/.tabnotes   (a file, not a store)
	base := t.TempDir()
	store := filepath.Join(base, "store")
	deep := filepath.Join(store, "projects", "deep")
	bare := filepath.Join(base, "bare")
	decoy := filepath.Join(base, "decoy")

	require.NoError(t, os.MkdirAll(deep, 0755))
	require.NoError(t, os.MkdirAll(bare, 0755))
	require.NoError(t, os.MkdirAll(decoy, 0755))
	require.NoError(t, os.Mkdir(DataDir(store), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(decoy, SystemDir), nil, 0644))

	tests := []struct {
		name  string
		start string
		want  string
	}{
		{name: "At the root", start: store, want: store},
		{name: "Below the root", start: deep, want: store},
		{name: "No store above", start: bare},
		{name: "Marker is a file", start: decoy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.start)
			if tt.want == "" {
				assert.ErrorIs(t, err, ErrRootNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(tt.want), filepath.Clean(got))
		})
	}
}

func TestFindRoot_Relative(t *testing.T) {
	store := t.TempDir()
	require.NoError(t, os.Mkdir(DataDir(store), 0755))
	t.Chdir(store)

	got, err := FindRoot(".")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	root, err := DefaultRoot()
	require.NoError(t, err)
	assert.Equal(t, got, root)
}
