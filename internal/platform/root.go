package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// SystemDir is the hidden directory that marks a store root and holds its data,
// config file and logs.
const SystemDir = ".tabnotes"

// ErrRootNotFound is returned by FindRoot when no store root exists above the start directory.
var ErrRootNotFound = errors.New("store root not found")

// FindRoot walks upwards from startDir looking for a directory that contains
// SystemDir and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if isDir(filepath.Join(dir, SystemDir)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

// DefaultRoot returns the store root for the current directory: the nearest
// enclosing root, or the user's home directory.
func DefaultRoot() (string, error) {
	cwd, err := os.Getwd()
	if err == nil {
		if root, err := FindRoot(cwd); err == nil {
			return root, nil
		}
	}
	return os.UserHomeDir()
}

// DataDir returns the system directory of the store rooted at root.
func DataDir(root string) string {
	return filepath.Join(root, SystemDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
