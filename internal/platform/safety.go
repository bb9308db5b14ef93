package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// devRoot is the directory under os.TempDir() that sandboxed stores live in.
const devRoot = "tabnotes-dev"

// IsDevRun reports whether the process was built by `go run` or `go test`.
// Both build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveStorePath returns the directory the store actually lives in.
// With forceTemp the path is re-rooted under os.TempDir()/tabnotes-dev, except
// for paths that are already inside the temp directory (t.TempDir()).
func ResolveStorePath(userPath string, forceTemp bool) string {
	if !forceTemp {
		if userPath == "" {
			return "."
		}
		return userPath
	}

	clean := filepath.Clean(userPath)
	if filepath.IsAbs(clean) {
		rel, err := filepath.Rel(os.TempDir(), clean)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			return clean
		}
	}

	name := "default"
	if userPath != "" {
		if base := filepath.Base(clean); base != "." && base != string(os.PathSeparator) && base != ".." {
			name = base
		}
	}
	return filepath.Join(os.TempDir(), devRoot, name)
}
