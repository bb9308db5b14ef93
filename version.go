package tabnotes

import (
	_ "embed"
	"strings"
)

// Version is the release version, read from the VERSION file at build time.
//
//go:embed VERSION
var Version string

func trimVersion() string {
	return strings.TrimSpace(Version)
}
