package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML header some notes start with.
type Frontmatter map[string]any

// Title returns the "title" field when it is a non-empty string.
func (f Frontmatter) Title() string {
	if s, ok := f["title"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// SplitFrontmatter separates a leading "---" YAML block from the markdown body.
// Markdown without a header is returned unchanged with nil frontmatter.
func SplitFrontmatter(markdown string) (Frontmatter, string, error) {
	data := []byte(markdown)
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return nil, markdown, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return nil, markdown, errors.New("frontmatter started but no closing delimiter found")
	}

	fm := Frontmatter{}
	if err := yaml.Unmarshal(parts[0], &fm); err != nil {
		return nil, markdown, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	body := string(parts[1])
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")
	return fm, body, nil
}
