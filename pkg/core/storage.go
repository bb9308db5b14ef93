package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Area is the storage area prefix of a key ("local:notes" lives in AreaLocal).
type Area string

const (
	// AreaLocal is persisted and shared by every process opened on the same store.
	AreaLocal Area = "local"
	// AreaSession lives in process memory and is lost on exit.
	AreaSession Area = "session"
)

var keyNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ParseKey splits a storage key into its area and name.
// Only the local and session areas are supported.
func ParseKey(key string) (Area, string, error) {
	area, name, ok := strings.Cut(key, ":")
	if !ok || name == "" {
		return "", "", fmt.Errorf("%w: %q must look like area:name", ErrInvalidKey, key)
	}
	if !keyNamePattern.MatchString(name) || strings.Trim(name, ".") == "" {
		return "", "", fmt.Errorf("%w: %q has an invalid name", ErrInvalidKey, key)
	}
	switch Area(area) {
	case AreaLocal, AreaSession:
		return Area(area), name, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedArea, area)
	}
}

// Change is delivered to watchers when the value under Key changes.
// OldValue is nil when the key had no value before.
type Change struct {
	Key      string
	NewValue []byte
	OldValue []byte
}

// WatchFunc receives changes for a watched key.
type WatchFunc func(Change)

// Unwatch stops a watch. Calling it more than once is a no-op.
type Unwatch func()

// Backend is the key-value storage collaborator the notes store is persisted
// through. Values are opaque bytes; typed access lives in pkg/typed.
//
// Watch callbacks fire whenever the stored bytes change, whether the write came
// from this process or from another process sharing the same backend.
type Backend interface {
	// Get returns the value stored under key. found is false when nothing is stored.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Watch registers fn for changes to key.
	Watch(key string, fn WatchFunc) (Unwatch, error)

	// Close releases watchers and handles.
	Close() error
}
