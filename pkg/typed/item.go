// Package typed binds a storage key to a Go type.
//
// An Item owns one key of a core.Backend, encodes its value as JSON and falls
// back to a default when nothing (or nothing readable) is stored.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/tabnotes/pkg/core"
)

// Item is a typed view over a single storage key.
type Item[T any] struct {
	backend    core.Backend
	key        string
	defaultVal func() T
	onError    func(error)
}

// ItemOption configures an Item.
type ItemOption func(*itemOptions)

type itemOptions struct {
	onError func(error)
}

// WithErrorHandler receives values that Watch could not decode. Those changes
// are not delivered.
func WithErrorHandler(fn func(error)) ItemOption {
	return func(o *itemOptions) {
		o.onError = fn
	}
}

// NewItem binds key to T. defaultValue is returned by GetValue when the key
// holds nothing; it is called again for every use, so it may return fresh maps.
func NewItem[T any](backend core.Backend, key string, defaultValue func() T, opts ...ItemOption) (*Item[T], error) {
	if _, _, err := core.ParseKey(key); err != nil {
		return nil, err
	}
	if defaultValue == nil {
		defaultValue = func() T {
			var zero T
			return zero
		}
	}
	o := itemOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Item[T]{
		backend:    backend,
		key:        key,
		defaultVal: defaultValue,
		onError:    o.onError,
	}, nil
}

// Key returns the bound storage key.
func (i *Item[T]) Key() string {
	return i.key
}

// GetValue returns the stored value, or the default when the key is empty.
// A stored value that does not decode yields the default together with an
// error wrapping core.ErrCorruptValue.
func (i *Item[T]) GetValue(ctx context.Context) (T, error) {
	raw, found, err := i.backend.Get(ctx, i.key)
	if err != nil {
		return i.defaultVal(), err
	}
	if !found {
		return i.defaultVal(), nil
	}
	return i.decode(raw)
}

// SetValue encodes v and stores it under the key.
func (i *Item[T]) SetValue(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", i.key, err)
	}
	return i.backend.Set(ctx, i.key, raw)
}

// Watch calls fn with the decoded new and previous value after each change of
// the key. An absent previous value is reported as the default.
func (i *Item[T]) Watch(fn func(newValue, oldValue T)) (core.Unwatch, error) {
	return i.backend.Watch(i.key, func(c core.Change) {
		newValue, err := i.decode(c.NewValue)
		if err != nil {
			if i.onError != nil {
				i.onError(err)
			}
			return
		}
		oldValue, err := i.decode(c.OldValue)
		if err != nil {
			oldValue = i.defaultVal()
		}
		fn(newValue, oldValue)
	})
}

func (i *Item[T]) decode(raw []byte) (T, error) {
	if len(raw) == 0 {
		return i.defaultVal(), nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return i.defaultVal(), fmt.Errorf("%w: %s: %v", core.ErrCorruptValue, i.key, err)
	}
	return v, nil
}
