package core

import "context"

// Unsubscribe stops a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// SubscribeFunc receives the new and the previous store after every persisted change.
type SubscribeFunc func(newStore, oldStore Notes)

// Repository is the notes store access contract: the whole mapping is loaded,
// replaced and observed as one unit.
type Repository interface {
	// Load returns the persisted store, or an empty store when nothing is persisted yet.
	Load(ctx context.Context) (Notes, error)

	// Replace writes the entire store. There are no merge semantics at this layer.
	Replace(ctx context.Context, notes Notes) error

	// Subscribe registers fn for every change of the persisted store, including
	// changes written by other processes.
	Subscribe(fn SubscribeFunc) (Unsubscribe, error)
}
