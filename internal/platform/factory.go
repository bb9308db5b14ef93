package platform

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/tabnotes/pkg/adapters/area"
	"github.com/aretw0/tabnotes/pkg/adapters/memory"
	"github.com/aretw0/tabnotes/pkg/core"
	"github.com/aretw0/tabnotes/pkg/notes"
)

// Stack is an opened notes store with everything wired on top of it.
type Stack struct {
	Root    string        // resolved store root
	Adapter string        // persistent adapter name, "custom" when injected
	Backend *area.Router  // local -> persistent backend, session -> process memory
	Store   *notes.Store  // core.Repository over the notes key
	Service *core.Service // note creation and edits
	Logger  *slog.Logger
}

// New opens the store rooted at uri:
//
//	stack, err := platform.New("~/notes", platform.WithAdapter("sqlite"))
func New(uri string, opts ...Option) (*Stack, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	root, persistent, err := initBackend(uri, o)
	if err != nil {
		return nil, err
	}

	router := area.New(map[core.Area]core.Backend{
		core.AreaLocal:   persistent,
		core.AreaSession: memory.New(),
	})

	store, err := notes.New(router, o.storeKey, notes.WithLogger(logger))
	if err != nil {
		_ = router.Close()
		return nil, fmt.Errorf("failed to open notes store: %w", err)
	}

	adapter := o.adapter
	if o.backend != nil {
		adapter = "custom"
	}
	logger.Debug("store opened", "root", root, "adapter", adapter, "key", store.Key())

	return &Stack{
		Root:    root,
		Adapter: adapter,
		Backend: router,
		Store:   store,
		Service: core.NewService(store, core.WithClock(o.clock), core.WithServiceLogger(logger)),
		Logger:  logger,
	}, nil
}

// Close releases the backends and stops their watchers.
func (s *Stack) Close() error {
	return s.Backend.Close()
}
