package core

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Writes         int        `json:"writes"`
	FailedWrites   int        `json:"failed_writes"`
	LastWrite      *time.Time `json:"last_write,omitempty"`
	LastIssuedID   NoteID     `json:"last_issued_id,omitempty"`
	RepositoryType string     `json:"repository_type"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	return ServiceState{
		Writes:         s.writes,
		FailedWrites:   s.failures,
		LastWrite:      s.lastWrite,
		LastIssuedID:   s.lastID,
		RepositoryType: repoType,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
