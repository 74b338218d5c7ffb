// Package backend assembles the persistence and remote services selected by
// configuration.
package backend

import (
	"context"

	"spendly/internal/remote"
	"spendly/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result holds the services the web process needs.
type Result struct {
	Persister store.Persister
	// Identity and Documents are both nil when profile sync is not configured.
	Identity  remote.IdentityProvider
	Documents remote.DocumentStore
	// Ready reports whether the persistence layer can serve requests.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type DataBackendType string

const (
	SQLiteBackend DataBackendType = "sqlite"
	MemoryBackend DataBackendType = "memory"
)

func (bt DataBackendType) String() string { return string(bt) }

func (bt DataBackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

type AuthBackendType string

const (
	FirebaseAuth AuthBackendType = "firebase"
	MemoryAuth   AuthBackendType = "memory"
	NoAuth       AuthBackendType = "none"
)

func (at AuthBackendType) String() string { return string(at) }

func (at AuthBackendType) IsValid() bool {
	switch at {
	case FirebaseAuth, MemoryAuth, NoAuth:
		return true
	default:
		return false
	}
}
