// Package remote defines the hosted identity and document services the
// profile sync talks to. Adapters live in subpackages.
package remote

import (
	"context"
	"errors"
)

// UsersCollection holds one profile document per identity, keyed by identity ID.
const UsersCollection = "users"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrNoSession          = errors.New("no active session")
)

// Identity is an account known to the identity provider.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

// SessionListener is told about every sign-in and sign-out. id is nil when
// the session ended. ctx is the context of the call that caused the change.
type SessionListener func(ctx context.Context, id *Identity)

// IdentityProvider creates, verifies and tracks the signed-in identity.
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, email, password string) (*Identity, error)
	VerifyIdentity(ctx context.Context, email, password string) (*Identity, error)
	TerminateSession(ctx context.Context) error
	// CurrentIdentity returns nil when nobody is signed in.
	CurrentIdentity(ctx context.Context) (*Identity, error)
	UpdateDisplayName(ctx context.Context, name string) error
	Subscribe(fn SessionListener) (unsubscribe func())
}

// Document is a flat remote record. Values are string, bool, int64,
// float64, time.Time or nil.
type Document map[string]any

// DocumentStore reads and writes keyed documents.
type DocumentStore interface {
	// ReadDocument reports found=false when the document does not exist.
	ReadDocument(ctx context.Context, collection, key string) (doc Document, found bool, err error)
	// WriteDocument replaces the document, or with merge only overwrites the
	// fields present in doc.
	WriteDocument(ctx context.Context, collection, key string, doc Document, merge bool) error
}
