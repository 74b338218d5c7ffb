// Package memory provides in-process identity and document services.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"spendly/internal/remote"
)

type account struct {
	identity remote.Identity
	password string
}

// Auth is an in-process identity provider. Session listeners run
// synchronously inside the call that changed the session.
type Auth struct {
	mu        sync.Mutex
	accounts  map[string]*account // by lower-cased email
	current   *account
	listeners map[int]remote.SessionListener
	nextSub   int
	failures  map[string]error
	newID     func() string
}

func NewAuth() *Auth {
	return &Auth{
		accounts:  make(map[string]*account),
		listeners: make(map[int]remote.SessionListener),
		failures:  make(map[string]error),
		newID:     uuid.NewString,
	}
}

// Operation names accepted by Fail.
const (
	OpCreate        = "create"
	OpVerify        = "verify"
	OpTerminate     = "terminate"
	OpCurrent       = "current"
	OpUpdateName    = "update_name"
	OpReadDocument  = "read"
	OpWriteDocument = "write"
)

// Fail makes every later call of op return err; nil clears it.
func (a *Auth) Fail(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		delete(a.failures, op)
		return
	}
	a.failures[op] = err
}

// AddAccount registers an account without signing it in.
func (a *Auth) AddAccount(email, password, displayName string) remote.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := &account{
		identity: remote.Identity{ID: a.newID(), Email: email, DisplayName: displayName},
		password: password,
	}
	a.accounts[strings.ToLower(email)] = acc
	return acc.identity
}

// Accounts returns how many identities exist.
func (a *Auth) Accounts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.accounts)
}

func (a *Auth) CreateIdentity(ctx context.Context, email, password string) (*remote.Identity, error) {
	a.mu.Lock()
	if err := a.failures[OpCreate]; err != nil {
		a.mu.Unlock()
		return nil, err
	}
	key := strings.ToLower(email)
	if _, ok := a.accounts[key]; ok {
		a.mu.Unlock()
		return nil, remote.ErrEmailExists
	}
	acc := &account{identity: remote.Identity{ID: a.newID(), Email: email}, password: password}
	a.accounts[key] = acc
	a.current = acc
	id := acc.identity
	a.mu.Unlock()

	a.notify(ctx, &id)
	return &id, nil
}

func (a *Auth) VerifyIdentity(ctx context.Context, email, password string) (*remote.Identity, error) {
	a.mu.Lock()
	if err := a.failures[OpVerify]; err != nil {
		a.mu.Unlock()
		return nil, err
	}
	acc, ok := a.accounts[strings.ToLower(email)]
	if !ok || acc.password != password {
		a.mu.Unlock()
		return nil, remote.ErrInvalidCredentials
	}
	a.current = acc
	id := acc.identity
	a.mu.Unlock()

	a.notify(ctx, &id)
	return &id, nil
}

// TerminateSession ends the session. The session is gone even when a
// failure was injected, the error is still returned.
func (a *Auth) TerminateSession(ctx context.Context) error {
	a.mu.Lock()
	err := a.failures[OpTerminate]
	hadSession := a.current != nil
	a.current = nil
	a.mu.Unlock()

	if hadSession {
		a.notify(ctx, nil)
	}
	return err
}

func (a *Auth) CurrentIdentity(_ context.Context) (*remote.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failures[OpCurrent]; err != nil {
		return nil, err
	}
	if a.current == nil {
		return nil, nil
	}
	id := a.current.identity
	return &id, nil
}

func (a *Auth) UpdateDisplayName(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.failures[OpUpdateName]; err != nil {
		return err
	}
	if a.current == nil {
		return remote.ErrNoSession
	}
	a.current.identity.DisplayName = name
	return nil
}

func (a *Auth) Subscribe(fn remote.SessionListener) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *Auth) notify(ctx context.Context, id *remote.Identity) {
	a.mu.Lock()
	fns := make([]remote.SessionListener, 0, len(a.listeners))
	for i := 0; i < a.nextSub; i++ {
		if fn, ok := a.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	a.mu.Unlock()

	for _, fn := range fns {
		var cp *remote.Identity
		if id != nil {
			v := *id
			cp = &v
		}
		fn(ctx, cp)
	}
}
