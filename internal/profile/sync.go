// Package profile keeps a local mirror of the signed-in user's profile
// document in step with the remote identity provider and document store.
package profile

import (
	"context"
	"sync"
	"time"

	"spendly/internal/core"
	applog "spendly/internal/log"
	"spendly/internal/remote"
)

// State is the session state seen by a Sync.
type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Mirror is the local copy of the profile document. Confirmed is false
// while it holds a locally computed value the remote store has not
// returned yet.
type Mirror struct {
	Profile   core.UserProfile
	Confirmed bool
}

// Sync owns the session state and profile mirror for one process.
// Construct it with New, call Start once, and Close when done.
type Sync struct {
	identity remote.IdentityProvider
	docs     remote.DocumentStore
	now      func() time.Time
	logger   *applog.Logger

	mu          sync.RWMutex
	state       State
	session     *remote.Identity
	mirror      *Mirror
	unsubscribe func()
}

type Option func(*Sync)

func WithClock(now func() time.Time) Option {
	return func(s *Sync) { s.now = now }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Sync) { s.logger = l.WithComponent(applog.ComponentProfile) }
}

// New returns a Sync. With a nil identity provider or document store it is
// unconfigured: sign-up and sign-in fail with ErrNotConfigured.
func New(identity remote.IdentityProvider, docs remote.DocumentStore, opts ...Option) *Sync {
	s := &Sync{
		identity: identity,
		docs:     docs,
		now:      time.Now,
		logger:   applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentProfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a remote backend is wired in.
func (s *Sync) Configured() bool {
	return s.identity != nil && s.docs != nil
}

// Start asks the provider for the current session, subscribes to session
// changes and, when someone is signed in, fetches their profile.
func (s *Sync) Start(ctx context.Context) error {
	if !s.Configured() {
		s.setSession(nil)
		return nil
	}

	id, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		s.setSession(nil)
		return remoteErr("current identity", err)
	}

	unsubscribe := s.identity.Subscribe(s.onSessionChange)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	s.setSession(id)
	if id == nil {
		return nil
	}
	_, err = s.fetch(ctx, *id)
	return err
}

// Close stops listening for session changes and drops local state.
func (s *Sync) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.session = nil
	s.mirror = nil
	s.state = StateInitializing
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// SignUp creates an identity, names it, writes its profile document and
// adopts that profile as a tentative mirror. If the document write fails the
// identity is kept; the next session-start fetch writes a minimal profile.
func (s *Sync) SignUp(ctx context.Context, email, password, displayName string) (core.UserProfile, error) {
	if !s.Configured() {
		return core.UserProfile{}, ErrNotConfigured
	}

	// The profile is written below; skip the fetch the new session triggers.
	ctx = context.WithValue(ctx, skipFetchKey{}, true)

	id, err := s.identity.CreateIdentity(ctx, email, password)
	if err != nil {
		return core.UserProfile{}, remoteErr("create identity", err)
	}
	if err := s.identity.UpdateDisplayName(ctx, displayName); err != nil {
		return core.UserProfile{}, remoteErr("set display name", err)
	}
	named := *id
	named.DisplayName = displayName
	s.setSession(&named)

	p := core.UserProfile{
		ID:          id.ID,
		Email:       firstNonEmpty(id.Email, email),
		DisplayName: displayName,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.docs.WriteDocument(ctx, remote.UsersCollection, p.ID, toDocument(p), false); err != nil {
		s.logger.ErrorContext(ctx, "Profile write failed after identity creation",
			applog.FieldOperation, applog.OpSignUp,
			applog.FieldUserID, p.ID,
			applog.FieldError, err)
		return core.UserProfile{}, remoteErr("write profile", err)
	}

	s.adopt(p, false)
	s.logger.InfoContext(ctx, "Signed up", applog.FieldUserID, p.ID)
	return p, nil
}

// SignIn verifies the credentials with the provider. The session change it
// causes fetches the profile; a failure of that fetch is returned too.
func (s *Sync) SignIn(ctx context.Context, email, password string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	result := &fetchResult{}
	ctx = context.WithValue(ctx, fetchResultKey{}, result)

	id, err := s.identity.VerifyIdentity(ctx, email, password)
	if err != nil {
		return remoteErr("verify identity", err)
	}
	if !result.ran {
		// Provider did not report the change; fetch directly.
		s.setSession(id)
		_, err := s.fetch(ctx, *id)
		return err
	}
	if result.err != nil {
		return result.err
	}
	s.logger.InfoContext(ctx, "Signed in", applog.FieldUserID, id.ID)
	return nil
}

// SignOut ends the remote session. The mirror is cleared even when that
// fails; the provider's error is still returned.
func (s *Sync) SignOut(ctx context.Context) error {
	var err error
	if s.Configured() {
		err = s.identity.TerminateSession(ctx)
	}
	s.setSession(nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Session termination failed, local state cleared",
			applog.FieldOperation, applog.OpSignOut,
			applog.FieldError, err)
		return remoteErr("terminate session", err)
	}
	return nil
}

// UpdateProfile writes the fields patch touches with merge semantics and,
// when a mirror is held, adopts the merged result as a tentative mirror.
// Without a mirror nothing local is adopted; Refresh reads the full document.
// Without a session it does nothing and reports false.
func (s *Sync) UpdateProfile(ctx context.Context, patch core.ProfilePatch) (bool, error) {
	s.mu.RLock()
	session, mirror := s.session, s.mirror
	s.mu.RUnlock()
	if session == nil || !s.Configured() {
		return false, nil
	}

	if err := s.docs.WriteDocument(ctx, remote.UsersCollection, session.ID, patchDocument(patch), true); err != nil {
		return false, remoteErr("write profile", err)
	}
	if mirror == nil {
		s.logger.WarnContext(ctx, "Profile updated without a local mirror",
			applog.FieldOperation, applog.OpUpdate,
			applog.FieldUserID, session.ID)
		return true, nil
	}
	if s.isCurrent(session.ID) {
		s.adopt(patch.Apply(mirror.Profile), false)
	}
	return true, nil
}

// Refresh re-reads the profile document and adopts it as confirmed.
func (s *Sync) Refresh(ctx context.Context) (core.UserProfile, error) {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if session == nil || !s.Configured() {
		return core.UserProfile{}, remoteErr("refresh profile", remote.ErrNoSession)
	}
	return s.fetch(ctx, *session)
}

// Mirror returns the local profile; false when there is none.
func (s *Sync) Mirror() (Mirror, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mirror == nil {
		return Mirror{}, false
	}
	return *s.mirror, true
}

func (s *Sync) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Session returns the signed-in identity, or nil.
func (s *Sync) Session() *remote.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	id := *s.session
	return &id
}

type (
	skipFetchKey   struct{}
	fetchResultKey struct{}
)

type fetchResult struct {
	ran bool
	err error
}

func (s *Sync) onSessionChange(ctx context.Context, id *remote.Identity) {
	s.setSession(id)
	if id == nil {
		return
	}
	if skip, _ := ctx.Value(skipFetchKey{}).(bool); skip {
		return
	}

	_, err := s.fetch(ctx, *id)
	if res, ok := ctx.Value(fetchResultKey{}).(*fetchResult); ok {
		res.ran, res.err = true, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Session-start profile fetch failed",
			applog.FieldOperation, applog.OpFetch,
			applog.FieldUserID, id.ID,
			applog.FieldError, err)
	}
}

// fetch reads the profile document for id and adopts it as confirmed. A
// missing document is replaced by a minimal one built from the identity.
func (s *Sync) fetch(ctx context.Context, id remote.Identity) (core.UserProfile, error) {
	doc, found, err := s.docs.ReadDocument(ctx, remote.UsersCollection, id.ID)
	if err != nil {
		return core.UserProfile{}, remoteErr("read profile", err)
	}

	var p core.UserProfile
	if found {
		p = fromDocument(doc)
		if p.ID == "" {
			p.ID = id.ID
		}
	} else {
		p = core.UserProfile{
			ID:          id.ID,
			Email:       id.Email,
			DisplayName: id.DisplayName,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.docs.WriteDocument(ctx, remote.UsersCollection, id.ID, toDocument(p), false); err != nil {
			return core.UserProfile{}, remoteErr("write profile", err)
		}
		s.logger.InfoContext(ctx, "Created missing profile document", applog.FieldUserID, id.ID)
	}

	if !s.isCurrent(id.ID) {
		// Signed out or switched user while the read was in flight.
		return p, nil
	}
	s.adopt(p, true)
	return p, nil
}

func (s *Sync) isCurrent(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil && s.session.ID == userID
}

func (s *Sync) setSession(id *remote.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == nil {
		s.session = nil
		s.mirror = nil
		s.state = StateUnauthenticated
		return
	}
	cp := *id
	if s.mirror != nil && s.mirror.Profile.ID != cp.ID {
		s.mirror = nil
	}
	s.session = &cp
	s.state = StateAuthenticated
}

func (s *Sync) adopt(p core.UserProfile, confirmed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = &Mirror{Profile: p, Confirmed: confirmed}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
