// Package firebase reaches Firebase Authentication and Cloud Firestore
// through the Google REST APIs.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	itk "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	applog "spendly/internal/log"
	"spendly/internal/remote"
)

// ID tokens are valid for one hour; stop using them a little earlier.
const tokenLifetime = 55 * time.Minute

var ErrSessionExpired = errors.New("session expired, sign in again")

type session struct {
	identity remote.Identity
	idToken  string
	expiry   time.Time
}

// Auth signs in with email and password using the project's Web API key and
// keeps the resulting session in memory. It is also an oauth2.TokenSource
// yielding the session's ID token, which Documents uses to authenticate.
type Auth struct {
	svc    *itk.Service
	now    func() time.Time
	logger *applog.Logger

	mu        sync.Mutex
	session   *session
	listeners map[int]remote.SessionListener
	nextSub   int
}

var (
	_ remote.IdentityProvider = (*Auth)(nil)
	_ oauth2.TokenSource      = (*Auth)(nil)
)

// NewAuth creates the identity client. Extra options are appended after the
// API key, so tests can point it at a local endpoint.
func NewAuth(ctx context.Context, apiKey string, logger *applog.Logger, opts ...option.ClientOption) (*Auth, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Firebase API key")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	svc, err := itk.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit service: %w", err)
	}
	return &Auth{
		svc:       svc,
		now:       time.Now,
		logger:    logger.WithComponent(applog.ComponentIdentity),
		listeners: make(map[int]remote.SessionListener),
	}, nil
}

func (a *Auth) CreateIdentity(ctx context.Context, email, password string) (*remote.Identity, error) {
	resp, err := a.svc.Relyingparty.SignupNewUser(&itk.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapAuthError("sign up", err)
	}

	id := remote.Identity{ID: resp.LocalId, Email: firstNonEmpty(resp.Email, email), DisplayName: resp.DisplayName}
	a.startSession(ctx, id, resp.IdToken)
	return &id, nil
}

func (a *Auth) VerifyIdentity(ctx context.Context, email, password string) (*remote.Identity, error) {
	resp, err := a.svc.Relyingparty.VerifyPassword(&itk.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapAuthError("verify password", err)
	}

	id := remote.Identity{ID: resp.LocalId, Email: firstNonEmpty(resp.Email, email), DisplayName: resp.DisplayName}
	a.startSession(ctx, id, resp.IdToken)
	return &id, nil
}

// TerminateSession forgets the session locally; ID tokens cannot be revoked
// with the Web API key.
func (a *Auth) TerminateSession(ctx context.Context) error {
	a.mu.Lock()
	had := a.session != nil
	a.session = nil
	a.mu.Unlock()

	if had {
		a.notify(ctx, nil)
	}
	return nil
}

// CurrentIdentity confirms the held session with the provider and returns
// its account, or nil when nobody is signed in.
func (a *Auth) CurrentIdentity(ctx context.Context) (*remote.Identity, error) {
	tok, err := a.Token()
	if errors.Is(err, remote.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	resp, err := a.svc.Relyingparty.GetAccountInfo(&itk.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: tok.AccessToken,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapAuthError("get account info", err)
	}
	if len(resp.Users) == 0 {
		return nil, nil
	}

	u := resp.Users[0]
	id := remote.Identity{ID: u.LocalId, Email: u.Email, DisplayName: u.DisplayName}
	a.mu.Lock()
	if a.session != nil {
		a.session.identity = id
	}
	a.mu.Unlock()
	return &id, nil
}

func (a *Auth) UpdateDisplayName(ctx context.Context, name string) error {
	tok, err := a.Token()
	if err != nil {
		return err
	}

	resp, err := a.svc.Relyingparty.SetAccountInfo(&itk.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           tok.AccessToken,
		DisplayName:       name,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return mapAuthError("set account info", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	a.session.identity.DisplayName = name
	if resp.IdToken != "" {
		a.session.idToken = resp.IdToken
		a.session.expiry = a.now().Add(tokenLifetime)
	}
	return nil
}

// Token returns the signed-in user's ID token.
// TODO: exchange the refresh token at securetoken.googleapis.com instead of
// expiring the session after an hour.
func (a *Auth) Token() (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil, remote.ErrNoSession
	}
	if !a.now().Before(a.session.expiry) {
		return nil, ErrSessionExpired
	}
	return &oauth2.Token{
		AccessToken: a.session.idToken,
		TokenType:   "Bearer",
		Expiry:      a.session.expiry,
	}, nil
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

func (a *Auth) startSession(ctx context.Context, id remote.Identity, idToken string) {
	a.mu.Lock()
	a.session = &session{identity: id, idToken: idToken, expiry: a.now().Add(tokenLifetime)}
	a.mu.Unlock()

	a.logger.InfoContext(ctx, "Session started", applog.FieldUserID, id.ID)
	cp := id
	a.notify(ctx, &cp)
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
		fn(ctx, id)
	}
}

// mapAuthError turns provider error codes into the remote package's sentinels.
func mapAuthError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code := gerr.Message
		for _, item := range gerr.Errors {
			if item.Message != "" {
				code = item.Message
				break
			}
		}
		switch {
		case strings.HasPrefix(code, "EMAIL_EXISTS"):
			return fmt.Errorf("%s: %w", op, remote.ErrEmailExists)
		case strings.HasPrefix(code, "INVALID_PASSWORD"),
			strings.HasPrefix(code, "EMAIL_NOT_FOUND"),
			strings.HasPrefix(code, "INVALID_LOGIN_CREDENTIALS"),
			strings.HasPrefix(code, "USER_DISABLED"):
			return fmt.Errorf("%s: %w", op, remote.ErrInvalidCredentials)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
