package http

import (
	"context"
	"errors"
	"net/http"

	"spendly/internal/core"
	applog "spendly/internal/log"
	"spendly/internal/profile"
	"spendly/internal/remote"
)

type profileJSON struct {
	State     string            `json:"state"`
	Profile   *core.UserProfile `json:"profile"`
	Confirmed bool              `json:"confirmed"`
}

func (s *Server) profileView() profileJSON {
	out := profileJSON{State: "not_configured"}
	if s.profiles == nil || !s.profiles.Configured() {
		return out
	}
	out.State = s.profiles.State().String()
	if m, ok := s.profiles.Mirror(); ok {
		p := m.Profile
		out.Profile = &p
		out.Confirmed = m.Confirmed
	}
	return out
}

func (s *Server) profilesConfigured(w http.ResponseWriter) bool {
	if s.profiles == nil || !s.profiles.Configured() {
		ErrorResponse(http.StatusServiceUnavailable, profile.ErrNotConfigured.Error()).Write(w)
		return false
	}
	return true
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if !s.profilesConfigured(w) {
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	creds, err := parseCredentials(p, true)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := s.remoteContext(r.Context())
	defer cancel()
	if _, err := s.profiles.SignUp(ctx, creds.Email, creds.Password, creds.DisplayName); err != nil {
		s.writeProfileError(r.Context(), w, applog.OpSignUp, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(s.profileView()).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if !s.profilesConfigured(w) {
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	creds, err := parseCredentials(p, false)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := s.remoteContext(r.Context())
	defer cancel()
	if err := s.profiles.SignIn(ctx, creds.Email, creds.Password); err != nil {
		s.writeProfileError(r.Context(), w, applog.OpSignIn, err)
		return
	}
	NewJSONResponse().JSON(s.profileView()).Write(w)
}

// handleSignOut always clears the local session; a failed remote
// termination is still reported.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		NoContent().Write(w)
		return
	}
	ctx, cancel := s.remoteContext(r.Context())
	defer cancel()
	if err := s.profiles.SignOut(ctx); err != nil {
		s.writeProfileError(r.Context(), w, applog.OpSignOut, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.profileView()).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.profilesConfigured(w) {
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	patch, err := parseProfilePatch(p)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, cancel := s.remoteContext(r.Context())
	defer cancel()
	updated, err := s.profiles.UpdateProfile(ctx, patch)
	if err != nil {
		s.writeProfileError(r.Context(), w, applog.OpUpdate, err)
		return
	}
	if !updated {
		ErrorResponse(http.StatusUnauthorized, "not signed in").Write(w)
		return
	}
	NewJSONResponse().JSON(s.profileView()).Write(w)
}

func (s *Server) handleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	if !s.profilesConfigured(w) {
		return
	}
	ctx, cancel := s.remoteContext(r.Context())
	defer cancel()
	if _, err := s.profiles.Refresh(ctx); err != nil {
		s.writeProfileError(r.Context(), w, applog.OpFetch, err)
		return
	}
	NewJSONResponse().JSON(s.profileView()).Write(w)
}

// writeProfileError maps profile sync failures to HTTP status codes.
func (s *Server) writeProfileError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, msg := http.StatusBadGateway, "remote service error"
	switch {
	case errors.Is(err, profile.ErrNotConfigured):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, remote.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, remote.ErrNoSession):
		status, msg = http.StatusUnauthorized, "not signed in"
	case errors.Is(err, remote.ErrEmailExists):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "remote service timed out"
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentProfile).WarnContext(ctx, "Profile operation failed",
		applog.FieldOperation, op,
		applog.FieldStatusCode, status,
		applog.FieldError, err)
	ErrorResponse(status, msg).Write(w)
}
