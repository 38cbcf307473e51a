// Package session owns the authenticated user, the bearer token and every
// read or write of the persisted session keys.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"monocart/internal/apiclient"
	"monocart/internal/domain"
	"monocart/internal/normalize"
	"monocart/internal/storage"
	"monocart/internal/validate"
)

// Persisted keys. Values are JSON encoded.
const (
	KeyToken    = "token"
	KeyRole     = "role"
	KeyUserData = "userData"
)

var persistedKeys = []string{KeyToken, KeyRole, KeyUserData}

// Operation names for the loading and error maps
const (
	OpLogin    = "login"
	OpRegister = "register"
	OpProfile  = "profile"
)

// Landing routes
const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
	RouteProfile   = "/profile"
)

// State is the authentication state of the session
type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

var ErrNotAuthenticated = apiclient.ErrNotAuthenticated

// Credentials are submitted to the login endpoint
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is submitted to the registration endpoint
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

// ProfileUpdate carries the locally editable profile fields
type ProfileUpdate struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
}

// Teardown is published when a 401 forces the session closed
type Teardown struct {
	Reason     string
	RedirectTo string
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	State      State             `json:"state"`
	IsLoggedIn bool              `json:"isLoggedIn"`
	User       domain.User       `json:"user"`
	Loading    map[string]bool   `json:"loading"`
	Errors     map[string]string `json:"errors"`
}

// Option configures a Session
type Option func(*Session)

// WithClock overrides the time source used for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Session is the single owner of authentication state
type Session struct {
	mu      sync.RWMutex
	state   State
	token   string
	user    domain.User
	loading map[string]bool
	errors  map[string]string

	api       *apiclient.Client
	storage   storage.Storage
	logger    *zap.Logger
	now       func() time.Time
	teardowns chan Teardown
}

// New creates an anonymous session; call Initialize to restore a persisted one
func New(api *apiclient.Client, store storage.Storage, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		state:     StateAnonymous,
		user:      domain.User{Role: domain.RoleUser},
		loading:   make(map[string]bool),
		errors:    make(map[string]string),
		api:       api,
		storage:   store,
		logger:    logger,
		now:       time.Now,
		teardowns: make(chan Teardown, 8),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores the persisted session. A partial, unreadable or
// expired persisted session is removed and the session stays anonymous.
// Calling it repeatedly yields the same state.
func (s *Session) Initialize(ctx context.Context) error {
	values, err := s.storage.Load(ctx, persistedKeys...)
	reason := ""
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		reason = "corrupt storage"
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	case len(values) == 0:
		s.reset()
		return nil
	}

	var token string
	var user domain.User
	if reason == "" {
		token, user, reason = s.restore(values)
	}
	if reason != "" {
		s.logger.Info("Discarding persisted session", zap.String("reason", reason))
		s.reset()
		if err := s.storage.Remove(ctx, persistedKeys...); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = token
	s.user = user
	s.mu.Unlock()

	s.logger.Info("Session restored", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return nil
}

func (s *Session) restore(values map[string]string) (string, domain.User, string) {
	for _, k := range persistedKeys {
		if _, ok := values[k]; !ok {
			return "", domain.User{}, "missing " + k
		}
	}

	var token, role string
	var user domain.User
	if err := json.Unmarshal([]byte(values[KeyToken]), &token); err != nil || token == "" {
		return "", domain.User{}, "invalid token"
	}
	if err := json.Unmarshal([]byte(values[KeyRole]), &role); err != nil {
		role = ""
	}
	if err := json.Unmarshal([]byte(values[KeyUserData]), &user); err != nil {
		return "", domain.User{}, "invalid user data"
	}
	if user.ID == "" || user.Email == "" {
		return "", domain.User{}, "incomplete user data"
	}
	if tokenExpired(token, s.now()) {
		return "", domain.User{}, "token expired"
	}

	user.Role = domain.ParseRole(role)
	return token, user, ""
}

// Login authenticates with the API and persists the session
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	if err := validate.Struct(creds); err != nil {
		s.finish(OpLogin, err)
		return err
	}

	s.start(OpLogin)

	raw, err := s.api.Post(ctx, "/auth/login", creds, "")
	if err != nil {
		s.finish(OpLogin, err)
		return err
	}

	payload := normalize.Login(raw)
	if payload.Token == "" || payload.User.ID == "" || payload.User.Email == "" || payload.User.Name == "" {
		err := fmt.Errorf("login response missing token or user fields: %w", apiclient.ErrMalformedResponse)
		s.finish(OpLogin, err)
		return err
	}

	if err := s.persist(ctx, payload.Token, payload.User); err != nil {
		s.finish(OpLogin, err)
		return err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = payload.Token
	s.user = payload.User
	s.mu.Unlock()

	s.finish(OpLogin, nil)
	s.logger.Info("User logged in", zap.String("user_id", payload.User.ID), zap.String("role", string(payload.User.Role)))
	return nil
}

// Register creates an account. It never authenticates the session.
func (s *Session) Register(ctx context.Context, input RegisterInput) error {
	if err := validate.Struct(input); err != nil {
		s.finish(OpRegister, err)
		return err
	}

	s.start(OpRegister)

	if _, err := s.api.Post(ctx, "/auth/register", input, ""); err != nil {
		s.finish(OpRegister, err)
		return err
	}

	s.finish(OpRegister, nil)
	s.logger.Info("User registered", zap.String("email", input.Email))
	return nil
}

// UpdateProfile rewrites the locally held profile of the authenticated user
func (s *Session) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	if err := validate.Struct(update); err != nil {
		s.finish(OpProfile, err)
		return err
	}

	s.mu.RLock()
	token, user, authenticated := s.token, s.user, s.state == StateAuthenticated
	s.mu.RUnlock()

	if !authenticated {
		s.finish(OpProfile, ErrNotAuthenticated)
		return ErrNotAuthenticated
	}

	user.Name = update.Name
	user.Phone = update.Phone
	if err := s.persist(ctx, token, user); err != nil {
		s.finish(OpProfile, err)
		return err
	}

	s.mu.Lock()
	if s.state == StateAuthenticated && s.token == token {
		s.user = user
	}
	s.mu.Unlock()

	s.finish(OpProfile, nil)
	return nil
}

// Logout clears the session unconditionally
func (s *Session) Logout(ctx context.Context) error {
	s.reset()
	if err := s.storage.Remove(ctx, persistedKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Info("User logged out")
	return nil
}

// OnUnauthorized tears the session down after the API rejected the token
// and notifies Teardowns listeners.
func (s *Session) OnUnauthorized(ctx context.Context, reason string) {
	s.reset()
	if err := s.storage.Remove(ctx, persistedKeys...); err != nil {
		s.logger.Error("Failed to clear session after unauthorized response", zap.Error(err))
	}

	s.logger.Warn("Session torn down", zap.String("reason", reason))

	select {
	case s.teardowns <- Teardown{Reason: reason, RedirectTo: RouteLogin}:
	default:
	}
}

// Teardowns delivers forced teardown notifications
func (s *Session) Teardowns() <-chan Teardown {
	return s.teardowns
}

// Token returns the bearer token, empty when anonymous
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current profile
func (s *Session) User() domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsLoggedIn reports whether a token is held
func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated
}

// LandingRoute returns the route a user lands on for the current session
func (s *Session) LandingRoute() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateAuthenticated {
		return RouteLogin
	}
	if s.user.Role.IsAdmin() {
		return RouteDashboard
	}
	return RouteProfile
}

// Snapshot returns a copy of the full session state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:      s.state,
		IsLoggedIn: s.state == StateAuthenticated,
		User:       s.user,
		Loading:    make(map[string]bool, len(s.loading)),
		Errors:     make(map[string]string, len(s.errors)),
	}
	for k, v := range s.loading {
		snap.Loading[k] = v
	}
	for k, v := range s.errors {
		snap.Errors[k] = v
	}
	return snap
}

// Error returns the error message recorded for op
func (s *Session) Error(op string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors[op]
}

func (s *Session) persist(ctx context.Context, token string, user domain.User) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	roleJSON, err := json.Marshal(user.Role)
	if err != nil {
		return fmt.Errorf("failed to encode role: %w", err)
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user data: %w", err)
	}

	if err := s.storage.Save(ctx, map[string]string{
		KeyToken:    string(tokenJSON),
		KeyRole:     string(roleJSON),
		KeyUserData: string(userJSON),
	}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.token = ""
	s.user = domain.User{Role: domain.RoleUser}
}

func (s *Session) start(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[op] = true
	delete(s.errors, op)
}

func (s *Session) finish(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[op] = false
	if err == nil {
		delete(s.errors, op)
		return
	}
	s.errors[op] = message(op, err)
}

// message renders an operation error; a 401 on login means bad credentials, not an expired session
func message(op string, err error) string {
	var apiErr *apiclient.APIError
	if op == OpLogin && errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if op == OpLogin && errors.Is(err, apiclient.ErrUnauthorized) {
		return "Invalid email or password"
	}
	return apiclient.Message(err)
}
