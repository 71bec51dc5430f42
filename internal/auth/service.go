// Package auth owns the persisted session identity (current_user and
// auth_token) and drives the cart manager's active session. The token is an
// opaque pass-through issued by the external API; nothing here validates it.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

const (
	currentUserKey = "current_user"
	authTokenKey   = "auth_token"
)

type cartSessions interface {
	SetActiveUser(ctx context.Context, userID int64)
}

type Service struct {
	store  kv.Store
	carts  cartSessions
	logger *log.Logger

	mu      sync.Mutex
	current *domain.User
	token   string
}

func New(store kv.Store, carts cartSessions, logger *log.Logger) *Service {
	return &Service{store: store, carts: carts, logger: logger}
}

// Bootstrap restores the persisted session at process start and aligns the
// cart manager with it. A corrupt or absent current_user entry resolves to
// guest. Call exactly once.
func (s *Service) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	s.current = s.loadUser(ctx)
	s.token = s.loadToken(ctx)

	var userID int64
	if s.current != nil {
		userID = s.current.ID
	}
	s.mu.Unlock()

	s.carts.SetActiveUser(ctx, userID)
}

// SetSession records a successful login or registration: persists the
// profile and token, then hands the new identity to the cart manager.
func (s *Service) SetSession(ctx context.Context, user domain.User, token string) {
	s.mu.Lock()
	s.current = &user
	s.token = token

	if raw, err := json.Marshal(user); err == nil {
		if err := s.store.Set(ctx, currentUserKey, string(raw)); err != nil {
			s.logger.Printf("persist %s: %v", currentUserKey, err)
		}
	}
	if err := s.store.Set(ctx, authTokenKey, token); err != nil {
		s.logger.Printf("persist %s: %v", authTokenKey, err)
	}
	s.mu.Unlock()

	s.carts.SetActiveUser(ctx, user.ID)
}

// ClearSession logs out: removes the persisted identity and returns the
// cart manager to the guest session.
func (s *Service) ClearSession(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.token = ""

	if err := s.store.Delete(ctx, currentUserKey); err != nil {
		s.logger.Printf("remove %s: %v", currentUserKey, err)
	}
	if err := s.store.Delete(ctx, authTokenKey); err != nil {
		s.logger.Printf("remove %s: %v", authTokenKey, err)
	}
	s.mu.Unlock()

	s.carts.SetActiveUser(ctx, 0)
}

// CurrentUser returns the active profile, or nil for a guest session.
func (s *Service) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Service) IsAdmin() bool {
	u := s.CurrentUser()
	return u != nil && u.Role == domain.RoleAdmin
}

func (s *Service) loadUser(ctx context.Context) *domain.User {
	raw, err := s.store.Get(ctx, currentUserKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Printf("load %s: %v", currentUserKey, err)
		}
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID <= 0 {
		return nil
	}
	return &u
}

func (s *Service) loadToken(ctx context.Context) string {
	raw, err := s.store.Get(ctx, authTokenKey)
	if err != nil {
		return ""
	}
	return raw
}
