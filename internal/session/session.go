// Package session holds the admin bearer token and its login/teardown lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/localstore"
)

// TokenKey is the localstore key holding the token.
const TokenKey = "admin-token"

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// Store is the process-wide session. The zero value is not usable; call New.
type Store struct {
	kv     localstore.Provider
	logger *slog.Logger

	mu         sync.RWMutex
	token      string
	generation uint64
	onClear    []func()
}

// New restores a persisted token from kv, if any.
func New(kv localstore.Provider, logger *slog.Logger) (*Store, error) {
	if kv == nil {
		kv = localstore.NewMemory()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, logger: logger}
	tok, err := kv.Get(TokenKey)
	switch {
	case err == nil:
		s.token = tok
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return nil, fmt.Errorf("session: restore token: %w", err)
	}
	return s, nil
}

// Login authenticates and stores the returned token.
func (s *Store) Login(ctx context.Context, auth Authenticator, username, password string) (string, error) {
	tok, err := auth.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", apperr.New(apperr.ErrServer, "login", "server returned an empty token")
	}
	if err := s.Set(tok); err != nil {
		return "", err
	}
	s.logger.Info("session: logged in", slog.String("username", username))
	return tok, nil
}

// Set installs a token and persists it.
func (s *Store) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(TokenKey, token); err != nil {
		return fmt.Errorf("session: persist token: %w", err)
	}
	s.token = token
	s.generation++
	return nil
}

// Token returns the current token, or "" when there is no session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// HasSession reports whether a token is held.
func (s *Store) HasSession() bool {
	return s.Token() != ""
}

// Generation increases on every login and teardown.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// OnClear registers fn to run after each teardown.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Clear tears the session down and removes the persisted token.
func (s *Store) Clear() error {
	_, err := s.clear("", true)
	return err
}

// ClearToken tears the session down only if token is still the current one.
// A late 401 for a replaced token leaves the newer session alone.
func (s *Store) ClearToken(token string) bool {
	cleared, err := s.clear(token, true)
	if err != nil {
		s.logger.Warn("session: remove persisted token failed", slog.String("error", err.Error()))
	}
	return cleared
}

func (s *Store) clear(ifToken string, persist bool) (bool, error) {
	s.mu.Lock()
	if ifToken != "" && s.token != ifToken {
		s.mu.Unlock()
		return false, nil
	}
	had := s.token != ""
	s.token = ""
	s.generation++
	var err error
	if persist {
		err = s.kv.Delete(TokenKey)
	}
	hooks := append([]func(){}, s.onClear...)
	s.mu.Unlock()

	if had {
		s.logger.Info("session: cleared")
	}
	for _, fn := range hooks {
		fn()
	}
	return had, err
}

// Watch tears the in-memory session down when another process removes or
// replaces the persisted token. It returns immediately if the store cannot be watched.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.kv.(localstore.Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func(key string, removed bool) {
		if key != TokenKey {
			return
		}
		current := s.Token()
		if removed {
			if current != "" {
				s.logger.Info("session: token removed externally")
				_, _ = s.clear(current, false)
			}
			return
		}
		tok, err := s.kv.Get(TokenKey)
		if err != nil || tok == current {
			return
		}
		s.logger.Info("session: token replaced externally")
		_, _ = s.clear(current, false)
		s.mu.Lock()
		s.token = tok
		s.generation++
		s.mu.Unlock()
	})
}
