package authclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

const (
	sessionDirName   = ".wfh/sessions"
	sessionFilePerms = 0600
	sessionDirPerms  = 0700
)

// ErrNoSession is returned when no valid session is stored
var ErrNoSession = errors.New("not logged in")

// Session is an authenticated user and their bearer token
type Session struct {
	Token *oauth2.Token `json:"token"`
	User  model.User    `json:"user"`
}

// Valid reports whether the session token is present and unexpired
func (s *Session) Valid() bool {
	return s != nil && s.Token != nil && s.Token.Valid()
}

// SessionStore persists one session per environment on disk, with an in-memory cache
type SessionStore struct {
	dir   string
	mu    sync.Mutex
	cache map[string]*Session
}

// NewSessionStore creates a store rooted at dir. An empty dir uses ~/.wfh/sessions.
func NewSessionStore(dir string) (*SessionStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, sessionDirName)
	}
	return &SessionStore{dir: dir, cache: make(map[string]*Session)}, nil
}

func (s *SessionStore) path(env string) string {
	return filepath.Join(s.dir, fmt.Sprintf("session-%s.json", env))
}

// Load returns the stored session for env, or ErrNoSession when there is none or it expired
func (s *SessionStore) Load(env string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[env]; ok && cached.Valid() {
		return cached, nil
	}

	data, err := os.ReadFile(s.path(env))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if !session.Valid() {
		return nil, ErrNoSession
	}

	s.cache[env] = &session
	return &session, nil
}

// Save writes the session for env with owner-only permissions
func (s *SessionStore) Save(env string, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, sessionDirPerms); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(s.path(env), data, sessionFilePerms); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	s.cache[env] = session
	return nil
}

// Delete removes the stored session for env
func (s *SessionStore) Delete(env string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, env)
	if err := os.Remove(s.path(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
