package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/wfh-portal/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".wfh/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
)

// ScopeGmailSend is the only Google scope the mailer needs
const ScopeGmailSend = "https://www.googleapis.com/auth/gmail.send"

// GetOAuthConfig builds the Gmail OAuth2 config from the client file
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	oauthConfigJSON, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(oauthConfigJSON, ScopeGmailSend)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)
	return googleConfig, nil
}

// TokenStore keeps Google OAuth tokens per environment in memory and on disk
type TokenStore struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]*oauth2.Token
}

// NewTokenStore creates a store rooted at dir. An empty dir uses ~/.wfh/tokens.
func NewTokenStore(dir string, logger *zap.Logger) (*TokenStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, tokenDirName)
	}
	return &TokenStore{dir: dir, logger: logger, cache: make(map[string]*oauth2.Token)}, nil
}

func (s *TokenStore) path(env string) string {
	return filepath.Join(s.dir, fmt.Sprintf("token-%s.json", env))
}

// Load returns the token saved for env, or nil when none exists
func (s *TokenStore) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path(env))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

// Save writes the token for env with owner-only permissions
func (s *TokenStore) Save(env string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path(env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Token returns a usable token for env. A saved token is refreshed when it has
// expired; with no usable token the browser authorization flow runs.
// Only one flow runs at a time.
func (s *TokenStore) Token(ctx context.Context, oauthConfig *oauth2.Config, env string) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached := s.cache[env]; cached.Valid() {
		return cached, nil
	}

	saved, err := s.Load(env)
	if err != nil {
		s.logger.Warn("Failed to load saved token", zap.Error(err))
	}

	if saved != nil {
		if saved.Valid() {
			s.cache[env] = saved
			return saved, nil
		}
		if saved.RefreshToken != "" {
			refreshed, err := oauthConfig.TokenSource(ctx, saved).Token()
			if err == nil {
				s.logger.Info("Gmail token refreshed")
				if err := s.Save(env, refreshed); err != nil {
					s.logger.Warn("Failed to save refreshed token", zap.Error(err))
				}
				s.cache[env] = refreshed
				return refreshed, nil
			}
			s.logger.Warn("Failed to refresh token, starting authorization flow", zap.Error(err))
		}
	}

	authURL := oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the mailer:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := s.Save(env, token); err != nil {
		s.logger.Warn("Failed to save token", zap.Error(err))
	}
	s.cache[env] = token
	return token, nil
}

// listenForAuthCallback serves the OAuth redirect on AuthPort until a code arrives
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			select {
			case errChan <- fmt.Errorf("no authorization code received"):
			default:
			}
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)
		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", AuthPort), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error
	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	return code, authErr
}
