package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/wfh-portal/internal/config"
)

func TestGetOAuthConfig_GmailScopeOnly(t *testing.T) {
	cfg := &config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:                "id",
		ProjectID:               "p",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "secret",
		RedirectURIs:            []string{"http://localhost"},
	}}

	oauthConfig, err := GetOAuthConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{ScopeGmailSend}, oauthConfig.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", oauthConfig.RedirectURL)
}

func TestTokenStore_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	store, err := NewTokenStore(dir, zap.NewNop())
	require.NoError(t, err)

	token, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, token)

	require.NoError(t, store.Save("test", &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)}))

	info, err := os.Stat(filepath.Join(dir, "token-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err = store.Load("test")
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
}

func TestTokenStore_TokenUsesValidSavedToken(t *testing.T) {
	store, err := NewTokenStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Save("test", &oauth2.Token{AccessToken: "saved", Expiry: time.Now().Add(time.Hour)}))

	token, err := store.Token(context.Background(), &oauth2.Config{}, "test")
	require.NoError(t, err)
	assert.Equal(t, "saved", token.AccessToken)

	// Served from the cache once loaded
	require.NoError(t, os.Remove(store.path("test")))
	token, err = store.Token(context.Background(), &oauth2.Config{}, "test")
	require.NoError(t, err)
	assert.Equal(t, "saved", token.AccessToken)
}
