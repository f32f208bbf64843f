package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOAuthClient = `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "wfh-mailer",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.json")
	require.NoError(t, os.WriteFile(path, []byte(validOAuthClient), 0600))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "wfh-mailer", cfg.Installed.ProjectID)
	assert.Equal(t, []string{"http://localhost"}, cfg.Installed.RedirectURIs)
}

func TestLoadOAuthClientFromPath_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"malformed json", `{"installed":`, "failed to parse oauth client file"},
		{"missing client id", `{"installed":{"project_id":"p","auth_uri":"https://a","token_uri":"https://t","auth_provider_x509_cert_url":"https://c","client_secret":"s","redirect_uris":["http://localhost"]}}`, "validation failed"},
		{"bad auth uri", `{"installed":{"client_id":"c","project_id":"p","auth_uri":"not-a-url","token_uri":"https://t","auth_provider_x509_cert_url":"https://c","client_secret":"s","redirect_uris":["http://localhost"]}}`, "validation failed"},
		{"no redirect uris", `{"installed":{"client_id":"c","project_id":"p","auth_uri":"https://a","token_uri":"https://t","auth_provider_x509_cert_url":"https://c","client_secret":"s","redirect_uris":[]}}`, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "oauthClient.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := LoadOAuthClientFromPath(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadOAuthClientWithEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	_, err := LoadOAuthClientWithEnv("test")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "oauthClient.test.json"), []byte(validOAuthClient), 0600))
	cfg, err := LoadOAuthClientWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "test-secret", cfg.Installed.ClientSecret)
}
