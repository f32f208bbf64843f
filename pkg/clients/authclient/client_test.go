package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
)

func TestAuthenticate_Success(t *testing.T) {
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ann@example.com", creds["email"])
		assert.Equal(t, "secret", creds["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "ok",
			"data": map[string]any{
				"token":     "jwt-token",
				"expiresAt": expiry,
				"user":      map[string]any{"staffId": 11, "name": "Ann", "position": "Staff"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zap.NewNop())
	session, err := client.Authenticate(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "jwt-token", session.Token.AccessToken)
	assert.Equal(t, "Bearer", session.Token.TokenType)
	assert.True(t, session.Token.Expiry.Equal(expiry))
	assert.Equal(t, 11, session.User.StaffID)
	assert.True(t, session.Valid())
}

func TestAuthenticate_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Invalid email or password"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zap.NewNop())
	_, err := client.Authenticate(context.Background(), "ann@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestHTTPClient_AddsBearerToken(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
	}))
	defer server.Close()

	session := &Session{Token: &oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}}
	client := HTTPClient(context.Background(), session, 5*time.Second)
	assert.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer abc", authHeader)

	resp, err = HTTPClient(context.Background(), nil, 0).Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, authHeader)
}

func TestSessionStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	store, err := NewSessionStore(dir)
	require.NoError(t, err)

	_, err = store.Load("test")
	assert.ErrorIs(t, err, ErrNoSession)

	session := &Session{
		Token: &oauth2.Token{AccessToken: "abc", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)},
		User:  model.User{StaffID: 11, Name: "Ann"},
	}
	require.NoError(t, store.Save("test", session))

	info, err := os.Stat(filepath.Join(dir, "session-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A fresh store reads from disk rather than the cache
	fresh, err := NewSessionStore(dir)
	require.NoError(t, err)
	loaded, err := fresh.Load("test")
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.Token.AccessToken)
	assert.Equal(t, 11, loaded.User.StaffID)

	_, err = fresh.Load("prod")
	assert.ErrorIs(t, err, ErrNoSession, "sessions are per environment")

	require.NoError(t, fresh.Delete("test"))
	_, err = fresh.Load("test")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, fresh.Delete("test"), "deleting twice is fine")
}

func TestSessionStore_ExpiredSession(t *testing.T) {
	store, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("test", &Session{
		Token: &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(-time.Minute)},
	}))

	fresh, err := NewSessionStore(store.dir)
	require.NoError(t, err)
	_, err = fresh.Load("test")
	assert.ErrorIs(t, err, ErrNoSession)
}
