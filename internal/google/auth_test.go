package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testCredentials = `{
  "installed": {
    "client_id": "test-client.apps.googleusercontent.com",
    "client_secret": "test-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob"]
  }
}`

func writeCredentials(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "client_secret.json")
	require.NoError(t, os.WriteFile(path, []byte(testCredentials), 0o600))
	return path
}

func TestNewAuthenticator(t *testing.T) {
	t.Run("ValidCredentials", func(t *testing.T) {
		auth, err := NewAuthenticator(writeCredentials(t))
		require.NoError(t, err)
		assert.NotNil(t, auth)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := NewAuthenticator(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
		_, err := NewAuthenticator(path)
		assert.Error(t, err)
	})
}

func TestAuthCodeURL(t *testing.T) {
	auth, err := NewAuthenticator(writeCredentials(t))
	require.NoError(t, err)

	authURL := auth.AuthCodeURL("12345")

	assert.Contains(t, authURL, "accounts.google.com")
	assert.Contains(t, authURL, "state=12345")
	assert.Contains(t, authURL, "access_type=offline")
	assert.Contains(t, authURL, "prompt=consent")
	assert.Contains(t, authURL, "oob")
	assert.Contains(t, authURL, "drive.file")
	assert.Contains(t, authURL, "spreadsheets")
}

func TestRevoke(t *testing.T) {
	auth, err := NewAuthenticator(writeCredentials(t))
	require.NoError(t, err)

	newServer := func(status int, gotToken *string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			*gotToken = r.Form.Get("token")
			w.WriteHeader(status)
		}))
	}

	t.Run("PrefersRefreshToken", func(t *testing.T) {
		var got string
		srv := newServer(http.StatusOK, &got)
		defer srv.Close()
		auth.httpClient = srv.Client()
		auth.revokeURL = srv.URL

		err := auth.Revoke(context.Background(), &oauth2.Token{AccessToken: "at", RefreshToken: "rt"})
		require.NoError(t, err)
		assert.Equal(t, "rt", got)
	})

	t.Run("AlreadyRevokedIsNotAnError", func(t *testing.T) {
		var got string
		srv := newServer(http.StatusBadRequest, &got)
		defer srv.Close()
		auth.httpClient = srv.Client()
		auth.revokeURL = srv.URL

		err := auth.Revoke(context.Background(), &oauth2.Token{AccessToken: "at"})
		assert.NoError(t, err)
	})

	t.Run("ServerErrorIsReported", func(t *testing.T) {
		var got string
		srv := newServer(http.StatusInternalServerError, &got)
		defer srv.Close()
		auth.httpClient = srv.Client()
		auth.revokeURL = srv.URL

		err := auth.Revoke(context.Background(), &oauth2.Token{AccessToken: "at"})
		assert.Error(t, err)
	})

	t.Run("EmptyTokenIsNoop", func(t *testing.T) {
		assert.NoError(t, auth.Revoke(context.Background(), &oauth2.Token{}))
	})
}
