package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"family-ledger/internal/config"
	"github.com/stretchr/testify/require"
)

func newSupabaseServer(t *testing.T) (*httptest.Server, chan string) {
	t.Helper()
	logouts := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/auth/v1/token":
			var req passwordGrantRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "secret" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "token-" + req.Email,
				"user":         map[string]string{"id": "uid-" + req.Email, "email": req.Email},
			})
		case "/auth/v1/logout":
			logouts <- r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, logouts
}

func TestSupabaseAuthenticate(t *testing.T) {
	srv, _ := newSupabaseServer(t)
	provider := NewSupabase(config.SupabaseConfig{URL: srv.URL + "/", PublishableKey: "test-key", AuthTimeout: time.Second})

	result, err := provider.Authenticate(context.Background(), Credentials{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "uid-a@example.com", result.AccountID)
	require.Equal(t, "token-a@example.com", result.AccessToken)

	_, err = provider.Authenticate(context.Background(), Credentials{Email: "a@example.com", Password: "wrong"})
	require.True(t, errors.Is(err, ErrAuthFailed), "got %v", err)
}

func TestSupabaseAuthenticateNotConfigured(t *testing.T) {
	provider := NewSupabase(config.SupabaseConfig{})
	_, err := provider.Authenticate(context.Background(), Credentials{Email: "a", Password: "b"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestSupabaseSignOutUsesContextToken(t *testing.T) {
	srv, logouts := newSupabaseServer(t)
	provider := NewSupabase(config.SupabaseConfig{URL: srv.URL, PublishableKey: "test-key"})

	require.NoError(t, provider.SignOut(context.Background(), "uid"))
	require.Len(t, logouts, 0)

	ctx := WithAccessToken(context.Background(), "tok")
	require.NoError(t, provider.SignOut(ctx, "uid"))
	require.Equal(t, "Bearer tok", <-logouts)
}

func TestMockProvider(t *testing.T) {
	mock := Mock{AccountID: "u1", Email: "dev@example.com"}
	result, err := mock.Authenticate(context.Background(), Credentials{Email: "DEV@example.com"})
	require.NoError(t, err)
	require.Equal(t, "u1", result.AccountID)

	_, err = mock.Authenticate(context.Background(), Credentials{Email: "other@example.com"})
	require.ErrorIs(t, err, ErrAuthFailed)
}
