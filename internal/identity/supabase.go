package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"family-ledger/internal/config"
)

type Supabase struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordGrantResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func NewSupabase(cfg config.SupabaseConfig) *Supabase {
	timeout := cfg.AuthTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Supabase{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.PublishableKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *Supabase) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	if s.baseURL == "" || s.apiKey == "" {
		return Identity{}, fmt.Errorf("%w: supabase not configured", ErrUnavailable)
	}

	body, err := json.Marshal(passwordGrantRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return Identity{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Identity{}, ErrAuthFailed
	default:
		return Identity{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload passwordGrantResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Identity{}, fmt.Errorf("%w: decode token response: %v", ErrUnavailable, err)
	}
	if payload.User.ID == "" || payload.AccessToken == "" {
		return Identity{}, ErrAuthFailed
	}

	return Identity{
		AccountID:   payload.User.ID,
		Email:       payload.User.Email,
		AccessToken: payload.AccessToken,
	}, nil
}

// SignOut revokes the access token found in ctx. Without a token there is
// nothing to revoke at the provider.
func (s *Supabase) SignOut(ctx context.Context, _ string) error {
	token, ok := AccessTokenFromContext(ctx)
	if !ok {
		return nil
	}
	if s.baseURL == "" || s.apiKey == "" {
		return fmt.Errorf("%w: supabase not configured", ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/v1/logout?scope=local", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// 401 means the token is already gone.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
