// Package identity is the boundary to the external identity provider. Its
// notion of "signed in" is separate from the single-device session record
// kept by the session guard.
package identity

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed  = errors.New("authentication failed")
	ErrUnavailable = errors.New("identity provider unavailable")
)

type Credentials struct {
	Email    string
	Password string
}

type Identity struct {
	AccountID   string
	Email       string
	AccessToken string
}

type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
	SignOut(ctx context.Context, accountID string) error
}

type contextKey int

const accessTokenKey contextKey = iota

// WithAccessToken attaches the caller's provider token so SignOut can revoke
// it without threading it through every call.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
