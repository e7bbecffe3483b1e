package identity

import (
	"context"
	"strings"
)

// Mock authenticates every request as one configured account. It backs the
// AUTH_SKIP development mode.
type Mock struct {
	AccountID string
	Email     string
}

func (m Mock) Authenticate(_ context.Context, creds Credentials) (Identity, error) {
	if m.AccountID == "" {
		return Identity{}, ErrUnavailable
	}
	if m.Email != "" && !strings.EqualFold(strings.TrimSpace(creds.Email), m.Email) {
		return Identity{}, ErrAuthFailed
	}
	return Identity{AccountID: m.AccountID, Email: m.Email, AccessToken: "mock-" + m.AccountID}, nil
}

func (Mock) SignOut(context.Context, string) error {
	return nil
}
