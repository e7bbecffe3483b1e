package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"family-ledger/internal/identity"
	"family-ledger/pkg/logger"
)

// Guard enforces at most one active session per account across devices.
type Guard struct {
	repo     Repository
	identity identity.Provider
	log      logger.Logger
}

func NewGuard(repo Repository, provider identity.Provider, log logger.Logger) *Guard {
	if log == nil {
		log = logger.Nop()
	}
	return &Guard{repo: repo, identity: provider, log: log}
}

// Login authenticates at the identity provider and then claims the session
// for deviceID. A login from the device already holding the session succeeds.
func (g *Guard) Login(ctx context.Context, creds identity.Credentials, deviceID string) (identity.Identity, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return identity.Identity{}, ErrDeviceRequired
	}

	ident, err := g.identity.Authenticate(ctx, creds)
	if err != nil {
		return identity.Identity{}, err
	}

	err = g.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.LockSession(ctx, ident.AccountID)
		if err != nil {
			return err
		}
		if current.Active && current.DeviceID != deviceID {
			return ErrSessionConflict
		}
		return tx.Activate(ctx, ident.AccountID, deviceID)
	})
	if err != nil {
		if errors.Is(err, ErrSessionConflict) {
			g.log.BusinessError("session.login: conflict", err, "user_id", ident.AccountID, "device_id", deviceID)
			g.rollbackIdentity(ctx, ident)
			return identity.Identity{}, err
		}
		return identity.Identity{}, fmt.Errorf("claim session: %w", err)
	}

	g.log.Info("session.login: claimed", "user_id", ident.AccountID, "device_id", deviceID)
	return ident, nil
}

// Logout releases the session. The session write is best effort so that a
// store failure never keeps the user signed in at the provider.
func (g *Guard) Logout(ctx context.Context, accountID string) error {
	if err := g.repo.Deactivate(ctx, accountID); err != nil {
		g.log.InternalError("session.logout: deactivate failed", err, "user_id", accountID)
	}

	if err := g.identity.SignOut(ctx, accountID); err != nil {
		g.log.InternalError("session.logout: provider sign out failed", err, "user_id", accountID)
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}

func (g *Guard) Status(ctx context.Context, accountID string) (*Session, error) {
	return g.repo.GetSession(ctx, accountID)
}

func (g *Guard) rollbackIdentity(ctx context.Context, ident identity.Identity) {
	signOutCtx := identity.WithAccessToken(ctx, ident.AccessToken)
	if err := g.identity.SignOut(signOutCtx, ident.AccountID); err != nil {
		g.log.InternalError("session.login: provider rollback failed", err, "user_id", ident.AccountID)
	}
}
