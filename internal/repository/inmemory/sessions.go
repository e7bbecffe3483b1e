package inmemory

import (
	"context"

	sessiondomain "family-ledger/internal/domain/session"
)

type SessionRepository struct {
	store *Store
	tx    *state
}

func (r *SessionRepository) v() view {
	return view{store: r.store, tx: r.tx}
}

func (r *SessionRepository) Transaction(ctx context.Context, fn func(sessiondomain.Repository) error) error {
	return r.v().transaction(ctx, func(tx view) error {
		return fn(&SessionRepository{store: tx.store, tx: tx.tx})
	})
}

func (r *SessionRepository) LockSession(ctx context.Context, userID string) (*sessiondomain.Session, error) {
	var result sessiondomain.Session
	err := r.v().do(ctx, "LockSession", func(st *state) error {
		sess, ok := st.sessions[userID]
		if !ok {
			sess = sessiondomain.Session{UserID: userID, LastUpdated: r.store.now()}
			st.sessions[userID] = sess
		}
		result = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *SessionRepository) GetSession(ctx context.Context, userID string) (*sessiondomain.Session, error) {
	var result sessiondomain.Session
	err := r.v().read(ctx, "GetSession", func(st *state) error {
		sess, ok := st.sessions[userID]
		if !ok {
			return sessiondomain.ErrSessionNotFound
		}
		result = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *SessionRepository) Activate(ctx context.Context, userID, deviceID string) error {
	return r.v().do(ctx, "Activate", func(st *state) error {
		st.sessions[userID] = sessiondomain.Session{
			UserID:      userID,
			Active:      true,
			DeviceID:    deviceID,
			LastUpdated: r.store.now(),
		}
		return nil
	})
}

func (r *SessionRepository) Deactivate(ctx context.Context, userID string) error {
	return r.v().do(ctx, "Deactivate", func(st *state) error {
		sess := st.sessions[userID]
		sess.UserID = userID
		sess.Active = false
		sess.LastUpdated = r.store.now()
		st.sessions[userID] = sess
		return nil
	})
}
