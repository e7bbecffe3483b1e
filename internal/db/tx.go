package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const defaultTxAttempts = 3

// ErrTransactionAborted is returned when a transaction kept losing to
// concurrent writers after all retry attempts.
var ErrTransactionAborted = errors.New("transaction aborted")

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateInvalidText          = "22P02"
)

// Transactor runs transaction bodies with bounded retry on serialization
// failures and deadlocks. Bodies may run more than once and must not have
// side effects outside the transaction.
type Transactor struct {
	db       *gorm.DB
	attempts int
}

func NewTransactor(db *gorm.DB, maxRetries int) *Transactor {
	// A negative value selects the default; zero disables retry.
	attempts := maxRetries + 1
	if maxRetries < 0 {
		attempts = defaultTxAttempts
	}
	return &Transactor{db: db, attempts: attempts}
}

func (t *Transactor) DB() *gorm.DB {
	return t.db
}

func (t *Transactor) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < t.attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = t.db.WithContext(ctx).Transaction(fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
}

func IsRetryable(err error) bool {
	return hasCode(err, sqlStateSerializationFailure, sqlStateDeadlockDetected)
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, sqlStateUniqueViolation)
}

func IsForeignKeyViolation(err error) bool {
	return hasCode(err, sqlStateForeignKeyViolation)
}

// IsInvalidInput reports a value postgres could not parse, such as a
// malformed uuid in a lookup.
func IsInvalidInput(err error) bool {
	return hasCode(err, sqlStateInvalidText)
}

func hasCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, code := range codes {
		if pgErr.Code == code {
			return true
		}
	}
	return false
}
