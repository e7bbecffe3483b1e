package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "wrapped", err: fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestConstraintClassifiers(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})))
	assert.True(t, IsInvalidInput(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}

func TestNewTransactorAttempts(t *testing.T) {
	assert.Equal(t, defaultTxAttempts, NewTransactor(nil, -1).attempts)
	assert.Equal(t, 1, NewTransactor(nil, 0).attempts)
	assert.Equal(t, 5, NewTransactor(nil, 4).attempts)
}

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames(migrationFiles)
	assert.NoError(t, err)
	assert.NotEmpty(t, names)
	assert.Equal(t, "0001_membership.sql", names[0])
}
