package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorCode(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_lower_key"}

	assert.Equal(t, pgUniqueViolation, pgErrorCode(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert user: %w", dup)), "wrapped errors are unwrapped")
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.Empty(t, pgErrorCode(nil))
}
