package services

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"membership-system/internal/status"
)

func TestLookupErrorMissingRowIsNotFound(t *testing.T) {
	err := lookupError("ticket-1", sql.ErrNoRows)

	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestLookupErrorWrappedMissingRowIsNotFound(t *testing.T) {
	err := lookupError("ticket-1", fmt.Errorf("query tickets: %w", sql.ErrNoRows))

	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestLookupErrorKeepsStorageFaults(t *testing.T) {
	// A transient driver error must stay a fault so callers report it
	// as retryable instead of a terminal NotFound.
	cause := errors.New("database is locked")
	err := lookupError("ticket-1", cause)

	assert.NotErrorIs(t, err, status.ErrTicketNotFound)
	assert.ErrorIs(t, err, cause)
}
