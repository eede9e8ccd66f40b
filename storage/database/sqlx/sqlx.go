// Package sqlxrepos implements the repositories on top of sqlx.
// Queries are written with ? placeholders and rebound for the driver in use.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

type repo struct {
	exec core.DBExecutor
}

// rebind converts ? placeholders for the underlying driver.
func (r repo) rebind(q string) string {
	return r.exec.Rebind(q)
}

// isUniqueViolation reports whether err is a unique constraint violation on postgres or sqlite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// trapNoRows maps sql.ErrNoRows to notFound.
func trapNoRows(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func newID() string {
	return uuid.New().String()
}
