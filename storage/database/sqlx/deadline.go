package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
)

type deadlineRepository struct {
	repo
}

var _ deadline.Repository = (*deadlineRepository)(nil) // interface compliance check

func NewDeadlineRepository(exec core.DBExecutor) *deadlineRepository {
	return &deadlineRepository{repo{exec: exec}}
}

func (r *deadlineRepository) GetDeadline(ctx context.Context) (time.Time, error) {
	var t time.Time
	if err := sqlx.GetContext(ctx, r.exec, &t, `SELECT deadline FROM submission_deadline WHERE id = 1`); err != nil {
		return time.Time{}, trapNoRows(err, deadline.ErrNotSet, "selecting deadline")
	}
	return t.UTC(), nil
}

func (r *deadlineRepository) SetDeadline(ctx context.Context, t time.Time) error {
	q := r.rebind(`INSERT INTO submission_deadline (id, deadline) VALUES (1, ?)
ON CONFLICT (id) DO UPDATE SET deadline = excluded.deadline`)
	if _, err := r.exec.ExecContext(ctx, q, t.UTC()); err != nil {
		return errors.Wrap(err, "saving deadline")
	}
	return nil
}
