package inmemdb

import (
	"context"
	"time"

	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
)

type deadlineRepository struct {
	db *DB
}

var _ deadline.Repository = (*deadlineRepository)(nil)

func NewDeadlineRepository(db *DB) *deadlineRepository {
	return &deadlineRepository{db: db}
}

func (repo *deadlineRepository) GetDeadline(_ context.Context) (time.Time, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if repo.db.deadline == nil {
		return time.Time{}, deadline.ErrNotSet
	}
	return *repo.db.deadline, nil
}

func (repo *deadlineRepository) SetDeadline(_ context.Context, t time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t = t.UTC()
	repo.db.deadline = &t
	return nil
}
