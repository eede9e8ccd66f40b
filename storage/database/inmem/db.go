// Package inmemdb keeps repositories in memory. Used by tests and the "memory" database engine.
package inmemdb

import (
	"sync"
	"time"

	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

type DB struct {
	mu       sync.RWMutex
	users    []*user.User // insertion order
	projects []*project.Project
	deadline *time.Time
}

func Open() *DB {
	return &DB{}
}

func (db *DB) userByID(id string) *user.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (db *DB) projectIndex(id string) int {
	for i, p := range db.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}
