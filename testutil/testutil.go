// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	logsvc "github.com/sintimjnr/gctu-project-submission-system/services/logger"
	"github.com/sintimjnr/gctu-project-submission-system/storage/database"
)

// NewConfig returns the TEST configuration with local storage under t.TempDir().
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.Debug = false
	conf.TestMode = true
	conf.RollbarToken = ""
	conf.SecretKey = "test-secret-key"
	conf.Database.Engine = database.EngineSQLite
	conf.Database.Path = ":memory:"
	conf.Blob.Driver = "fs"
	conf.Blob.Dir = t.TempDir()
	conf.Deadline.Timezone = "UTC"
	conf.Deadline.GateResubmissions = false
	return conf
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// OpenDB opens a migrated in-memory sqlite database closed at the end of the test.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     strings.ToLower(email),
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if role == user.RoleStudent {
		usr.Level = "400"
		usr.Programme = "BSc. Computer Science"
		usr.Department = "Computer Science"
		usr.SessionType = "Regular"
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProject(
	t *testing.T,
	repo project.Repository,
	student user.User,
	title string,
	status project.Status,
	createdAt ...time.Time,
) project.Project {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p, err := repo.CreateProject(context.Background(), project.Project{
		Title:       title,
		Description: "Description of " + title,
		Status:      status,
		Version:     1,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
		StudentID:   student.ID,
	})
	if err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	return p
}
