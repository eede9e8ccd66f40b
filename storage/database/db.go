package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	appfs "github.com/sintimjnr/gctu-project-submission-system/fs"
)

const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"

	migrationsDir = "migrations"
)

func init() {
	// modernc registers itself as "sqlite", unknown to sqlx
	sqlx.BindDriver(EngineSQLite, sqlx.QUESTION)
}

func postgresDSN(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SQLiteDSN builds a modernc sqlite DSN with foreign keys enabled.
// path ":memory:" opens a private in-memory database.
func SQLiteDSN(path string) string {
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// Open connects to the configured database engine.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case EnginePostgres:
		return sqlx.Open(EnginePostgres, postgresDSN(conf.Database.Name, false, conf))
	case EngineSQLite:
		return OpenSQLite(conf.Database.Path)
	default:
		return nil, fmt.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
}

func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open(EngineSQLite, SQLiteDSN(path))
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// sqlite serialises writes; a single connection also keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	return db, nil
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func queryExists(db *sql.DB, q string, args ...interface{}) (bool, error) {
	var exists bool
	err := db.QueryRow(q, args...).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return exists, err
}

func createAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" || conf.Database.AdminUser == "" {
		return nil
	}

	exists, err := queryExists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}

	// create app user if not exist
	if !exists {
		q := fmt.Sprintf("CREATE USER %q CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sql.DB, conf *core.Config) error {
	exists, err := queryExists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %q", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the postgres role and database. sqlite files are created on open.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	if conf.Database.Engine != EnginePostgres {
		return nil
	}

	// connect as admin
	adb, err := sqlx.Open(EnginePostgres, postgresDSN("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = adb.Close() }()

	if err = Ping(ctx, adb); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(adb.DB, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	udb, err := sqlx.Open(EnginePostgres, postgresDSN("postgres", false, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = udb.Close() }()
	if err = createDB(udb.DB, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

func gooseDialect(driverName string) string {
	if driverName == EngineSQLite {
		return "sqlite3"
	}
	return driverName
}

// RunMigrations runs a goose command (up, down, status, version...) on db.
func RunMigrations(db *sqlx.DB, command string, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	migrationEngine = db.DriverName()
	if err := goose.SetDialect(gooseDialect(db.DriverName())); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	return goose.Run(command, db.DB, migrationsDir, args...)
}

func Migrate(db *sqlx.DB) error {
	goose.SetLogger(goose.NopLogger())
	if err := RunMigrations(db, "up"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
