package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

// migrationEngine is the driver RunMigrations was last called for.
// Go migrations need it where the two engines disagree on DDL.
var migrationEngine = EnginePostgres

func init() {
	goose.AddNamedMigrationContext("20260101000002_insertion_seq.go", upInsertionSeq, downInsertionSeq)
}

var seqTables = []string{"users", "projects"}

// upInsertionSeq gives users and projects a monotonic seq column so listings
// keep insertion order when created_at ties.
func upInsertionSeq(ctx context.Context, tx *sql.Tx) error {
	var stmts []string
	for _, t := range seqTables {
		if migrationEngine == EngineSQLite {
			// sqlite cannot add an autoincrement column; rowid grows with each insert
			stmts = append(stmts,
				`ALTER TABLE `+t+` ADD COLUMN seq INTEGER`,
				`UPDATE `+t+` SET seq = rowid`,
				`CREATE TRIGGER `+t+`_seq_trg AFTER INSERT ON `+t+` WHEN NEW.seq IS NULL
				 BEGIN UPDATE `+t+` SET seq = NEW.rowid WHERE rowid = NEW.rowid; END`,
			)
		} else {
			stmts = append(stmts, `ALTER TABLE `+t+` ADD COLUMN seq BIGSERIAL`)
		}
		stmts = append(stmts, `CREATE UNIQUE INDEX `+t+`_seq_key ON `+t+` (seq)`)
	}
	return execAll(ctx, tx, stmts)
}

func downInsertionSeq(ctx context.Context, tx *sql.Tx) error {
	var stmts []string
	for _, t := range seqTables {
		if migrationEngine == EngineSQLite {
			stmts = append(stmts, `DROP TRIGGER `+t+`_seq_trg`)
		}
		stmts = append(stmts,
			`DROP INDEX `+t+`_seq_key`,
			`ALTER TABLE `+t+` DROP COLUMN seq`,
		)
	}
	return execAll(ctx, tx, stmts)
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return errors.Wrapf(err, "executing %q", s)
		}
	}
	return nil
}
