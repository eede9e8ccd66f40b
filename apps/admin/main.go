package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	emailsvc "github.com/sintimjnr/gctu-project-submission-system/services/email"
	logsvc "github.com/sintimjnr/gctu-project-submission-system/services/logger"
	"github.com/sintimjnr/gctu-project-submission-system/storage/database"
	sqlxrepos "github.com/sintimjnr/gctu-project-submission-system/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB
	ctx := context.Background()
	errAndDie(database.CreateIfNotExist(ctx, conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(ctx, db))

	// set up services
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(appLogger, conf), appLogger, conf)
	dlSvc, err := deadline.NewService(sqlxrepos.NewDeadlineRepository(db), appLogger, conf)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: usrSvc,
		dlSvc:  dlSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", describe(err))
		}
		db.Close()
		os.Exit(1)
	}
}

// describe lists the field errors of a validation failure.
func describe(err error) string {
	if fields, ok := core.FieldErrors(errors.Cause(err)); ok {
		msg := "invalid input"
		for fld, e := range fields {
			msg += "\n  " + fld + ": " + e
		}
		return msg
	}
	return err.Error()
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
