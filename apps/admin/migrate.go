package main

import (
	"github.com/sintimjnr/gctu-project-submission-system/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
