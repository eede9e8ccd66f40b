package main

import (
	"context"
	"fmt"

	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

// cliIdentity is the operator running the admin CLI.
var cliIdentity = user.Identity{Name: "admin cli", Role: user.RoleAdmin}

func (cli *commandLine) setDeadline(at string) error {
	loc := cli.dlSvc.Location()
	t, err := deadline.ParseInput(at, loc)
	if err != nil {
		return err
	}
	chg, err := cli.dlSvc.Set(context.Background(), cliIdentity, t)
	if err != nil {
		return err
	}
	fmt.Printf("deadline set to %s (%s)\n", chg.Deadline.In(loc).Format(deadline.InputLayout), loc)
	if chg.InPast {
		fmt.Println("warning: the deadline is in the past, students can no longer submit projects")
	}
	return nil
}
