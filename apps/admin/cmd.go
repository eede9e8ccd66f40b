package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	usrSvc user.Service
	dlSvc  deadline.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...]                  - run a goose command: up, down, status, version, up-to VERSION...")
	fmt.Println("  adduser -name NAME -email EMAIL [-admin]   - add a student (or an admin); the password is prompted")
	fmt.Println("  resetpassword -email EMAIL                 - set a user's password; the password is prompted")
	fmt.Println("  setdeadline -at YYYY-MM-DDTHH:MM           - set the submission deadline")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Create an admin instead of a student.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	setDeadlineCmd := flag.NewFlagSet("setdeadline", flag.ContinueOnError)
	setDeadlineAt := setDeadlineCmd.String("at", "", "The new deadline, YYYY-MM-DDTHH:MM in the configured timezone.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := parse(addUserCmd, args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, pwd, *addUserAdmin)
	case "resetpassword":
		if err := parse(resetPasswordCmd, args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "setdeadline":
		if err := parse(setDeadlineCmd, args[2:]); err != nil {
			return err
		}
		if *setDeadlineAt == "" {
			setDeadlineCmd.Usage()
			return errHelp
		}
		return cli.setDeadline(*setDeadlineAt)
	default:
		cli.printUsage()
		return errHelp
	}
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
