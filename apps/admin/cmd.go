package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	usrRepo  user.Repository
	registry *lms.Registry
	settings *lms.SettingsStore
	leadSvc  *lead.Service
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) on the database")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-admin|-author] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  lms detect - list the supported LMS and whether they are active")
	fmt.Fprintln(cli.out, "  lms settings [-enabled=BOOL] [-accuracy N] [-autocomplete=BOOL] [-grades=BOOL] [-tracking=BOOL] [-restrict=BOOL] - print or update the LMS settings")
	fmt.Fprintln(cli.out, "  leads export - write every lead as CSV")
	fmt.Fprintln(cli.out, "  leads export-mail - e-mail the leads export to the site owner")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
		addUserCmd.SetOutput(cli.out)
		uname := addUserCmd.String("username", "", "The user's username.")
		email := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
		name := addUserCmd.String("name", "", "The user's name.")
		isAdmin := addUserCmd.Bool("admin", false, "Grant every role.")
		isAuthor := addUserCmd.Bool("author", false, "Grant the author role.")
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *uname == "" || *email == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		roles := user.LearnerRoles
		switch {
		case *isAdmin:
			roles = user.AllRoles
		case *isAuthor:
			roles = user.AuthorRoles
		}
		return cli.addUser(*name, *uname, *email, pwd, roles)

	case "resetpassword":
		resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
		resetPasswordCmd.SetOutput(cli.out)
		resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "lms":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		switch args[2] {
		case "detect":
			return cli.detectLMS()
		case "settings":
			return cli.lmsSettings(args[3:])
		}
		cli.printUsage()
		return errHelp

	case "leads":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		switch args[2] {
		case "export":
			return cli.exportLeads()
		case "export-mail":
			return cli.mailLeads()
		}
		cli.printUsage()
		return errHelp

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
