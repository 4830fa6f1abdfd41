package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/sitepass/sitepass/core/visitor"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	visSvc *visitor.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  sweep   - run the overtime visitor sweep now")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	sweepCmd := flag.NewFlagSet("sweep", flag.ExitOnError)

	switch args[1] {
	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.migrate()
	case "sweep":
		if err := sweepCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.sweep()
	default:
		cli.printUsage()
		return errHelp
	}
}
