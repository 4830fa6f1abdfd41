package main

import (
	"log"
	"os"

	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/staff"
	"github.com/sitepass/sitepass/core/visitor"
	emailsvc "github.com/sitepass/sitepass/services/email"
	logsvc "github.com/sitepass/sitepass/services/logger"
	"github.com/sitepass/sitepass/storage/database"
	sqlxrepos "github.com/sitepass/sitepass/storage/database/sqlx"
)

var stdLogger *log.Logger

func main() {
	defer os.Exit(0)

	stdLogger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(conf, logger)

	// start CLI
	cli := commandLine{
		db: db,
		visSvc: visitor.NewService(
			sqlxrepos.NewVisitorRepository(db, conf.Database.Engine),
			mailSvc,
			staff.NewDirectory(conf.Staff),
			core.NewClock(),
			logger,
			conf,
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		stdLogger.Fatal(err)
	}
}
