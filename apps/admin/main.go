package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
	appfs "github.com/Faiver55/skylearn-flashcards-sub001/fs"
	emailsvc "github.com/Faiver55/skylearn-flashcards-sub001/services/email"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/lms/learndash"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/lms/tutorlms"
	logsvc "github.com/Faiver55/skylearn-flashcards-sub001/services/logger"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/marketing"
	"github.com/Faiver55/skylearn-flashcards-sub001/storage/database"
	sqlxrepos "github.com/Faiver55/skylearn-flashcards-sub001/storage/database/sqlx"
	rediskv "github.com/Faiver55/skylearn-flashcards-sub001/storage/kv/redis"
)

func main() {
	conf := core.NewConfig()

	local, err := logsvc.NewZapLogger(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(local.Named("admin"), conf)

	code := run(conf, logger)
	logger.Sync()
	os.Exit(code)
}

func run(conf *core.Config, logger core.Logger) int {
	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer db.Close()

	var store option.Store = sqlxrepos.NewOptionStore(db)
	if conf.Redis.Addr != "" {
		rdb, err := rediskv.Open(context.Background(), conf)
		if err != nil {
			logger.Error(fmt.Sprintf("connecting to redis: %v", err), err)
			return 1
		}
		defer rdb.Close()
		store = rediskv.NewOptionStore(rdb)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	if w, ok := mailSvc.(interface{ Wait() }); ok {
		defer w.Wait()
	}
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	gate := plan.NewGate(conf)
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	setSvc := flashcard.NewService(sqlxrepos.NewSetRepository(db), progress.NewService(sqlxrepos.NewCompletionRepository(db)), gate)

	// start CLI
	cli := commandLine{
		db:      db.DB,
		usrRepo: usrRepo,
		registry: lms.NewRegistry(
			logger,
			learndash.New(conf.LMS.LearnDash, conf.LMS.Timeout, usrSvc).Integration(),
			tutorlms.New(conf.LMS.TutorLMS, conf.LMS.Timeout, usrSvc).Integration(),
		),
		settings: lms.NewSettingsStore(store, logger),
		leadSvc:  lead.NewService(sqlxrepos.NewLeadRepository(db), setSvc, marketing.Providers(conf), mailSvc, gate, conf, logger),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		return 1
	}
	return 0
}
