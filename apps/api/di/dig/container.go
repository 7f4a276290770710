package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/Faiver55/skylearn-flashcards-sub001/apps/api/echo"
	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/option"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
	emailsvc "github.com/Faiver55/skylearn-flashcards-sub001/services/email"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/lms/learndash"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/lms/tutorlms"
	logsvc "github.com/Faiver55/skylearn-flashcards-sub001/services/logger"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/marketing"
	"github.com/Faiver55/skylearn-flashcards-sub001/storage/database"
	sqlxrepos "github.com/Faiver55/skylearn-flashcards-sub001/storage/database/sqlx"
	rediskv "github.com/Faiver55/skylearn-flashcards-sub001/storage/kv/redis"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	UserSvc     user.ServiceInterface
	SetSvc      *flashcard.Service
	ProgressSvc *progress.Service
	LeadSvc     *lead.Service
	Gate        plan.Gate

	Registry  *lms.Registry
	Settings  *lms.SettingsStore
	Resolver  *lms.Resolver
	Forwarder *lms.Forwarder
}

func newNamedLogger(conf *core.Config, name string) core.Logger {
	local, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("building %s logger: %v", name, err)
	}
	return logsvc.NewRollbarLogger(local.Named(name), conf)
}

func newLogger(conf *core.Config) core.Logger {
	return newNamedLogger(conf, "api")
}

func newDBLogger(conf *core.Config) core.Logger {
	return newNamedLogger(conf, "db")
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

// newOptionStore keeps the options in Redis when it is configured, in the database otherwise.
func newOptionStore(conf *core.Config, db core.DBExecutor, loggerParam DBLoggerParam) option.Store {
	if conf.Redis.Addr == "" {
		return sqlxrepos.NewOptionStore(db)
	}
	rdb, err := rediskv.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	return rediskv.NewOptionStore(rdb)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	flashcard.RegisterValidators(validate, translator)
	return validate
}

// newRegistry registers the supported LMS, highest priority first.
func newRegistry(conf *core.Config, users user.ServiceInterface, logger core.Logger) *lms.Registry {
	return lms.NewRegistry(
		logger,
		learndash.New(conf.LMS.LearnDash, conf.LMS.Timeout, users).Integration(),
		tutorlms.New(conf.LMS.TutorLMS, conf.LMS.Timeout, users).Integration(),
	)
}

func newForwarder(progressSvc *progress.Service, sets *flashcard.Service, logger core.Logger) *lms.Forwarder {
	return lms.NewForwarder(progressSvc, sets, logger)
}

func newServer(p serverParams) *echoapi.Server {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	return echoapi.NewServer(p.Conf.Server.Host, shutdown, &echoapi.Deps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Validate:    p.Validate,
		Translator:  p.Translator,
		UserSvc:     p.UserSvc,
		SetSvc:      p.SetSvc,
		ProgressSvc: p.ProgressSvc,
		LeadSvc:     p.LeadSvc,
		Gate:        p.Gate,
		Registry:    p.Registry,
		Settings:    p.Settings,
		Resolver:    p.Resolver,
		Forwarder:   p.Forwarder,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newOptionStore))
	must(c.Provide(newEmailService))
	must(c.Provide(plan.NewGate))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewSetRepository))
	must(c.Provide(sqlxrepos.NewCompletionRepository))
	must(c.Provide(sqlxrepos.NewLeadRepository))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(progress.NewService))
	must(c.Provide(flashcard.NewService))
	must(c.Provide(marketing.Providers))
	must(c.Provide(lead.NewService))

	// lms
	must(c.Provide(newRegistry))
	must(c.Provide(lms.NewSettingsStore))
	must(c.Provide(lms.NewResolver))
	must(c.Provide(newForwarder))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
