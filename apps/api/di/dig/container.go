// Package container wires the API dependencies with dig.
package container

import (
	"context"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/sintimjnr/gctu-project-submission-system/apps/api/echo"
	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/report"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	emailsvc "github.com/sintimjnr/gctu-project-submission-system/services/email"
	logsvc "github.com/sintimjnr/gctu-project-submission-system/services/logger"
	metricsvc "github.com/sintimjnr/gctu-project-submission-system/services/metrics"
	"github.com/sintimjnr/gctu-project-submission-system/storage/blob"
	"github.com/sintimjnr/gctu-project-submission-system/storage/database"
	inmemdb "github.com/sintimjnr/gctu-project-submission-system/storage/database/inmem"
	sqlxrepos "github.com/sintimjnr/gctu-project-submission-system/storage/database/sqlx"
)

// EngineMemory keeps everything in process memory; nothing survives a restart.
const EngineMemory = "memory"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories is the storage layer of the selected database engine.
	Repositories struct {
		dig.Out
		Users     user.Repository
		Projects  project.Repository
		Deadlines deadline.Repository
		Closer    io.Closer
	}

	// Shutdown receives the signal that stops the API.
	Shutdown chan os.Signal

	ServerParams struct {
		dig.In
		Conf        *core.Config
		Logger      core.Logger
		Metrics     *metricsvc.Metrics
		UserSvc     user.Service
		ProjectSvc  project.Service
		DeadlineSvc deadline.Service
		Reports     *report.Generator
		Shutdown    Shutdown
	}
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) (Repositories, error) {
	if conf.Database.Engine == EngineMemory {
		loggerParam.Logger.Warn("using the in-memory database: data is lost on restart")
		db := inmemdb.Open()
		return Repositories{
			Users:     inmemdb.NewUserRepository(db),
			Projects:  inmemdb.NewProjectRepository(db),
			Deadlines: inmemdb.NewDeadlineRepository(db),
			Closer:    nopCloser{},
		}, nil
	}

	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return Repositories{}, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return Repositories{}, errors.Wrap(err, "opening database")
	}
	if err := database.Ping(ctx, db); err != nil {
		_ = db.Close()
		return Repositories{}, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return Repositories{}, err
	}
	loggerParam.Logger.Info("database ready", map[string]interface{}{"engine": conf.Database.Engine})

	return Repositories{
		Users:     sqlxrepos.NewUserRepository(db),
		Projects:  sqlxrepos.NewProjectRepository(db),
		Deadlines: sqlxrepos.NewDeadlineRepository(db),
		Closer:    db,
	}, nil
}

func newBlobStore(conf *core.Config) (core.BlobStore, error) {
	return blob.Open(context.Background(), conf)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newStudents(svc user.Service) project.Students { return svc }

func newShutdown() Shutdown { return make(Shutdown, 1) }

func newServer(p ServerParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Metrics:     p.Metrics,
		UserSvc:     p.UserSvc,
		ProjectSvc:  p.ProjectSvc,
		DeadlineSvc: p.DeadlineSvc,
		Reports:     p.Reports,
		SignalShutdown: func() {
			select {
			case p.Shutdown <- syscall.SIGTERM:
			default:
			}
		},
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newBlobStore))
	must(c.Provide(newEmailService))
	must(c.Provide(metricsvc.NewMetrics))
	must(c.Provide(user.NewService))
	must(c.Provide(newStudents))
	must(c.Provide(deadline.NewService))
	must(c.Provide(project.NewService))
	must(c.Provide(report.NewGenerator))
	must(c.Provide(newShutdown))
	must(c.Provide(newServer))

	return c
}

// Bootstrap seeds the admin account and the submission deadline.
func Bootstrap(ctx context.Context, conf *core.Config, logger core.Logger, usrSvc user.Service, dlSvc deadline.Service) error {
	admin, created, err := usrSvc.EnsureAdmin(ctx, conf.Auth.AdminName, conf.Auth.AdminEmail, conf.Auth.AdminPassword)
	if err != nil {
		return errors.Wrap(err, "seeding admin")
	}
	if created {
		logger.Info("admin account created", map[string]interface{}{"email": admin.Email})
	}

	seeded, err := dlSvc.Seed(ctx)
	if err != nil {
		return errors.Wrap(err, "seeding deadline")
	}
	if seeded {
		logger.Info("default submission deadline stored", map[string]interface{}{"deadline": conf.Deadline.Default})
	}
	return nil
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
