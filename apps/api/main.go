package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"
	"os/signal"
	"syscall"

	container "github.com/sintimjnr/gctu-project-submission-system/apps/api/di/dig"
	echoapi "github.com/sintimjnr/gctu-project-submission-system/apps/api/echo"
	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

func main() {
	c := container.New(core.NewConfig)

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam container.DBLoggerParam,
		db io.Closer,
		usrSvc user.Service,
		dlSvc deadline.Service,
		server echoapi.Server,
		shutdown container.Shutdown,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{"config": conf.String()})

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		if err := container.Bootstrap(context.Background(), conf, apiLogger, usrSvc, dlSvc); err != nil {
			apiLogger.Fatal(fmt.Sprintf("bootstrapping: %v", err), err)
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- server.Start()
		}()

		// =========================================================================
		// Shutdown

		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if err != nil {
				apiLogger.Error(fmt.Sprintf("server error: %v", err), err)
			}

		case sig := <-shutdown:
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Stop(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
