package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/learnova/learnova/apps/api/echo"
	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/user"
	logsvc "github.com/learnova/learnova/services/logger"
	"github.com/learnova/learnova/storage/database"
	dummydb "github.com/learnova/learnova/storage/database/dummy"
	sqlxrepos "github.com/learnova/learnova/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug)

	// set up storage
	repo, closer, err := setUpStorage(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = closer.Close(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	// set up services
	usrSvc := user.NewService(repo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server, err := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			Validate:   validate,
			Translator: translator,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStorage opens the configured user store. Postgres is migrated before use.
func setUpStorage(conf *core.Config, logger core.Logger) (user.Repository, io.Closer, error) {
	if !conf.Database.UsesPostgres() {
		logger.Warn("using the in-memory database: data is lost on restart")
		db, err := dummydb.Open()
		if err != nil {
			return nil, nil, err
		}
		return dummydb.NewUserRepository(db), db, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	database.SetMigrationLogger(logger)
	if err = database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "migrating database")
	}
	return sqlxrepos.NewUserRepository(db), db, nil
}
