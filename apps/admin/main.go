package main

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/user"
	logsvc "github.com/learnova/learnova/services/logger"
	"github.com/learnova/learnova/storage/database"
	dummydb "github.com/learnova/learnova/storage/database/dummy"
	sqlxrepos "github.com/learnova/learnova/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	cli := commandLine{validate: validate}
	if conf.Database.UsesPostgres() {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer db.Close()
		database.SetMigrationLogger(logger)
		cli.db = db
		cli.usrSvc = user.NewService(sqlxrepos.NewUserRepository(db))
	} else {
		logger.Warn("using the in-memory database: changes are lost on exit")
		db, _ := dummydb.Open()
		cli.usrSvc = user.NewService(dummydb.NewUserRepository(db))
	}

	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", explain(err, translator))
		}
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}

// explain renders validation errors one field per line.
func explain(err error, translator ut.Translator) string {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		msg := ""
		for _, fe := range origErr {
			msg += fmt.Sprintf("\n  %s: %s", fe.Field(), fe.Translate(translator))
		}
		return "invalid input" + msg
	case *core.ValidationError:
		return origErr.Error()
	default:
		return err.Error()
	}
}
