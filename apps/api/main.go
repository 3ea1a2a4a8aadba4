package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppmhss/pariksha/apps/api/echo"
	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/admin"
	"github.com/ppmhss/pariksha/core/duty"
	"github.com/ppmhss/pariksha/core/student"
	"github.com/ppmhss/pariksha/services/email"
	"github.com/ppmhss/pariksha/services/logger"
	"github.com/ppmhss/pariksha/storage/database"
	"github.com/ppmhss/pariksha/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)

	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	// keep local DBs current without the admin CLI round-trip
	if core.Conf.Debug {
		if err = database.Migrate(db); err != nil {
			logger.Fatal("migrating database", err)
		}
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db), mailSvc)
	dutySvc := duty.NewService(sqlxrepos.NewDutyRepository(db))
	adminSvc := admin.NewService(sqlxrepos.NewAdminRepository(db))

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:    core.Conf.Server.Address(),
			Logger:     logger,
			StudentSvc: studentSvc,
			DutySvc:    dutySvc,
			AdminSvc:   adminSvc,
		},
	)
	go app.Start()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownGracePeriod)
	defer cancel()
	if err = app.Stop(ctx); err != nil {
		logger.Fatal("shutting down server", err)
	}
	logger.Info("server stopped")
}
