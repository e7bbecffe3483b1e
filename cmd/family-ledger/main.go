package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"family-ledger/internal/app"
	"family-ledger/internal/transport/httpserver"
	"family-ledger/pkg/logger"
)

func main() {
	log := logger.NewFromEnv()
	os.Exit(run(log))
}

func run(log logger.Logger) int {
	log.Info("app: starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(log)
	if err != nil {
		log.Critical("app: init failed", "err", err)
		return 1
	}

	code := 0
	if err := httpserver.Run(ctx, application.HTTPServer(), log); err != nil {
		log.Critical("http: server failed", "err", err)
		code = 1
	}

	if err := application.Close(); err != nil {
		log.Error("app: close failed", "err", err)
		code = 1
	}

	if code == 0 {
		log.Info("app: stopped")
	}
	return code
}
