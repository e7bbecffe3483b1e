package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"family-ledger/internal/config"
	"family-ledger/pkg/logger"
)

const ShutdownTimeout = 10 * time.Second

// New leaves WriteTimeout unset: watch streams stay open for as long as the
// client listens, and short routes get their deadline from the router.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    64 << 10,
	}
}

// Run listens on srv.Addr and serves until ctx is done.
func Run(ctx context.Context, srv *http.Server, log logger.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, srv, ln, log)
}

// Serve serves on ln until ctx is done, then shuts down gracefully. Request
// contexts derive from ctx, so open watch streams end when shutdown starts
// instead of holding it up.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, log logger.Logger) error {
	srv.BaseContext = func(net.Listener) context.Context { return ctx }
	log.Info("http: listening", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("http: shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
