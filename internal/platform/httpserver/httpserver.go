package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"clinic/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 120 * time.Second
	// writeSlack leaves room to flush the timeout response after the
	// per-request deadline fires.
	writeSlack = 5 * time.Second
	// ShutdownTimeout bounds draining of in-flight requests.
	ShutdownTimeout = 10 * time.Second
)

// New builds an HTTP server for cfg. The write timeout tracks the request
// timeout so handlers are cancelled before the connection is cut.
func New(cfg config.Server, handler http.Handler) *http.Server {
	write := 60 * time.Second
	if cfg.RequestTimeout > 0 {
		write = cfg.RequestTimeout + writeSlack
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      write,
		IdleTimeout:       idleTimeout,
	}
}

// Run serves on ln until ctx is cancelled, then shuts down gracefully.
// A nil ln listens on srv.Addr.
func Run(ctx context.Context, srv *http.Server, ln net.Listener, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if ln != nil {
			err = srv.Serve(ln)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
