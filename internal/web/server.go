package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/hpungsan/capture/internal/config"
)

// NewServer creates and configures the HTTP server for local capture clients.
func NewServer(deps Deps, cfg *config.Config, logger *charmlog.Logger) *http.Server {
	h := &Handlers{
		deps:     deps,
		cfg:      cfg,
		renderer: NewRenderer(logger),
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.WebBind, cfg.WebPort),
		Handler:           securityHeaders(newMux(h)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newMux(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("POST /captures", h.HandleSave)
	mux.HandleFunc("POST /preview", h.HandlePreview)
	mux.HandleFunc("GET /tags", h.HandleTags)
	mux.HandleFunc("GET /location", h.HandleLocation)
	mux.HandleFunc("PUT /location", h.HandleSetLocation)
	mux.HandleFunc("GET /logs", h.HandleLogs)
	mux.HandleFunc("DELETE /logs", h.HandleClearLogs)

	return mux
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *charmlog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("capture server running", "addr", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
