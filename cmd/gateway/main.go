package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"fin-agents/internal/app"
	"fin-agents/internal/httputil"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Log.Info("gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return deps.Sessions.RunJanitor(ctx, janitorInterval)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("gateway stopped")
}

func newRouter(deps app.Deps) *chi.Mux {
	r := httputil.NewRouter(deps.Log, time.Duration(deps.Config.RequestTimeout)*time.Second)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", createSessionHandler(deps))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getSessionHandler(deps))
			r.Delete("/", deleteSessionHandler(deps))

			r.Post("/statement", uploadStatementHandler(deps))
			r.Get("/statement", getStatementHandler(deps))
			r.Post("/statement/analysis", analysisHandler(deps))

			r.Post("/chat", startChatHandler(deps))
			r.Post("/chat/messages", sendMessageHandler(deps))
			r.Get("/chat/messages", transcriptHandler(deps))
		})
	})
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}
