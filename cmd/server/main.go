// memnotes - in-memory notes service
//
// Serves the notes JSON API and the single-page front end from one binary.
// All state lives in process memory and is lost on exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuitang/memnotes/internal/api"
	"github.com/kuitang/memnotes/internal/config"
	"github.com/kuitang/memnotes/internal/notes"
	"github.com/kuitang/memnotes/internal/obs"
	"github.com/kuitang/memnotes/internal/ratelimit"
	"github.com/kuitang/memnotes/internal/web"
)

func main() {
	flags, err := config.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	obs.Init(cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		obs.Pkg("main").Error("server_exit", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg *config.Config) error {
	log := obs.Pkg("main")
	svc := notes.NewService(notes.NewStore())
	seeded := 0
	if cfg.SeedNotes {
		seeds, err := loadSeeds(cfg.SeedFile)
		if err != nil {
			return err
		}
		seeded = len(svc.SeedWith(ctx, seeds))
	}

	limiter := newLimiter(cfg)
	if limiter != nil {
		defer limiter.Stop()
	}

	handler, err := newHandler(cfg, svc, limiter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	cfg.PrintStartupSummary(seeded)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", "addr", cfg.ListenAddr, "seed_notes", seeded)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutdown", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	start := time.Now()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server_stopped", "drain_ms", time.Since(start).Milliseconds())
	return nil
}

// loadSeeds returns the notes from path, or the built-in pair when path is empty.
func loadSeeds(path string) ([]notes.SeedNote, error) {
	if path == "" {
		return notes.DefaultSeedNotes(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	seeds, err := notes.ParseSeedYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seeds, nil
}

// newLimiter returns the per-client limiter, or nil when rate limiting is off.
func newLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimitEnabled {
		return nil
	}
	return ratelimit.NewLimiter(cfg.RateLimitConfig)
}

// newHandler builds the full route table and middleware chain.
// limiter may be nil to disable rate limiting.
func newHandler(cfg *config.Config, svc *notes.Service, limiter *ratelimit.Limiter) (http.Handler, error) {
	mux := http.NewServeMux()

	api.NewHandler(svc, cfg.MaxBodyBytes).RegisterRoutes(mux)

	static, err := web.NewStaticHandler()
	if err != nil {
		return nil, err
	}
	static.RegisterRoutes(mux)

	var handler http.Handler = mux
	if limiter != nil {
		handler = ratelimit.Middleware(limiter, obs.ClientIP)(handler)
	}
	handler = obs.AccessLogMiddleware("http", handler)
	handler = obs.RequestContextMiddleware(handler)
	return handler, nil
}
