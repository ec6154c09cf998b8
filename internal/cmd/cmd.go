package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goFlags "github.com/jessevdk/go-flags"
	"github.com/rafalfr/ruledns/internal/config"
	"github.com/rafalfr/ruledns/internal/handler"
	"github.com/rafalfr/ruledns/internal/resolve"
	"github.com/rafalfr/ruledns/internal/router"
	"github.com/rafalfr/ruledns/internal/server"
	"github.com/rafalfr/ruledns/internal/version"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
)

// shutdownTimeout bounds how long a graceful shutdown waits for the UDP
// listener to stop; closing the resolver pool afterwards is not bounded by it.
const shutdownTimeout = 5 * time.Second

// Main is the ruledns CLI entrypoint.
func Main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" {
			fmt.Printf("ruledns version: %s\n", version.Version())

			os.Exit(0)
		}
	}

	opts, err := parseOptions()
	if err != nil {
		if flagsErr, ok := err.(*goFlags.Error); ok && flagsErr.Type == goFlags.ErrHelp {
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(osutil.ExitCodeArgumentError)
	}

	cfg, err := loadAndValidate(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(osutil.ExitCodeArgumentError)
	}

	l := slogutil.New(&slogutil.Config{
		Format: slogutil.FormatDefault,
		Level:  cfg.LogLevel.Level,
	})

	ctx := context.Background()
	l.InfoContext(ctx, "ruledns starting", "version", version.Version())

	if err = run(ctx, l, cfg); err != nil {
		l.ErrorContext(ctx, "running ruledns", slogutil.KeyError, err)
		os.Exit(osutil.ExitCodeFailure)
	}
}

func parseOptions() (*Options, error) {
	opts := &Options{}
	parser := goFlags.NewParser(opts, goFlags.Default)

	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	return opts, nil
}

// loadAndValidate reads the config file named by opts.Config, applies the
// CLI overrides, and validates the resulting rule list.
func loadAndValidate(opts *Options) (config.Config, error) {
	var err error

	cfg := config.Defaults()
	if opts.Config != "" {
		if cfg, err = config.Load(opts.Config); err != nil {
			return config.Config{}, err
		}
	}

	overrides := config.Overrides{}
	if opts.Host != "" {
		overrides.Host = &opts.Host
	}

	if opts.Port != 0 {
		overrides.Port = &opts.Port
	}

	if opts.LogLevel != "" {
		level, levelErr := config.ParseLogLevel(opts.LogLevel)
		if levelErr != nil {
			return config.Config{}, levelErr
		}

		overrides.LogLevel = &level
	}

	cfg = overrides.Apply(cfg)

	if err = config.Validate(cfg.Rule); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// run wires the router, resolver pool, handler and server together, starts
// serving, and blocks until SIGINT or SIGTERM.
func run(ctx context.Context, l *slog.Logger, cfg config.Config) error {
	r := router.New(l)
	for i, rule := range cfg.Rule {
		r.AddRule(rule, i)
	}

	pool := resolve.NewPool()
	h := handler.New(r, pool, l)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := server.New(addr, h)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	l.InfoContext(ctx, "ruledns listening", "addr", addr)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()

	l.InfoContext(ctx, "ruledns shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if err := pool.Close(); err != nil {
		return fmt.Errorf("closing resolver pool: %w", err)
	}

	return nil
}
