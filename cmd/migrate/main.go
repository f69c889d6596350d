// Command migrate applies, rolls back or reports the Libris schema.
//
//	migrate [up|down|status]
//
// DATABASE_URL is read from the environment or a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"libris/cmd/internal/app"
	"libris/cmd/internal/migrations"
)

type config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|status]\n", os.Args[0])
	}
	flag.Parse()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	if err := run(cmd); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return err
	}
	log := app.NewLogger(app.Config{Env: cfg.Env, LogLevel: cfg.LogLevel})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := app.NewDBPool(ctx, app.Config{DatabaseURL: cfg.DatabaseURL, DBMaxConns: 2}, log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	runner, err := migrations.NewRunner(pool)
	if err != nil {
		return err
	}
	defer func() { _ = runner.Close() }()

	switch cmd {
	case "up":
		applied, err := runner.Up(ctx)
		if err != nil {
			return err
		}
		log.Info("migrate.up", "applied", applied)
	case "down":
		version, err := runner.Down(ctx)
		if err != nil {
			return err
		}
		log.Info("migrate.down", "version", version)
	case "status":
		st, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range st {
			log.Info("migrate.status", slog.Int64("version", s.Version), slog.String("path", s.Path), slog.Bool("applied", s.Applied))
		}
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
