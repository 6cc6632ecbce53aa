// Command silid runs the auth HTTP service and its maintenance tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/lborres/silid"
	fiberadapter "github.com/lborres/silid/adapters/fiber"
	pgxadapter "github.com/lborres/silid/adapters/pgx"
	"github.com/lborres/silid/internal/config"
	applog "github.com/lborres/silid/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}

	command, rest := args[0], args[1:]
	switch command {
	case "serve":
		return runServe(rest)
	case "migrate":
		return runMigrate(rest)
	case "sweep":
		return runSweep(rest)
	}

	printUsage()
	return fmt.Errorf("unknown command %q", command)
}

func printUsage() {
	fmt.Fprint(os.Stderr, `silid - accounts, logins and sessions for the learning platform

Usage:
  silid serve   [--config FILE] [--migrate]
  silid migrate [--config FILE] [--down N]
  silid sweep   [--config FILE]

Settings come from silid.yaml, .env and SILID_* environment variables,
for example SILID_AUTH_SECRET and SILID_DATABASE_URL.
`)
}

// setup parses the shared flags, then loads config and the logger.
func setup(name string, args []string, extra func(*pflag.FlagSet)) (*config.Config, *logrus.Logger, error) {
	var configPath string

	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default: ./silid.yaml if present)")
	if extra != nil {
		extra(flagSet)
	}
	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}
	if flagSet.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := applog.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

func newSilid(cfg *config.Config, log *logrus.Logger, pool *pgxpool.Pool, http silid.HTTPAdapter) (*silid.Silid, error) {
	hasher, err := silid.NewPasswordHandler(cfg.Auth.PasswordHasher)
	if err != nil {
		return nil, err
	}

	return silid.New(silid.Config{
		Secret:         cfg.Auth.Secret,
		Issuer:         cfg.Auth.Issuer,
		Database:       pgxadapter.New(pool),
		HTTP:           http,
		CacheConfig:    &silid.CacheConfig{TTL: cfg.Auth.CacheTTL, MaxSize: cfg.Auth.CacheSize},
		DisableCache:   cfg.Auth.DisableCache,
		SessionConfig:  &silid.SessionConfig{MaxAge: cfg.Auth.SessionMaxAge},
		PasswordHasher: hasher,
		BasePath:       cfg.Server.BasePath,
		Logger:         log,
	})
}

// accessLogFormat leaves out headers and bodies; both carry credentials.
func accessLogFormat() string {
	format := []string{
		"${time}",
		"${status}|${latency}",
		"${ip}",
		"${bytesReceived}|${bytesSent}",
		"${method}|${path}",
		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func runServe(args []string) error {
	var migrateFirst bool
	cfg, log, err := setup("serve", args, func(fs *pflag.FlagSet) {
		fs.BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrateFirst {
		version, err := pgxadapter.MigrateUp(cfg.Database.URL)
		if err != nil {
			return err
		}
		log.WithField("version", version).Info("schema up to date")
	}

	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	app := fiber.New(fiber.Config{AppName: "silid"})
	app.Use(recoverer.New())
	app.Use(logger.New(logger.Config{
		Format:     accessLogFormat(),
		TimeFormat: "2006/01/02 15:04:05",
		TimeZone:   "Local",
	}))

	if _, err := newSilid(cfg, log, pool, fiberadapter.New(app, fiberadapter.WithLogger(log))); err != nil {
		return fmt.Errorf("could not create auth service: %w", err)
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.Server.Address, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	log.WithFields(logrus.Fields{
		"address":   cfg.Server.Address,
		"base_path": cfg.Server.BasePath,
	}).Info("listening")

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMigrate(args []string) error {
	var down int
	cfg, log, err := setup("migrate", args, func(fs *pflag.FlagSet) {
		fs.IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
	})
	if err != nil {
		return err
	}

	if down > 0 {
		if err := pgxadapter.MigrateDown(cfg.Database.URL, down); err != nil {
			return err
		}
		log.WithField("steps", down).Info("migrations rolled back")
		return nil
	}

	version, err := pgxadapter.MigrateUp(cfg.Database.URL)
	if err != nil {
		return err
	}
	log.WithField("version", version).Info("schema up to date")
	return nil
}

func runSweep(args []string) error {
	var timeout time.Duration
	cfg, log, err := setup("sweep", args, func(fs *pflag.FlagSet) {
		fs.DurationVar(&timeout, "timeout", time.Minute, "give up after this long")
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	s, err := newSilid(cfg, log, pool, nil)
	if err != nil {
		return err
	}

	count, err := s.PurgeExpiredSessions(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("sweep timed out after %s", timeout)
	}
	if err != nil {
		return err
	}
	fmt.Printf("removed %d expired sessions\n", count)
	return nil
}
