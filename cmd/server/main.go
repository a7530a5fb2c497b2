package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/book-lending/internal/config"
	"github.com/iliyamo/book-lending/internal/database"
	"github.com/iliyamo/book-lending/internal/middleware"
	"github.com/iliyamo/book-lending/internal/queue"
	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/repository/memstore"
	"github.com/iliyamo/book-lending/internal/router"
	"github.com/iliyamo/book-lending/internal/service"
	"github.com/iliyamo/book-lending/internal/validation"
)

const shutdownTimeout = 10 * time.Second

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "booklend",
		Short:        "Book lending API",
		Long:         `REST backend for the decentralized book lending marketplace: catalog, reviews, borrow requests, purchases and wallet login.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	serveFlags(rootCmd)

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(consumeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
	serveFlags(cmd)
	return cmd
}

func serveFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("consume", false, "also run the activity consumer in this process")
	cmd.Flags().Bool("migrate", true, "apply schema migrations on startup (mysql only)")
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.StoreMySQL {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StoreMySQL)
			}
			if err := database.Migrate(cfg.DB.DSN()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample catalog into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stores, closeStores, err := openStores(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer closeStores()

			n, err := service.NewBookService(stores, validation.New(), log).SeedSamples(ctx)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			if n == 0 {
				log.Info("books already present; nothing seeded")
				return nil
			}
			log.WithField("books", n).Info("sample catalog seeded")
			return nil
		},
	}
}

func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Append activity events from RabbitMQ to the activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.WithField("queue", cfg.Events.Queue).Info("activity consumer starting")
			err = queue.StartActivityConsumer(ctx, cfg.Events, log)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	withConsumer, _ := cmd.Flags().GetBool("consume")
	autoMigrate, _ := cmd.Flags().GetBool("migrate")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg, log, autoMigrate)
	if err != nil {
		return err
	}
	defer closeStores()
	if cfg.StoreDriver == config.StoreMemory {
		if _, err := service.NewBookService(stores, validation.New(), log).SeedSamples(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		if cfg.Redis.Enabled {
			log.WithError(err).Warn("redis unavailable; using in-process rate limiting without response cache")
		}
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events, log)
		if withConsumer {
			go func() {
				if err := queue.StartActivityConsumer(ctx, cfg.Events, log); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("activity consumer stopped")
				}
			}()
		}
	}

	e := router.New(router.Deps{
		Config:  cfg,
		Stores:  stores,
		Redis:   rdb,
		Events:  events,
		Metrics: middleware.NewMetrics(),
		Log:     log,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(e, log)
}

func shutdown(e *echo.Echo, log logrus.FieldLogger) error {
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(ctx)
}

// setup loads the dotenv file, the configuration and the logger shared by
// every command.
func setup() (config.Config, *logrus.Logger, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.Env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// openStores returns the configured storage backend and a func that
// releases it.
func openStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger, migrate bool) (service.Stores, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return memoryStores(memstore.New()), func() {}, nil
	}

	dsn := cfg.DB.DSN()
	if migrate {
		if err := database.Migrate(dsn); err != nil {
			return service.Stores{}, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return service.Stores{}, nil, fmt.Errorf("db connect: %w", err)
	}
	stores := service.Stores{
		Books:          repository.NewBookRepo(db),
		Reviews:        repository.NewReviewRepo(db),
		BorrowRequests: repository.NewBorrowRequestRepo(db),
		Purchases:      repository.NewPurchaseRepo(db),
		Users:          repository.NewUserRepo(db),
	}
	return stores, func() { _ = db.Close() }, nil
}

func memoryStores(m *memstore.Store) service.Stores {
	return service.Stores{
		Books:          m.Books,
		Reviews:        m.Reviews,
		BorrowRequests: m.BorrowRequests,
		Purchases:      m.Purchases,
		Users:          m.Users,
	}
}
