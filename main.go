package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrops-br/estoque-api/internal/app/service"
	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/mrops-br/estoque-api/internal/infrastructure/config"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/estoque-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/estoque-api/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/estoque-api/internal/infrastructure/session"
	"github.com/mrops-br/estoque-api/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const serviceName = "estoque-api"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inventory HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}

	rootCmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Inventory ledger: products, sales and sales statistics",
		SilenceUsage: true,
		// serve is the default command
		RunE: serveCmd.RunE,
	}
	rootCmd.AddCommand(serveCmd, migrateCmd)
	return rootCmd
}

// stores holds the record store and the optional backing connections
type stores struct {
	products    domain.ProductRepository
	users       domain.UserRepository
	revocations domain.RevocationStore
	pool        *pgxpool.Pool
	redis       *redis.Client
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize OpenTelemetry
	var telem *telemetry.Telemetry
	if cfg.OTLP.Enabled {
		telem, err = telemetry.NewTelemetry(&cfg.OTLP, cfg.Log.SlogLevel())
	} else {
		telem, err = telemetry.NewNoOpTelemetry(&cfg.OTLP, cfg.Log.SlogLevel(), os.Stdout)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	tracer := telem.TracerProvider.Tracer(serviceName)
	meter := telem.MeterProvider.Meter(serviceName)
	logger := telem.Logger

	logger.Info("Starting Estoque API",
		slog.String("store", cfg.Store.Driver),
		slog.Bool("redis", cfg.Redis.Addr != ""),
		slog.Bool("otlp", cfg.OTLP.Enabled),
	)

	st, err := openStores(ctx, cfg, tracer, logger)
	if err != nil {
		_ = telem.Shutdown(context.Background())
		return err
	}

	tokens := session.NewTokenManager(cfg.Auth.Secret, cfg.Auth.SessionTTL, cfg.Auth.Issuer)

	productService := service.NewProductService(st.products, tracer, meter, logger)
	ledgerService := service.NewLedgerService(st.products, tracer, meter, logger)
	authService := service.NewAuthService(st.users, tokens, st.revocations, tracer, meter, logger)

	server := http.NewServer(cfg, http.Handlers{
		Products: handler.NewProductHandler(productService, logger),
		Ledger:   handler.NewLedgerHandler(ledgerService, logger),
		Auth:     handler.NewAuthHandler(authService, cfg.Auth, logger),
	}, authService, telem)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	steps := []shutdownStep{{name: "http-server", op: server.Shutdown}}
	steps = append(steps, st.closers()...)
	steps = append(steps, shutdownStep{name: "telemetry", op: telem.Shutdown})

	// One operation: the library runs map entries concurrently, and the
	// stores must outlive the requests the server is still draining.
	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{serviceName: inOrder(steps, logger)})

	select {
	case exitCode := <-wait:
		logger.Info("Server stopped", slog.Int("exit_code", exitCode))
		if exitCode != 0 {
			return fmt.Errorf("shutdown finished with exit code %d", exitCode)
		}
		return nil
	case err := <-serverErr:
		if err == nil {
			err = errors.New("http server stopped unexpectedly")
		}
		logger.Error("Server error", slog.String("error", err.Error()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = inOrder(steps[1:], logger)(shutdownCtx)
		return err
	}
}

// shutdownStep is one resource released when the process stops
type shutdownStep struct {
	name string
	op   gfshutdown.Operation
}

// closers lists the backing connections in release order
func (st *stores) closers() []shutdownStep {
	var steps []shutdownStep
	if st.pool != nil {
		steps = append(steps, shutdownStep{name: "postgres", op: func(context.Context) error {
			st.pool.Close()
			return nil
		}})
	}
	if st.redis != nil {
		steps = append(steps, shutdownStep{name: "redis", op: func(context.Context) error {
			return st.redis.Close()
		}})
	}
	return steps
}

// inOrder runs steps one after another under the caller's deadline. A failed
// step is logged and the rest still run.
func inOrder(steps []shutdownStep, logger *slog.Logger) gfshutdown.Operation {
	return func(ctx context.Context) error {
		var errs []error
		for _, step := range steps {
			if err := step.op(ctx); err != nil {
				logger.Error("Shutdown step failed",
					slog.String("operation", step.name),
					slog.String("error", err.Error()),
				)
				errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
				continue
			}
			logger.Info("Shutdown step done", slog.String("operation", step.name))
		}
		return errors.Join(errs...)
	}
}

// openStores connects the configured record store and revocation store.
// PostgreSQL and Redis are dialled concurrently.
func openStores(ctx context.Context, cfg *config.Config, tracer trace.Tracer, logger *slog.Logger) (*stores, error) {
	st := &stores{}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Store.Driver == config.DriverPostgres {
		g.Go(func() error {
			connectCtx, cancel := context.WithTimeout(gctx, 10*time.Second)
			defer cancel()

			pool, err := postgres.New(connectCtx, cfg.Store.URL, cfg.Store.AccessKey)
			if err != nil {
				return err
			}
			if err := postgres.Migrate(connectCtx, pool); err != nil {
				pool.Close()
				return err
			}
			st.pool = pool
			return nil
		})
	}
	if cfg.Redis.Addr != "" {
		g.Go(func() error {
			client, err := session.NewRedisClient(gctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			st.redis = client
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if st.pool != nil {
			st.pool.Close()
		}
		if st.redis != nil {
			_ = st.redis.Close()
		}
		return nil, err
	}

	if st.pool != nil {
		st.products = postgres.NewProductRepository(st.pool, tracer, logger)
		st.users = postgres.NewUserRepository(st.pool, tracer, logger)
		logger.Info("Record store: PostgreSQL")
	} else {
		st.products = memory.NewProductRepository(tracer, logger)
		st.users = memory.NewUserRepository(tracer, logger)
		logger.Info("Record store: in-memory")
	}

	if st.redis != nil {
		st.revocations = session.NewRedisRevocations(st.redis)
		logger.Info("Session revocations: Redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		st.revocations = session.NewMemoryRevocations()
		logger.Info("Session revocations: in-process")
	}

	return st, nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.LoadStoreConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("service.name", serviceName))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := postgres.New(ctx, cfg.URL, cfg.AccessKey)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	logger.Info("Schema applied")
	return nil
}
