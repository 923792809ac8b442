package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/agent"
	"github.com/ekaya-inc/hospital-assistant/pkg/config"
	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/handlers"
	"github.com/ekaya-inc/hospital-assistant/pkg/llm"
	"github.com/ekaya-inc/hospital-assistant/pkg/logging"
	"github.com/ekaya-inc/hospital-assistant/pkg/mcp"
	"github.com/ekaya-inc/hospital-assistant/pkg/middleware"
	"github.com/ekaya-inc/hospital-assistant/pkg/retry"
	"github.com/ekaya-inc/hospital-assistant/pkg/services"
	"github.com/ekaya-inc/hospital-assistant/pkg/tools"
	"github.com/ekaya-inc/hospital-assistant/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	shutdownTimeout    = 10 * time.Second
	startupPingTimeout = 5 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hospital-assistant",
		Short:         "Natural-language and MCP access to the hospital database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(setupDBCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, MCP endpoint and web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the hospital tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPStdio(cmd.Context())
		},
	}
}

func setupDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup-db",
		Short: "Create the hospital tables and load sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			skipSeed, _ := cmd.Flags().GetBool("skip-seed")
			return runSetupDB(cmd.Context(), skipSeed)
		},
	}
	cmd.Flags().Bool("skip-seed", false, "Apply migrations only")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}
}

// bootstrap loads configuration and builds the logger shared by every command.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func dbConfig(cfg *config.Config, skipPing bool) *database.Config {
	return &database.Config{
		URL:             cfg.Database.ConnectionString(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnIdleTime: cfg.Database.IdleTimeout,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		SkipPing:        skipPing,
	}
}

// openLazyPool creates the pool without requiring the database to be up.
func openLazyPool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, *database.QueryExecutor, error) {
	db, err := database.NewConnection(ctx, dbConfig(cfg, true))
	if err != nil {
		return nil, nil, err
	}
	return db, database.NewQueryExecutor(db, logger), nil
}

func runServer(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting hospital-assistant",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	db, executor, err := openLazyPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	if _, err := executor.Ping(pingCtx); err != nil {
		logger.Warn("Database not reachable; serving anyway. Ensure PostgreSQL is running, the database exists and credentials are correct, then run setup-db",
			zap.String("database", cfg.Database.Name),
			zap.String("error", logging.SanitizeError(err)))
	} else {
		logger.Info("Database connection verified")
	}
	cancel()

	registry := tools.NewRegistry(executor, logger)
	models := llm.NewClientFactory(cfg.AI, llm.DefaultCatalog(), logger)
	assistant := agent.New(models, registry, cfg.AI.MaxRounds, logger)
	queryService := services.NewQueryService(assistant, services.NewKeywordRouter(executor, logger), logger)
	mcpServer := mcp.NewServer(cfg.Version, registry, logger)

	if assistant.Available() {
		logger.Info("AI mode enabled", zap.Int("models", len(assistant.Models())))
	} else {
		logger.Info("AI mode disabled, answering with keyword matching. Set GROQ_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY to enable it")
	}

	uiHandler, err := ui.Handler()
	if err != nil {
		return err
	}

	mux := handlers.NewRouter(executor, assistant, queryService, mcpServer, uiHandler, logger)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(middleware.CORS(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening",
			zap.String("addr", srv.Addr),
			zap.String("health", "GET /health"),
			zap.String("query", "POST /query"),
			zap.String("models", "GET /models"),
			zap.String("mcp", "POST /mcp"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMCPStdio(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, executor, err := openLazyPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	server := mcp.NewServer(cfg.Version, tools.NewRegistry(executor, logger), logger)
	if err := server.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runSetupDB(ctx context.Context, skipSeed bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Waiting for database",
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	db, err := retry.DoWithResultIfRetryable(ctx, retry.DatabaseStartupConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, dbConfig(cfg, false))
	})
	if err != nil {
		return fmt.Errorf("database not reachable: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	if err := database.MigratePool(db, logger); err != nil {
		return err
	}
	fmt.Println("Tables created.")

	if !skipSeed {
		inserted, err := database.SeedSampleData(ctx, db, logger)
		if err != nil {
			return err
		}
		if inserted {
			fmt.Println("Sample data inserted.")
		} else {
			fmt.Println("Sample data already present, left unchanged.")
		}
	}

	counts, err := database.TableCounts(ctx, db)
	if err != nil {
		return err
	}
	fmt.Println("Row counts:")
	for pair := counts.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Printf("  %-16s %d\n", pair.Key, pair.Value)
	}
	return nil
}
