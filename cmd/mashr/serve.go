package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/mashr/internal/config"
	"github.com/verte-zerg/mashr/internal/server"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the results HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	addr := resolveServeAddr(cmd.Flags().Changed("addr"), serveAddr, envCfg.Addr, fileCfg.Server.Addr)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	logger.Info("Database connected", "path", envCfg.ResolveDBPath())

	handler := server.NewRouter(server.NewHandler(st, logger))
	return server.Run(ctx, addr, handler, logger)
}

// resolveServeAddr applies flag, environment, config file, then default.
func resolveServeAddr(flagChanged bool, flagValue, envValue string, fileValue *string) string {
	switch {
	case flagChanged:
		return flagValue
	case envValue != "":
		return envValue
	case fileValue != nil && *fileValue != "":
		return *fileValue
	default:
		return flagValue
	}
}
