package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FaceRegistry/database/postgres"
	"FaceRegistry/internal/config"
	"FaceRegistry/pkg/log"
	"FaceRegistry/pkg/redis"

	"github.com/spf13/cobra"
)

// Multipart overhead on top of the image itself.
const formFieldAllowance = 1 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().String("port", "", "Port to listen on (overrides APP_PORT)")
		cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := log.NewLogger()

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		settings.Port = port
	}

	db, err := postgres.New()
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		return err
	}

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		_, err := postgres.Migrate(ctx, db, logger)
		cancel()
		if err != nil {
			db.Close()
			return err
		}
	}

	fiberApp := config.NewFiber(logger, int(settings.UploadMaxBytes)+formFieldAllowance)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithSettings(settings),
		config.WithValidator(config.NewValidator()),
		config.WithDB(db),
		config.WithRedisServer(redis.New(logger)),
		config.WithStorage(),
		config.WithMiddleware(),
		config.WithUtils(),
	)
	if err != nil {
		db.Close()
		return err
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	logger.WithField("port", settings.Port).Info("Server started successfully")

	select {
	case err := <-errChan:
		db.Close()
		return err
	case <-sigChan:
	}

	logger.Info("Shutting down server...")
	return server.Shutdown(10 * time.Second)
}
