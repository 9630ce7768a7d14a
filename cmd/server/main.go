// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/sirjoon/azure-s3-uploader/internal/api"
	"github.com/sirjoon/azure-s3-uploader/internal/config"
	"github.com/sirjoon/azure-s3-uploader/internal/relay"
	"github.com/sirjoon/azure-s3-uploader/internal/service"
	"github.com/sirjoon/azure-s3-uploader/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.SetLevel(cfg.LogLevel())
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Uploads cannot be relayed without the upstream key
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize services
	uploadService := service.NewUploadService(relay.New(cfg.Upstream))

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Uploads:  uploadService,
		Upstream: cfg.Upstream,
	}, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("presign_url", cfg.Upstream.PresignURL).
			Str("direct_upload_url", cfg.Upstream.DirectUploadURL).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Wait for interrupt signal to gracefully shut down the server
		<-ctx.Done()
		logger.Log.Info().Msg("Shutting down server...")

		// The server has 5 seconds to finish the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}

	logger.Log.Info().Msg("Server exiting")
}
