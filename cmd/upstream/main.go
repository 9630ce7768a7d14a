package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sirjoon/azure-s3-uploader/internal/domain"
	"github.com/sirjoon/azure-s3-uploader/internal/storage"
	"github.com/sirjoon/azure-s3-uploader/internal/upstream"
	"github.com/sirjoon/azure-s3-uploader/pkg/logger"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "upstream",
		Usage: "Serve the presign and direct-upload endpoints locally, backed by MinIO",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Address to listen on",
				Value:   ":9001",
				EnvVars: []string{"UPSTREAM_ADDR"},
			},
			&cli.StringFlag{
				Name:     "api-key",
				Usage:    "Key callers must send in the x-api-key header",
				Required: true,
				EnvVars:  []string{"AWS_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "minio-endpoint",
				Usage:   "MinIO / S3-compatible endpoint",
				Value:   "http://localhost:9000",
				EnvVars: []string{"MINIO_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "minio-access-key",
				Value:   "minioadmin",
				EnvVars: []string{"MINIO_ACCESS_KEY"},
			},
			&cli.StringFlag{
				Name:    "minio-secret-key",
				Value:   "minioadmin",
				EnvVars: []string{"MINIO_SECRET_KEY"},
			},
			&cli.StringFlag{
				Name:    "bucket",
				Value:   "pdf-uploads",
				EnvVars: []string{"MINIO_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "region",
				Value:   "us-east-1",
				EnvVars: []string{"MINIO_REGION"},
			},
			&cli.DurationFlag{
				Name:    "presign-expiry",
				Usage:   "Lifetime of issued upload URLs",
				Value:   upstream.DefaultPresignExpiry,
				EnvVars: []string{"PRESIGN_EXPIRY"},
			},
			&cli.Int64Flag{
				Name:    "max-direct-bytes",
				Usage:   "Largest body accepted by the direct-upload endpoint",
				Value:   domain.DirectUploadLimitBytes,
				EnvVars: []string{"MAX_DIRECT_BYTES"},
			},
			&cli.BoolFlag{
				Name:  "create-bucket",
				Usage: "Create the bucket on startup if it is missing",
				Value: true,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("upstream emulator failed")
	}
}

func run(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	store, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  c.String("minio-endpoint"),
		AccessKey: c.String("minio-access-key"),
		SecretKey: c.String("minio-secret-key"),
		Bucket:    c.String("bucket"),
		Region:    c.String("region"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Bool("create-bucket") {
		if err := store.EnsureBucket(ctx); err != nil {
			return err
		}
	}

	emulator := upstream.NewServer(store, upstream.Config{
		APIKey:         c.String("api-key"),
		PresignExpiry:  c.Duration("presign-expiry"),
		MaxDirectBytes: c.Int64("max-direct-bytes"),
	})
	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           emulator.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info().
			Str("addr", srv.Addr).
			Str("bucket", store.Bucket()).
			Msg("Upstream emulator listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
