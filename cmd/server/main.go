package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"redbird/internal/auth"
	"redbird/internal/bucket"
	"redbird/internal/config"
	"redbird/internal/db"
	"redbird/internal/httpapi"
	"redbird/internal/reconcile"
	"redbird/internal/service"
	"redbird/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		log.Fatalf("init bucket: %v", err)
	}

	st := store.New(pool)
	svc := service.New(st, blobs, cfg.BucketPublicURL, log.Default())

	if cfg.ReconcileEnabled {
		if lister, ok := blobs.(bucket.Lister); ok {
			runner := reconcile.NewRunner(lister, blobs, svc, cfg.ReconcileDeleteOrphans, log.Default())
			worker := reconcile.NewWorker(runner, reconcile.WorkerConfig{
				Enabled:      true,
				StartupDelay: cfg.ReconcileDelay,
				Interval:     cfg.ReconcileInterval,
			}, log.Default())
			go worker.Run(ctx)
		} else {
			log.Printf("reconcile enabled but the %s bucket backend cannot list keys, skipping", cfg.BucketBackend)
		}
	}

	authn := auth.NewAuthenticator(pool, cfg.BackendAPIKey)

	api := httpapi.New(cfg, svc, authn, log.Default())
	echoServer := api.NewEcho()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      echoServer,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Printf("listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
		os.Exit(1)
	}
}

func newBlobStore(ctx context.Context, cfg config.Config) (bucket.Store, error) {
	if cfg.BucketBackend == "s3" {
		return newS3Store(ctx, cfg)
	}
	return bucket.NewHTTPStore(bucket.HTTPOptions{
		Endpoint: cfg.BucketEndpoint,
		Bucket:   cfg.BucketName,
		APIKey:   cfg.BucketAPIKey,
		Timeout:  cfg.BucketTimeout,
	}), nil
}

func newS3Store(ctx context.Context, cfg config.Config) (bucket.Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			o.UsePathStyle = true
		}
	})
	return bucket.NewS3Store(bucket.S3Options{
		Client:    client,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.BucketPublicURL,
		Prefix:    cfg.S3Prefix,
	}), nil
}
