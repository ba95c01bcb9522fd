package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/review-swarm/internal/application"
	appreviews "github.com/bryanwahyu/review-swarm/internal/application/reviews"
	"github.com/bryanwahyu/review-swarm/internal/config"
	"github.com/bryanwahyu/review-swarm/internal/domain/ai"
	domain "github.com/bryanwahyu/review-swarm/internal/domain/reviews"
	"github.com/bryanwahyu/review-swarm/internal/infra/ai/gemini"
	openaicli "github.com/bryanwahyu/review-swarm/internal/infra/ai/openai"
	mysqldb "github.com/bryanwahyu/review-swarm/internal/infra/db/mysql"
	postgresdb "github.com/bryanwahyu/review-swarm/internal/infra/db/postgres"
	"github.com/bryanwahyu/review-swarm/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/review-swarm/internal/infra/storage"
	"github.com/bryanwahyu/review-swarm/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database (postgres default, mysql optional)
	var db *sql.DB
	var repo domain.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqldb.NewReviewRepository(db)
	case "postgres":
		db, err = postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresdb.NewReviewRepository(db)
	default:
		log.Fatalf("unsupported database driver: %s", cfg.Database.Driver)
	}
	defer db.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema setup error: %v", err)
	}

	// init generation provider
	var gen ai.Generator
	switch cfg.AI.Provider {
	case "openai":
		gen = openaicli.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	case "gemini":
		gen = gemini.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	default:
		log.Fatalf("unsupported ai provider: %s", cfg.AI.Provider)
	}

	// init artifact store (optional)
	var artifacts domain.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	// init service
	perspectives := domain.BuiltinPerspectives()
	svc := &appreviews.Service{
		Repo: repo,
		Swarm: &appreviews.Swarm{
			Invoker:        appreviews.NewInvoker(gen),
			PerCallTimeout: time.Duration(cfg.Review.PerCallTimeoutSeconds) * time.Second,
		},
		Artifacts:    artifacts,
		Perspectives: perspectives,
		Clock:        application.SystemClock{},
		MaxCodeBytes: cfg.Review.MaxCodeBytes,
	}

	// init router
	handler := httpserver.NewRouter(svc, httpserver.Options{
		AllowedOrigins:     cfg.CORS.AllowedOrigins,
		APIKeys:            cfg.Auth.APIKeys,
		RateLimitCapacity:  cfg.RateLimit.Capacity,
		RateLimitRefill:    cfg.RateLimit.RefillRate,
		HealthPerspectives: perspectives.Names(),
		HealthCheckers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // wait=true reviews block on the provider
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
