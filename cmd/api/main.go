package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MrKriegler/go-claims/internal/core"
	"github.com/MrKriegler/go-claims/internal/extract"
	transporthttp "github.com/MrKriegler/go-claims/internal/http"
	"github.com/MrKriegler/go-claims/internal/http/handlers"
	"github.com/MrKriegler/go-claims/internal/http/health"
	"github.com/MrKriegler/go-claims/internal/jobs"
	"github.com/MrKriegler/go-claims/internal/middleware"
	"github.com/MrKriegler/go-claims/internal/platform/config"
	"github.com/MrKriegler/go-claims/internal/platform/logging"
	"github.com/MrKriegler/go-claims/internal/store/dynamo"
	"github.com/MrKriegler/go-claims/internal/store/mongo"
)

func main() {
	cfg := config.MustLoad()
	logger := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Store selection ----
	var (
		claimRepo core.ClaimRepo
		pinger    health.Pinger
	)

	switch cfg.DBType {
	case "mongo":
		logger.Info("connecting to MongoDB", "db", cfg.MongoDB)
		client, err := mongo.NewClient(cfg)
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer client.Close(context.Background())

		if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
			log.Fatalf("failed to ensure indexes: %v", err)
		}

		claimRepo = mongo.NewClaimRepo(client.DB, time.Duration(cfg.MongoOpTimeoutMs)*time.Millisecond)
		pinger = client

	case "dynamodb":
		logger.Info("connecting to DynamoDB", "region", cfg.AWSRegion, "endpoint", cfg.DynamoDBEndpoint)
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			log.Fatalf("failed to connect to DynamoDB: %v", err)
		}

		if err := dynamo.EnsureTables(ctx, client.DB, logger); err != nil {
			log.Fatalf("failed to ensure tables: %v", err)
		}

		claimRepo = dynamo.NewClaimRepo(client.DB)
		pinger = client

	default:
		log.Fatalf("unknown DB_TYPE %q", cfg.DBType)
	}

	// ---- Extraction provider ----
	var extractor core.Extractor
	if cfg.ExtractorURL != "" {
		extractor = extract.NewHTTPExtractor(cfg.ExtractorURL, cfg.ExtractorAPIKey,
			time.Duration(cfg.ExtractorTimeoutSec)*time.Second)
	} else {
		logger.Warn("EXTRACTOR_URL not set, using stub extractor")
		extractor = &extract.StubExtractor{}
	}

	// ---- Claim service ----
	risk := core.DefaultRiskConfig()
	risk.HighValueThreshold = cfg.HighValueThreshold
	risk.FrequentClaimsThreshold = cfg.FrequentClaimsThreshold
	decision := core.DecisionConfig{
		AutoApproveMaxScore:  cfg.AutoApproveMaxScore,
		AutoApproveMaxAmount: cfg.AutoApproveMaxAmount,
		ReviewMinScore:       cfg.ReviewMinScore,
	}

	// Notification delivery lives outside the core; stand in with a
	// structured log until a real notifier is attached.
	notify := func(ctx context.Context, claimID string, from, to core.ClaimStatus, reason string) {
		logger.InfoContext(ctx, "claim status changed",
			"claim_id", claimID,
			"from", from,
			"to", to,
			"reason", reason,
		)
	}

	svc := core.NewClaimService(claimRepo, extractor, core.ClaimServiceConfig{
		Risk:           risk,
		Decision:       decision,
		RecentWindow:   time.Duration(cfg.RecentWindowDays) * 24 * time.Hour,
		ExtractTimeout: time.Duration(cfg.ExtractorTimeoutSec) * time.Second,
		Notify:         notify,
	})

	// ---- Background workers ----
	scoringWorker := jobs.NewScoringWorker(claimRepo, svc,
		time.Duration(cfg.WorkerIntervalSec)*time.Second, logger)
	go scoringWorker.Start(ctx)

	// ---- Router ----
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(time.Duration(cfg.HTTPRequestTimeoutSec) * time.Second))

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.LimitRequestBody(middleware.MaxBodySize))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	rateLimiter.StartWithContext(ctx)
	r.Use(rateLimiter.Middleware)

	r.Use(middleware.SimpleAPIKey(cfg.APIKey))

	r.Mount("/", transporthttp.NewRouter(transporthttp.Deps{
		Health: health.New(logger, pinger, 2*time.Second),
		Mounts: []handlers.Mountable{
			handlers.NewClaimHandler(svc, logger),
			handlers.NewAdminHandler(svc, logger),
		},
	}))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env, "db", cfg.DBType)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}
