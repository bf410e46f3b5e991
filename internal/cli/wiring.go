package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"docquiz-service/internal/ai"
	"docquiz-service/internal/app"
	"docquiz-service/internal/config"
	"docquiz-service/internal/domain"
	"docquiz-service/internal/infra/memory"
	"docquiz-service/internal/infra/postgres"
	rediscache "docquiz-service/internal/infra/redis"
	"docquiz-service/internal/infra/rest"
	"docquiz-service/internal/logging"
	"docquiz-service/internal/retry"
)

// services bundles the wired use cases for one command invocation.
type services struct {
	cfg      config.Config
	log      *logrus.Logger
	ingest   *app.IngestService
	generate *app.GenerationService
	quizzes  *app.QuizService
	blobs    app.BlobStore
	close    func()
}

// buildServices loads config and assembles the dependency graph: hosted
// REST tier when a remote base URL is set, direct Postgres otherwise, and
// in-memory stores when neither is configured.
func buildServices(ctx context.Context, path string) (*services, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	retrier := retry.New(retry.Policy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     config.Duration(cfg.Retry.BaseDelay, 0),
		MaxDelay:      config.Duration(cfg.Retry.MaxDelay, 0),
		PerTryTimeout: config.Duration(cfg.Retry.PerTryTimeout, 0),
	}, log)

	closers := make([]func(), 0, 2)

	var records app.RecordStore
	var blobs app.BlobStore
	switch {
	case cfg.Remote.BaseURL != "":
		client := rest.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, &http.Client{Timeout: 30 * time.Second}, retrier, log)
		records = rest.NewRecordStore(client)
		blobs = rest.NewBlobStore(client)
		log.WithField("base_url", cfg.Remote.BaseURL).Info("Using hosted REST persistence")
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, pool.Close)
		store := postgres.NewStore(pool)
		records = store
		blobs = store
		log.Info("Using Postgres persistence")
	default:
		store := memory.NewStore()
		records = store
		blobs = store
		log.Warn("No persistence configured, records held in memory only")
	}

	var cache app.CacheStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		cache = rediscache.NewCache(client, config.Duration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		cache = memory.NewCache()
	}
	mirror := app.NewMirror(cache)

	generator, err := buildGenerator(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	ingest := app.NewIngestService(records, blobs, mirror, cfg.Remote.Bucket, log)
	generation := app.NewGenerationService(records, mirror, generator, retrier, ingest, log)
	quizzes := app.NewQuizService(records, mirror, log)

	return &services{
		cfg:      cfg,
		log:      log,
		ingest:   ingest,
		generate: generation,
		quizzes:  quizzes,
		blobs:    blobs,
		close: func() {
			for _, fn := range closers {
				fn()
			}
		},
	}, nil
}

// buildGenerator picks the provider from config, falling back to the
// standard environment keys. With no provider at all, retrieval-only usage
// still works: generation produces error quizzes with a clear reason.
func buildGenerator(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (app.QuestionGenerator, error) {
	provider := cfg.AI.Provider
	openAIKey := cfg.AI.OpenAIKey
	if openAIKey == "" {
		openAIKey = os.Getenv("OPENAI_API_KEY")
	}
	geminiKey := cfg.AI.GeminiKey
	if geminiKey == "" {
		geminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if provider == "" {
		switch {
		case openAIKey != "":
			provider = "openai"
		case geminiKey != "":
			provider = "gemini"
		}
	}

	switch provider {
	case "openai":
		if openAIKey == "" {
			return nil, fmt.Errorf("openai provider selected but no api key configured")
		}
		return ai.NewOpenAIGenerator(openAIKey, cfg.AI.OpenAIModel, log), nil
	case "gemini":
		if geminiKey == "" {
			return nil, fmt.Errorf("gemini provider selected but no api key configured")
		}
		return ai.NewGeminiGenerator(ctx, geminiKey, cfg.AI.GeminiModel, log)
	case "":
		log.Warn("No AI provider configured, generation will produce error quizzes")
		return unconfiguredGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", provider)
	}
}

type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, string, ai.GenerateOptions) ([]ai.Candidate, error) {
	return nil, domain.Validationf("no AI provider configured")
}
