package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"clauseguard-backend/cache"
	"clauseguard-backend/config"
	"clauseguard-backend/generator"
	"clauseguard-backend/handlers"
	"clauseguard-backend/logging"
	"clauseguard-backend/metrics"
	"clauseguard-backend/pipeline"
	"clauseguard-backend/repository"
	"clauseguard-backend/service"
	"clauseguard-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load(os.Getenv("CLAUSEGUARD_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	// Initialize database connections
	db, err := initPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize Postgres", logging.Err(err))
	}
	defer db.Close()
	logger.Info("Postgres connection established")

	// Initialize storage
	fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize storage", logging.Err(err))
	}
	logger.Info("Storage initialized", logging.String("type", string(cfg.Storage.Type)))

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to register metrics", logging.Err(err))
	}

	// Initialize repositories
	documentRepo := repository.NewDocumentRepository(db)
	fileRepo := repository.NewFileRepository(db)
	jobRepo := repository.NewAnalysisJobRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)

	var references pipeline.ReferenceSource = repository.NewReferenceClauseRepository(db)
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("Redis unavailable, reading reference clauses from Postgres", logging.Err(err))
		} else {
			defer client.Close()
			references = cache.NewReferenceCache(client, references,
				cache.WithPrefix(cfg.Redis.Prefix),
				cache.WithTTL(cfg.Redis.TTL),
				cache.WithLogger(logger.Named("cache")),
				cache.WithLookupObserver(m),
			)
			logger.Info("Reference clause cache enabled", logging.String("addr", cfg.Redis.Addr))
		}
	}

	// Initialize Gemini, optional: without it recommendations come from templates
	engineOpts := []pipeline.EngineOption{
		pipeline.WithGenerationTimeout(cfg.Pipeline.GenerationTimeout),
		pipeline.WithEngineLogger(logger.Named("engine")),
		pipeline.WithEngineObserver(m),
	}
	documentOpts := []service.DocumentServiceOption{
		service.DocumentWithDocumentRepository(documentRepo),
		service.DocumentWithFileRepository(fileRepo),
		service.DocumentWithStorage(fileStorage),
		service.DocumentWithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		service.DocumentWithLogger(logger.Named("documents")),
		service.DocumentWithExtractor(service.PlainTextExtractor{}),
		service.DocumentWithExtractor(service.DocxExtractor{}),
	}
	if cfg.Gemini.Enabled() {
		geminiClient, err := generator.NewClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini", logging.Err(err))
		}
		defer geminiClient.Close()

		genOpts := []generator.Option{
			generator.WithModel(cfg.Gemini.Model),
			generator.WithTemperature(float32(cfg.Gemini.Temperature)),
			generator.WithMaxRetries(cfg.Gemini.MaxRetries),
			generator.WithInitialBackoff(cfg.Gemini.Backoff),
			generator.WithLogger(logger.Named("gemini")),
		}
		engineOpts = append(engineOpts, pipeline.WithGenerator(generator.NewGemini(geminiClient, genOpts...)))
		documentOpts = append(documentOpts, service.DocumentWithExtractor(generator.NewGeminiExtractor(geminiClient, genOpts...)))
		logger.Info("Gemini client initialized", logging.String("model", cfg.Gemini.Model))
	} else {
		logger.Warn("GEMINI_API_KEY not set, using template recommendations and local text and .docx extraction only")
	}

	clausePipeline := pipeline.New(
		pipeline.WithLimit(cfg.Pipeline.Limit),
		pipeline.WithEngine(pipeline.NewEngine(engineOpts...)),
		pipeline.WithLogger(logger.Named("pipeline")),
		pipeline.WithObserver(m),
	)

	// Initialize services
	documentService := service.NewDocumentService(documentOpts...)
	analysisService := service.NewAnalysisService(
		service.AnalysisWithDocumentRepository(documentRepo),
		service.AnalysisWithJobRepository(jobRepo),
		service.AnalysisWithRecommendationRepository(recommendationRepo),
		service.AnalysisWithReferences(references),
		service.AnalysisWithPipeline(clausePipeline),
		service.AnalysisWithJobTimeout(cfg.Pipeline.JobTimeout),
		service.AnalysisWithJobObserver(m),
		service.AnalysisWithLogger(logger.Named("analysis")),
	)

	// Initialize handlers
	documentHandler := handlers.NewDocumentHandler(documentService, logger.Named("http"))
	analysisHandler := handlers.NewAnalysisHandler(analysisService, logger.Named("http"))

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), m.GinMiddleware())
	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(r, documentHandler, analysisHandler)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server starting", logging.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", logging.Err(err))
	}
}

func initPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
