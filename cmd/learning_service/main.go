package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"smartlearn/internal/config"
	"smartlearn/internal/database/kafka"
	"smartlearn/internal/database/milvus"
	"smartlearn/internal/database/minio"
	"smartlearn/internal/database/mongo"
	"smartlearn/internal/database/mysql"
	"smartlearn/internal/database/redis"
	"smartlearn/internal/embedding"
	learnerapi "smartlearn/internal/learner_service/api"
	learnerservice "smartlearn/internal/learner_service/service"
	learnerstore "smartlearn/internal/learner_service/store"
	"smartlearn/internal/learning/quiz"
	"smartlearn/internal/learning/rag/embeddings"
	"smartlearn/internal/learning/rag/llms"
	"smartlearn/internal/learning/rag/loaders"
	"smartlearn/internal/learning/rag/pipeline"
	"smartlearn/internal/learning/rag/splitters"
	"smartlearn/internal/learning/rag/vectorstore"
	"smartlearn/internal/learning/store"
	"smartlearn/internal/learning_service/api"
	"smartlearn/internal/learning_service/service"
	"smartlearn/internal/llm"
	"smartlearn/internal/recommend"
	"smartlearn/pkg/logger"
)

const activityTopic = "learning.activity"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("LearningService", "", "")
	appLogger.Info("Starting Learning Service...")

	ctx := context.Background()

	// Datastores.
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}
	if err := minio.EnsureBucket(ctx, minioClient, cfg.Databases.MinIO.Bucket); err != nil {
		log.Fatalf("Failed to prepare bucket: %v", err)
	}

	// Activity events are a side channel; run without them when Kafka is
	// not configured.
	var publisher kafka.Publisher = kafka.NopPublisher{}
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			log.Fatalf("Failed to connect to Kafka: %v", err)
		}
		defer kafkaClient.Close()
		publisher = kafka.NewActivityPublisher(kafkaClient, activityTopic, appLogger)
	}

	// Model providers.
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	embeddingClient, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	// RAG components.
	splitter, err := splitters.NewPageSplitter(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}
	embedder := embeddings.NewRetryEmbedder(embeddingClient, embeddings.Options{
		BatchSize:  cfg.Ingestion.EmbedBatchSize,
		MaxRetries: cfg.Ingestion.EmbedMaxRetries,
		Dimension:  cfg.Embedding.Dimension,
		Timeout:    time.Duration(cfg.Timeouts.Embedding) * time.Second,
	}, appLogger)
	index, err := vectorstore.NewMilvusIndex(milvusClient,
		time.Duration(cfg.Ingestion.IndexReadyTimeout)*time.Second, appLogger)
	if err != nil {
		log.Fatalf("Failed to create vector index: %v", err)
	}
	llmAdapter := llms.NewAdapter(llmClient, time.Duration(cfg.Timeouts.Generation)*time.Second)

	ingestor := pipeline.NewIngestionPipeline(splitter, embedder, index, cfg.Embedding.Dimension, appLogger)
	retriever := pipeline.NewRetriever(embedder, index, 5,
		time.Duration(cfg.Timeouts.Search)*time.Second, appLogger)
	synthesizer := pipeline.NewSynthesizer(llmAdapter, appLogger)

	// Quiz and recommendation components.
	generator := quiz.NewGenerator(llmAdapter, retriever, appLogger)
	evaluator := quiz.NewEvaluator(llmAdapter, appLogger)

	sources := []recommend.Source{}
	if cfg.YouTube.APIKey != "" {
		youtubeSource, err := recommend.NewYouTubeSource(ctx, cfg.YouTube.APIKey, appLogger)
		if err != nil {
			log.Fatalf("Failed to create YouTube source: %v", err)
		}
		sources = append(sources, youtubeSource)
	} else {
		appLogger.Warn("no YouTube API key configured, falling back to search links")
	}
	sources = append(sources, recommend.SearchLinkSource{})
	recommender := recommend.NewRecommender(llmAdapter, sources, int(cfg.YouTube.MaxResults), appLogger)

	// Services.
	accountStore, err := learnerstore.NewStore(db)
	if err != nil {
		log.Fatalf("Failed to prepare learner store: %v", err)
	}
	accountService := learnerservice.NewService(accountStore, cfg.Auth.JwtSecret,
		time.Duration(cfg.Auth.TokenTTL)*time.Second)
	accountHandler := learnerapi.NewHandler(accountService)

	studyStore := store.NewStudyStore(mongoClient, cfg.Databases.MongoDB.Database, appLogger)
	locker := store.NewProgressLocker(redisClient, appLogger)

	studyService := service.NewService(service.Deps{
		Store:       studyStore,
		Locker:      locker,
		Objects:     minioClient,
		Bucket:      cfg.Databases.MinIO.Bucket,
		Loader:      loaders.NewPDFLoader(),
		Ingestor:    ingestor,
		Retriever:   retriever,
		Synthesizer: synthesizer,
		Generator:   generator,
		Evaluator:   evaluator,
		Index:       index,
		Publisher:   publisher,
		Recommender: recommender,
		Log:         appLogger,
	})
	studyHandler := api.NewHandler(studyService, appLogger)

	// HTTP server.
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(accountHandler, studyHandler, cfg.Auth.JwtSecret)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}

	milvusClient.Close()
	if err := mongo.Close(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("Failed to close MongoDB connection")
	}
	if err := redis.Close(); err != nil {
		appLogger.WithError(err).Warn("Failed to close Redis connection")
	}
	if err := mysql.Close(); err != nil {
		appLogger.WithError(err).Warn("Failed to close MySQL connection")
	}
	appLogger.Info("Server gracefully stopped")
}
