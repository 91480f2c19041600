package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	osignal "os/signal"
	"syscall"
	"time"

	"socratic/internal/classify"
	"socratic/internal/config"
	kafkadb "socratic/internal/database/kafka"
	"socratic/internal/database/milvus"
	mongodb "socratic/internal/database/mongo"
	neo4jdb "socratic/internal/database/neo4j"
	redisdb "socratic/internal/database/redis"
	"socratic/internal/embedding"
	"socratic/internal/expertise"
	"socratic/internal/inquiry/api"
	"socratic/internal/inquiry/publisher"
	"socratic/internal/inquiry/service"
	"socratic/internal/knowledge"
	"socratic/internal/knowledge/source"
	"socratic/internal/models"
	"socratic/internal/question"
	"socratic/internal/session"
	"socratic/internal/signal"
	"socratic/internal/signature"
	"socratic/pkg/circuitbreaker"
	httpclient "socratic/pkg/http"
	"socratic/pkg/logger"
	"socratic/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	gomongo "go.mongodb.org/mongo-driver/mongo"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("InquiryService", "")
	appLogger.Info("Starting Inquiry Service...")

	ctx := context.Background()

	// 3. Connect backing services. Each is optional: an empty address disables
	// the components that depend on it, and the engine degrades accordingly.
	redisClient := connectRedis(ctx, cfg, appLogger)
	mongoDB := connectMongo(ctx, cfg, appLogger)
	milvusClient := connectMilvus(ctx, cfg, appLogger)
	neo4jClient := connectNeo4j(ctx, cfg, appLogger)

	// 4. Knowledge layer: configured sources behind per-source circuit
	// breakers, merged by the aggregator.
	sources := buildSources(cfg, redisClient, mongoDB, milvusClient, appLogger)
	breakers := circuitbreaker.NewSet(
		cfg.Middleware.CircuitBreaker.FailureThreshold,
		cfg.Middleware.CircuitBreaker.SuccessThreshold,
		config.Duration(cfg.Middleware.CircuitBreaker.Timeout, 30*time.Second),
	)
	aggregator, err := knowledge.NewAggregator(sources, breakers, knowledge.Options{
		MaxConcurrency:  cfg.Engine.Knowledge.MaxConcurrency,
		DedupSimilarity: cfg.Engine.Knowledge.DedupSimilarity,
		CacheCapacity:   cfg.Engine.Knowledge.CacheCapacity,
		CacheTTL:        config.Duration(cfg.Engine.Knowledge.CacheTTL, 10*time.Minute),
		RecencyHalfLife: config.Duration(cfg.Engine.Knowledge.RecencyHalfLife, 6*time.Hour),
		DefaultTimeout:  config.Duration(config.DefaultSourceTimeout, 2*time.Second),
	}, logger.New("KnowledgeAggregator", ""))
	if err != nil {
		log.Fatalf("Failed to create knowledge aggregator: %v", err)
	}

	// 5. Classification side: signature provider, related-domain finder,
	// classifier, expertise tracker and question generator.
	provider, domainSource := buildSignatureProvider(cfg, aggregator)
	var related signature.RelatedDomainFinder = signature.NoRelatedFinder{}
	if neo4jClient != nil {
		related = signature.NewGraphRelatedFinder(neo4jClient, logger.New("DomainGraph", ""))
	}
	classifier := classify.NewClassifier(
		provider, related, domainSource,
		cfg.Engine.Classifier.SmoothingAlpha, cfg.Engine.Classifier.MinConfidence,
		logger.New("DomainClassifier", ""),
	)
	tracker := expertise.NewTracker(
		cfg.Engine.Expertise.RollingWindow,
		cfg.Engine.Expertise.HysteresisMargin,
		cfg.Engine.Expertise.TrendEpsilon,
	)
	generator := question.NewGenerator(nil, cfg.Engine.Question.DuplicateSimilarity, logger.New("QuestionGenerator", ""))

	// 6. Session state, archive and artifact hand-off.
	idleTimeout := config.Duration(cfg.Engine.Orchestrator.IdleTimeout, 30*time.Minute)
	var store session.Store = session.NewMemoryStore(idleTimeout)
	if redisClient != nil {
		store = session.NewRedisStore(redisClient, idleTimeout)
	}
	var archiver session.Archiver = session.NoArchiver{}
	if mongoDB != nil {
		archiver = session.NewMongoArchiver(mongoDB, "completed_sessions")
	}
	var artifactPub publisher.ArtifactPublisher = publisher.NoPublisher{}
	if len(cfg.Databases.Kafka.Brokers) > 0 && cfg.Databases.Kafka.ArtifactTopic != "" {
		writer := kafkadb.NewWriter(&cfg.Databases.Kafka)
		defer writer.Close()
		artifactPub = publisher.NewKafkaPublisher(writer, logger.New("ArtifactPublisher", ""))
	}

	// 7. Orchestrator and HTTP surface.
	inquiryService := service.NewInquiryService(
		signal.NewStructuralExtractor(logger.New("SignalExtractor", "")),
		classifier, tracker, aggregator, generator,
		store, archiver, artifactPub,
		service.Options{
			TurnBudget:        config.Duration(cfg.Engine.Orchestrator.TurnBudget, 3*time.Second),
			MinKnowledgeSlice: config.Duration(cfg.Engine.Orchestrator.MinKnowledgeSlice, 500*time.Millisecond),
			IdleTimeout:       idleTimeout,
		},
		logger.New("Orchestrator", ""),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	var limiter ratelimiter.RateLimiter
	if cfg.Middleware.RateLimiter.Enabled {
		limiter = ratelimiter.NewTokenBucket(cfg.Middleware.RateLimiter.Rate, cfg.Middleware.RateLimiter.Capacity)
	}
	api.RegisterRoutes(router, api.NewAPI(inquiryService, logger.New("InquiryAPI", "")), limiter)

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	osignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Server shutdown failed")
	}
	if neo4jClient != nil {
		_ = neo4jClient.Close(ctx)
	}
	if milvusClient != nil {
		_ = milvusClient.Close()
	}
	appLogger.Info("Server gracefully stopped")
}

func connectRedis(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) *goredis.Client {
	if cfg.Databases.Redis.Address == "" {
		log.Warn("Redis not configured; sessions live in memory only")
		return nil
	}
	client, err := redisdb.NewClient(ctx, &cfg.Databases.Redis)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	return client
}

func connectMongo(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) *gomongo.Database {
	if cfg.Databases.Mongo.Address == "" {
		log.Warn("MongoDB not configured; document sources and session archive disabled")
		return nil
	}
	client, err := mongodb.NewClient(ctx, &cfg.Databases.Mongo)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
	}
	return client.Database(cfg.Databases.Mongo.Database)
}

func connectMilvus(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) *milvus.Client {
	if cfg.Databases.Milvus.Address == "" {
		log.Warn("Milvus not configured; vector knowledge source disabled")
		return nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to connect to Milvus: %v", err))
	}
	return client
}

func connectNeo4j(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) *neo4jdb.Client {
	if cfg.Databases.Neo4j.Uri == "" {
		log.Warn("Neo4j not configured; related-domain lookup disabled")
		return nil
	}
	client, err := neo4jdb.NewClient(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to connect to Neo4j: %v", err))
	}
	return client
}

// buildSources constructs every configured knowledge source whose backing
// service is available. A source requiring an unconnected service is skipped
// with a warning rather than failing startup.
func buildSources(cfg *config.AppConfig, redisClient *goredis.Client, mongoDB *gomongo.Database, milvusClient *milvus.Client, log *logger.Logger) []knowledge.Source {
	var sources []knowledge.Source
	for _, sc := range cfg.Engine.Knowledge.Sources {
		desc := models.KnowledgeSource{
			ID:       sc.ID,
			Kind:     models.SourceKind(sc.Kind),
			Timeout:  config.Duration(sc.Timeout, config.Duration(config.DefaultSourceTimeout, 2*time.Second)),
			Priority: sc.Priority,
		}
		switch desc.Kind {
		case models.SourceKindCache:
			if redisClient == nil {
				log.Warn(fmt.Sprintf("skipping source %s: Redis not connected", sc.ID))
				continue
			}
			ttl := config.Duration(cfg.Engine.Knowledge.CacheTTL, 10*time.Minute)
			sources = append(sources, source.NewRedisCacheSource(redisClient, desc, ttl))
		case models.SourceKindStructuredDoc:
			switch {
			case sc.Collection != "" && mongoDB != nil:
				sources = append(sources, source.NewMongoDocSource(mongoDB, sc.Collection, desc))
			case milvusClient != nil:
				embedder, err := embedding.NewOllamaModel(cfg.Embedding.Model, cfg.Embedding.BaseURL)
				if err != nil {
					log.Warn(fmt.Sprintf("skipping source %s: %v", sc.ID, err))
					continue
				}
				sources = append(sources, source.NewMilvusVectorSource(milvusClient, embedder, desc))
			default:
				log.Warn(fmt.Sprintf("skipping source %s: no document backend connected", sc.ID))
			}
		case models.SourceKindWebSearch:
			if sc.Endpoint == "" {
				log.Warn(fmt.Sprintf("skipping source %s: no endpoint configured", sc.ID))
				continue
			}
			client := httpclient.NewClient(cfg.Middleware.CircuitBreaker, desc.Timeout)
			sources = append(sources, source.NewWebSearchSource(client, sc.Endpoint, desc))
		case models.SourceKindDomainSignature:
			if mongoDB == nil || sc.Collection == "" {
				log.Warn(fmt.Sprintf("skipping source %s: MongoDB collection not available", sc.ID))
				continue
			}
			sources = append(sources, source.NewMongoSignatureSource(mongoDB, sc.Collection, desc))
		default:
			log.Warn(fmt.Sprintf("skipping source %s: unknown kind %q", sc.ID, sc.Kind))
		}
	}
	return sources
}

// buildSignatureProvider chooses between the static corpus and the
// knowledge-backed provider, depending on whether a signature source is
// configured. The domain source tag follows the choice.
func buildSignatureProvider(cfg *config.AppConfig, aggregator *knowledge.Aggregator) (signature.Provider, models.DomainSource) {
	for _, sc := range cfg.Engine.Knowledge.Sources {
		if models.SourceKind(sc.Kind) == models.SourceKindDomainSignature {
			provider := signature.NewKnowledgeProvider(
				aggregator,
				signature.NewStaticProvider(nil),
				logger.New("SignatureProvider", ""),
			)
			return provider, models.SourceHybrid
		}
	}
	return signature.NewStaticProvider(nil), models.SourceConversation
}
