package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClassifierConfig tunes domain classification.
type ClassifierConfig struct {
	// SmoothingAlpha blends fresh evidence with the prior belief:
	// confidence' = alpha*evidence + (1-alpha)*prior. This is the single
	// smoothing constant for the whole engine.
	SmoothingAlpha float64 `yaml:"smoothingAlpha"`
	// MinConfidence is the floor below which the domain resolves to "general".
	MinConfidence float64 `yaml:"minConfidence"`
}

// ExpertiseConfig tunes the expertise tracker.
type ExpertiseConfig struct {
	RollingWindow    int     `yaml:"rollingWindow"`    // responses averaged, e.g. 3
	HysteresisMargin float64 `yaml:"hysteresisMargin"` // margin around level boundaries
	TrendEpsilon     float64 `yaml:"trendEpsilon"`     // slope below which the trend is stable
}

// QuestionConfig tunes question generation.
type QuestionConfig struct {
	// DuplicateSimilarity is the text-similarity threshold above which a
	// candidate question counts as a re-ask and is skipped.
	DuplicateSimilarity float64 `yaml:"duplicateSimilarity"`
}

// SourceConfig describes one knowledge source connector.
type SourceConfig struct {
	ID         string `yaml:"id"`
	Kind       string `yaml:"kind"` // cache | structured-doc | web-search | domain-signature
	Timeout    string `yaml:"timeout"`
	Priority   int    `yaml:"priority"`
	Endpoint   string `yaml:"endpoint,omitempty"` // web-search only
	Database   string `yaml:"database,omitempty"` // mongo-backed sources
	Collection string `yaml:"collection,omitempty"`
}

// KnowledgeConfig tunes the aggregator.
type KnowledgeConfig struct {
	MaxConcurrency  int            `yaml:"maxConcurrency"`  // fan-out bound, e.g. 4
	DedupSimilarity float64        `yaml:"dedupSimilarity"` // fragment merge threshold
	CacheCapacity   int            `yaml:"cacheCapacity"`
	CacheTTL        string         `yaml:"cacheTTL"`
	RecencyHalfLife string         `yaml:"recencyHalfLife"` // recencyDecay half-life
	Sources         []SourceConfig `yaml:"sources"`
}

// OrchestratorConfig tunes the per-turn pipeline.
type OrchestratorConfig struct {
	TurnBudget        string `yaml:"turnBudget"`        // end-to-end latency budget
	MinKnowledgeSlice string `yaml:"minKnowledgeSlice"` // below this, skip knowledge
	IdleTimeout       string `yaml:"idleTimeout"`       // session idle expiry
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// MilvusConfig holds Milvus connection settings for the vector source.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// Neo4jConfig holds Neo4j connection settings for the domain graph.
type Neo4jConfig struct {
	Uri      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// KafkaConfig holds Kafka settings for the artifact hand-off.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ArtifactTopic string   `yaml:"artifactTopic"`
}

// EmbeddingConfig configures the embedding model behind the vector source.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // currently "ollama"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseURL"`
}

// DatabaseConfigs groups every backing-service configuration.
type DatabaseConfigs struct {
	Redis  RedisConfig  `yaml:"redis"`
	Mongo  MongoConfig  `yaml:"mongodb"`
	Milvus MilvusConfig `yaml:"milvus"`
	Neo4j  Neo4jConfig  `yaml:"neo4j"`
	Kafka  KafkaConfig  `yaml:"kafka"`
}

// CircuitBreakerConfig configures the per-source breakers.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // open -> half-open cool-down
}

// RateLimiterConfig configures the turn-API token bucket.
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// MiddlewareConfig groups API middleware settings.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// EngineConfig groups the tuning of the core pipeline components.
type EngineConfig struct {
	Classifier   ClassifierConfig   `yaml:"classifier"`
	Expertise    ExpertiseConfig    `yaml:"expertise"`
	Question     QuestionConfig     `yaml:"question"`
	Knowledge    KnowledgeConfig    `yaml:"knowledge"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
}

// LoggerConfig sets the log level.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AppInfo holds basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Engine     EngineConfig     `yaml:"engine"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Logger     LoggerConfig     `yaml:"logger"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	HTTPAddr   string           `yaml:"httpAddr"`
}

// LoadConfig reads and parses the YAML configuration at path, applying
// defaults for any engine field left unset.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}
	cfg.Engine.ApplyDefaults()
	return &cfg, nil
}

// Duration parses a config duration string, falling back to def when the
// field is empty or malformed.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
