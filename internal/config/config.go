package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Gemini    GeminiConfig
	Qdrant    QdrantConfig
	AI        AIConfig
	RateLimit RateLimitConfig
	Scoring   ScoringConfig
	Knowledge KnowledgeConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

type AIConfig struct {
	// UpstreamTimeout bounds every LLM call; expiry counts as a failure
	// against the circuit breaker.
	UpstreamTimeout time.Duration
	MaxOutputTokens int

	ExplanationTTL time.Duration

	// Per-1K-token upstream prices, used by the cost ledger.
	InputCostPer1K  float64
	OutputCostPer1K float64

	// DailyBudgetUSD is the per-tenant ceiling. Zero disables the check.
	DailyBudgetUSD float64

	BreakerFailureThreshold int
	BreakerWindow           time.Duration
	BreakerCoolDown         time.Duration
}

type RateLimitConfig struct {
	// Daily ceilings per quota plan. Negative means unlimited.
	FreePerDay int
	ProPerDay  int
	TeamPerDay int
}

type ScoringConfig struct {
	// PoolSize bounds batch-scoring parallelism.
	PoolSize int
}

type KnowledgeConfig struct {
	DocsDir string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ai_fund_matcher"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "fund_matcher_docs"),
		},
		AI: AIConfig{
			UpstreamTimeout:         getEnvAsDuration("AI_UPSTREAM_TIMEOUT", "15s"),
			MaxOutputTokens:         getEnvAsInt("AI_MAX_OUTPUT_TOKENS", 1024),
			ExplanationTTL:          getEnvAsDuration("AI_EXPLANATION_TTL", "24h"),
			InputCostPer1K:          getEnvAsFloat("AI_INPUT_COST_PER_1K", 0.0003),
			OutputCostPer1K:         getEnvAsFloat("AI_OUTPUT_COST_PER_1K", 0.0025),
			DailyBudgetUSD:          getEnvAsFloat("AI_DAILY_BUDGET_USD", 5.0),
			BreakerFailureThreshold: getEnvAsInt("AI_BREAKER_FAILURE_THRESHOLD", 5),
			BreakerWindow:           getEnvAsDuration("AI_BREAKER_WINDOW", "60s"),
			BreakerCoolDown:         getEnvAsDuration("AI_BREAKER_COOLDOWN", "30s"),
		},
		RateLimit: RateLimitConfig{
			FreePerDay: getEnvAsInt("RATE_LIMIT_FREE_PER_DAY", 10),
			ProPerDay:  getEnvAsInt("RATE_LIMIT_PRO_PER_DAY", 100),
			TeamPerDay: getEnvAsInt("RATE_LIMIT_TEAM_PER_DAY", -1),
		},
		Scoring: ScoringConfig{
			PoolSize: getEnvAsInt("SCORING_POOL_SIZE", 8),
		},
		Knowledge: KnowledgeConfig{
			DocsDir: getEnv("KNOWLEDGE_DOCS_DIR", "./guideline_docs"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		parsed, _ = time.ParseDuration(defaultValue)
	}
	return parsed
}
