package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Search   SearchConfig
	LLM      LLMConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Firebase FirebaseConfig
	OpenData OpenDataConfig
	App      AppConfig
}

type ServerConfig struct {
	Port    string
	SiteURL string
}

type DatabaseConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

type SearchConfig struct {
	// Backend is "postgres" (ranked search procedure) or "local" (snippet directory index).
	Backend     string
	Function    string
	SnippetsDir string
}

type LLMConfig struct {
	Provider        string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	Timeout         time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type StorageConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	SignedURLTTL time.Duration
	FileTTL      time.Duration
	SweepSpec    string
}

type FirebaseConfig struct {
	CredentialsPath string
}

type OpenDataConfig struct {
	BLSAPIKey         string
	ScorecardAPIKey   string
	RegulationsAPIKey string
	RequestsPerSecond int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			SiteURL: strings.TrimRight(getEnv("SITE_URL", "http://localhost:5173"), "/"),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Search: SearchConfig{
			Backend:     strings.ToLower(getEnv("SEARCH_BACKEND", "postgres")),
			Function:    getEnv("SEARCH_FUNCTION", "search_corpus"),
			SnippetsDir: getEnv("RAG_SNIPPETS_DIR", "data/snippets"),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL:   strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("OPENDATA_CACHE_TTL", 15*time.Minute),
		},
		Storage: StorageConfig{
			Bucket:       getEnv("S3_BUCKET", ""),
			Region:       getEnv("S3_REGION", "us-east-1"),
			Endpoint:     getEnv("S3_ENDPOINT", ""),
			SignedURLTTL: getEnvAsDuration("SIGNED_URL_TTL", 15*time.Minute),
			FileTTL:      getEnvAsDuration("SANDBOX_FILE_TTL", 24*time.Hour),
			SweepSpec:    getEnv("SANDBOX_SWEEP_SPEC", "0 */15 * * * *"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		OpenData: OpenDataConfig{
			BLSAPIKey:         getEnv("BLS_API_KEY", ""),
			ScorecardAPIKey:   getEnv("SCORECARD_API_KEY", ""),
			RegulationsAPIKey: getEnv("REGULATIONS_API_KEY", ""),
			RequestsPerSecond: getEnvAsInt("OPENDATA_RPS", 5),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate only rejects settings the process cannot start without.
// Credentials for upstream services are checked per request.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Search.Backend {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required when SEARCH_BACKEND=postgres")
		}
	case "local":
		if c.Search.SnippetsDir == "" {
			return fmt.Errorf("RAG_SNIPPETS_DIR is required when SEARCH_BACKEND=local")
		}
	default:
		return fmt.Errorf("SEARCH_BACKEND must be postgres or local, got %q", c.Search.Backend)
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", c.LLM.Provider)
	}

	if c.OpenData.RequestsPerSecond <= 0 {
		return fmt.Errorf("OPENDATA_RPS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
