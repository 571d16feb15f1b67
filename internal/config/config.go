package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	AI        AIConfig
	Planner   PlannerConfig   `mapstructure:"planner"`
	Mastery   MasteryConfig   `mapstructure:"mastery"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
	// 按学生计算，作用于会调用 AI 的规划接口
	PlanningPerMinute int `mapstructure:"planning_per_minute"`
}

// AIConfig selects the text-generation and embedding providers.
type AIConfig struct {
	TextProvider      string          `mapstructure:"text_provider"`
	EmbeddingProvider string          `mapstructure:"embedding_provider"`
	Timeout           time.Duration   `mapstructure:"timeout"`
	OpenAI            OpenAIConfig    `mapstructure:"openai"`
	Gemini            GeminiConfig    `mapstructure:"gemini"`
	Anthropic         AnthropicConfig `mapstructure:"anthropic"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// PlannerConfig tunes the lesson-planning funnel. It can be reloaded at runtime.
type PlannerConfig struct {
	DefaultLevel        string        `mapstructure:"default_level"`
	MinUnits            int           `mapstructure:"min_units"`
	ExerciseSampleSize  int           `mapstructure:"exercise_sample_size"`
	SemanticSampleSize  int           `mapstructure:"semantic_sample_size"`
	SemanticPoolSize    int           `mapstructure:"semantic_pool_size"`
	TopicPoolSize       int           `mapstructure:"topic_pool_size"`
	SeenWindowDays      int           `mapstructure:"seen_window_days"`
	WeaknessProbability float64       `mapstructure:"weakness_probability"`
	SelectionPolicy     string        `mapstructure:"selection_policy"`
	LockTTL             time.Duration `mapstructure:"lock_ttl"`
}

// MasteryConfig controls how recent answers classify a topic as weak or strong.
type MasteryConfig struct {
	Window            int  `mapstructure:"window"`
	StrongStreak      int  `mapstructure:"strong_streak"`
	StrongStreakExact bool `mapstructure:"strong_streak_exact"`
}

type ServerConfig struct {
	Port     string
	Mode     string
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string `mapstructure:"sslmode"`
	Path      string
	LogLevel  string `mapstructure:"log_level"`
}

type JWTConfig struct {
	Secret   string `mapstructure:"secret"`
	Audience string `mapstructure:"audience"`
}

// StorageConfig points at the object store that holds content catalogs.
type StorageConfig struct {
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
	Insecure          bool   `mapstructure:"insecure"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_file", "logs/app.log")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "tutor.db")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("jwt.audience", "authenticated")

	v.SetDefault("ai.text_provider", "openai")
	v.SetDefault("ai.embedding_provider", "openai")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	v.SetDefault("ai.gemini.embedding_model", "gemini-embedding-001")
	v.SetDefault("ai.anthropic.model", "claude-haiku-4-5-20251001")

	v.SetDefault("planner.default_level", "A1")
	v.SetDefault("planner.min_units", 4)
	v.SetDefault("planner.exercise_sample_size", 5)
	v.SetDefault("planner.semantic_sample_size", 6)
	v.SetDefault("planner.semantic_pool_size", 50)
	v.SetDefault("planner.topic_pool_size", 30)
	v.SetDefault("planner.seen_window_days", 14)
	v.SetDefault("planner.weakness_probability", 0.7)
	v.SetDefault("planner.selection_policy", "uniform")
	v.SetDefault("planner.lock_ttl", 30*time.Second)

	v.SetDefault("mastery.window", 5)
	v.SetDefault("mastery.strong_streak", 3)
	v.SetDefault("mastery.strong_streak_exact", false)

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.planning_per_minute", 20)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TUTOR")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("ai.openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("ai.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("ai.anthropic.api_key", "ANTHROPIC_API_KEY")

	// Storage
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the planner cannot honour.
func (c *Config) Validate() error {
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}

	p := c.Planner
	if p.MinUnits < 1 {
		return fmt.Errorf("planner.min_units must be positive, got %d", p.MinUnits)
	}
	if p.ExerciseSampleSize < p.MinUnits || p.SemanticSampleSize < p.MinUnits {
		return fmt.Errorf("planner sample sizes (%d, %d) must not be below planner.min_units (%d)",
			p.ExerciseSampleSize, p.SemanticSampleSize, p.MinUnits)
	}
	if p.WeaknessProbability < 0 || p.WeaknessProbability > 1 {
		return fmt.Errorf("planner.weakness_probability must be within [0,1], got %v", p.WeaknessProbability)
	}
	switch p.SelectionPolicy {
	case "uniform", "balanced":
	default:
		return fmt.Errorf("planner.selection_policy must be uniform or balanced, got %q", p.SelectionPolicy)
	}

	if c.Mastery.Window < 1 || c.Mastery.StrongStreak < 1 {
		return fmt.Errorf("mastery.window and mastery.strong_streak must be positive")
	}

	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}
