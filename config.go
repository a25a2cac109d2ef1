package popquiz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	SessionSecret  string   `mapstructure:"session_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// requests per minute per user on model-backed routes
	RateLimit int `mapstructure:"rate_limit"`
}

// LLMConfig points at an OpenAI-compatible completion endpoint
type LLMConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	GradingTimeout    time.Duration `mapstructure:"grading_timeout"`
}

// DatabaseConfig holds the SQLite file location
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig sets the log level and the rotated log and transcript files
type LogConfig struct {
	Level          string `mapstructure:"level"`
	File           string `mapstructure:"file"`
	TranscriptFile string `mapstructure:"transcript_file"`
}

// GenerationConfig bounds question generation requests
type GenerationConfig struct {
	MaxQuestions    int `mapstructure:"max_questions"`
	SourceTextLimit int `mapstructure:"source_text_limit"`
}

// LoadConfig reads config.yaml from path if present, then applies
// POPQUIZ_* environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8180")
	v.SetDefault("server.session_secret", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "mistral:7b")
	v.SetDefault("llm.generation_timeout", 30*time.Second)
	v.SetDefault("llm.grading_timeout", 45*time.Second)
	v.SetDefault("database.path", "./popquiz.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/popquiz.log")
	v.SetDefault("log.transcript_file", "logs/llm.log")
	v.SetDefault("generation.max_questions", 20)
	v.SetDefault("generation.source_text_limit", DefaultSourceTextLimit)

	v.SetEnvPrefix("POPQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("llm.api_key", "POPQUIZ_LLM_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.base_url", "POPQUIZ_LLM_BASE_URL")
	v.BindEnv("llm.model", "POPQUIZ_LLM_MODEL")
	v.BindEnv("server.port", "POPQUIZ_SERVER_PORT", "PORT")
	v.BindEnv("server.session_secret", "POPQUIZ_SESSION_SECRET")
	v.BindEnv("database.path", "POPQUIZ_DATABASE_PATH")
	v.BindEnv("log.level", "POPQUIZ_LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Generation.MaxQuestions <= 0 {
		return nil, fmt.Errorf("generation.max_questions must be positive, got %d", cfg.Generation.MaxQuestions)
	}
	if cfg.LLM.GenerationTimeout <= 0 || cfg.LLM.GradingTimeout <= 0 {
		return nil, errors.New("llm timeouts must be positive")
	}

	return &cfg, nil
}
