package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	Chat        ChatConfig       `json:"chat"`
	Cache       CacheConfig      `json:"cache"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider       string                 `json:"provider"`
	Model          string                 `json:"model"`
	EmbedProvider  string                 `json:"embed_provider"`
	EmbedModel     string                 `json:"embed_model"`
	EmbedDims      int                    `json:"embed_dims"`
	TimeoutSeconds int                    `json:"timeout_seconds"`
	Data           map[string]interface{} `json:"data"`
	EmbedData      map[string]interface{} `json:"embed_data"`
}

type ChatConfig struct {
	TopK               int `json:"top_k"`
	MaxSources         int `json:"max_sources"`
	ContextBudget      int `json:"context_budget"`
	MaxMessageChars    int `json:"max_message_chars"`
	EmbedRetries       int `json:"embed_retries"`
	EmbedRetryDelaySec int `json:"embed_retry_delay_sec"`
}

type CacheConfig struct {
	EmbedLRUSize    int `json:"embed_lru_size"`
	EmbedLRUTTLMin  int `json:"embed_lru_ttl_min"`
	EmbedMaxAgeDays int `json:"embed_max_age_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnvOverrides(&cfg)
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database dsn or host/db_name is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.EmbedDims == 0 {
		cfg.AI.EmbedDims = 384
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 8
	}
	if cfg.Chat.MaxSources == 0 {
		cfg.Chat.MaxSources = 3
	}
	if cfg.Chat.ContextBudget == 0 {
		cfg.Chat.ContextBudget = 6000
	}
	if cfg.Chat.MaxMessageChars == 0 {
		cfg.Chat.MaxMessageChars = 2000
	}
	if cfg.Chat.EmbedRetries == 0 {
		cfg.Chat.EmbedRetries = 3
	}
	if cfg.Chat.EmbedRetryDelaySec == 0 {
		cfg.Chat.EmbedRetryDelaySec = 2
	}
	if cfg.Cache.EmbedLRUSize == 0 {
		cfg.Cache.EmbedLRUSize = 4096
	}
	if cfg.Cache.EmbedLRUTTLMin == 0 {
		cfg.Cache.EmbedLRUTTLMin = 120
	}
	if cfg.Cache.EmbedMaxAgeDays == 0 {
		cfg.Cache.EmbedMaxAgeDays = 30
	}
	return &cfg, nil
}

// Secrets are never required to live in the config file; environment variables
// win when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RCAI_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("RCAI_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if cfg.AI.Data == nil {
			cfg.AI.Data = map[string]interface{}{}
		}
		if _, ok := cfg.AI.Data["api_key"]; !ok {
			cfg.AI.Data["api_key"] = v
		}
	}
	if v := os.Getenv("HF_API_KEY"); v != "" {
		if cfg.AI.EmbedData == nil {
			cfg.AI.EmbedData = map[string]interface{}{}
		}
		if _, ok := cfg.AI.EmbedData["api_key"]; !ok {
			cfg.AI.EmbedData["api_key"] = v
		}
	}
}
