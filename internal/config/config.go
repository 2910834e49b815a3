// Package config loads the process configuration via viper, following the
// teacher's internal/config/config.go: a single struct decoded from a YAML
// file with ${ENV_VAR} interpolation and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the application's total configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	Vector   VectorConfig   `yaml:"vector" json:"vector"`
	Elastic  ElasticConfig  `yaml:"elastic" json:"elastic"`
	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Models   ModelsConfig   `yaml:"models" json:"models"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Search   SearchDefaults `yaml:"search" json:"search"`
}

// ServerConfig is the HTTP listener configuration.
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	SearchTimeout   time.Duration `yaml:"search_timeout" json:"search_timeout"`
}

// PostgresConfig connects the relational store (spec §3.1 persistent
// entities).
type PostgresConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

// VectorConfig selects and configures the dense-vector KNN backend (spec
// §3.2): "qdrant" or "pgvector".
type VectorConfig struct {
	Driver             string `yaml:"driver" json:"driver"`
	QdrantAddr         string `yaml:"qdrant_addr" json:"qdrant_addr"`
	CollectionBaseName string `yaml:"collection_base_name" json:"collection_base_name"`
}

// ElasticConfig connects the Elasticsearch indexes that supply the event
// tokens for BM25 ranking and the entity name search.
type ElasticConfig struct {
	Addresses   []string `yaml:"addresses" json:"addresses"`
	EntityIndex string   `yaml:"entity_index" json:"entity_index"`
	EventIndex  string   `yaml:"event_index" json:"event_index"`
}

// RedisConfig backs the embedding cache decorator (SPEC_FULL.md §C).
type RedisConfig struct {
	Address  string        `yaml:"address" json:"address"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// ModelsConfig configures the injectable embed()/complete() LLM contracts
// (spec §6.3).
type ModelsConfig struct {
	ChatBaseURL      string `yaml:"chat_base_url" json:"chat_base_url"`
	ChatAPIKey       string `yaml:"chat_api_key" json:"chat_api_key"`
	ChatModel        string `yaml:"chat_model" json:"chat_model"`
	EmbeddingBaseURL string `yaml:"embedding_base_url" json:"embedding_base_url"`
	EmbeddingAPIKey  string `yaml:"embedding_api_key" json:"embedding_api_key"`
	EmbeddingModel   string `yaml:"embedding_model" json:"embedding_model"`
}

// AuthConfig configures the JWT auth middleware guarding the search
// endpoint.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

// SearchDefaults is decoded from config but not read by the search path;
// per-request defaults come from types.NewSearchConfig (spec §6.1).
type SearchDefaults struct {
	DefaultMaxResults int `yaml:"default_max_results" json:"default_max_results"`
}

// Load reads config.yaml from the conventional search paths, interpolates
// ${ENV_VAR} references, applies environment variable overrides, and
// decodes into Config.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/kgsearch/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	raw, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("error reading config file content: %w", err)
	}

	interpolated := interpolateEnv(string(raw))
	if err := viper.ReadConfig(strings.NewReader(interpolated)); err != nil {
		return nil, fmt.Errorf("error re-reading interpolated config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

func interpolateEnv(content string) string {
	return envRef.ReplaceAllStringFunc(content, func(match string) string {
		name := match[2 : len(match)-1]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return match
	})
}
