package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sidecar   SidecarConfig   `yaml:"sidecar"`
	Redis     RedisConfig     `yaml:"redis"`
	Faiss     FaissConfig     `yaml:"faiss"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type SidecarConfig struct {
	GrpcAddress string `yaml:"grpcAddress"`
}

type RedisConfig struct {
	ConnectionString       string `yaml:"connectionString"`
	KeyPrefix              string `yaml:"keyPrefix"`
	DefaultCacheTtlSeconds int    `yaml:"defaultCacheTtlSeconds"`
}

type FaissConfig struct {
	DefaultTopK     int    `yaml:"defaultTopK"`
	DefaultNprobe   int    `yaml:"defaultNprobe"`
	DefaultShardKey string `yaml:"defaultShardKey"`
}

type EmbeddingConfig struct {
	ModelName      string `yaml:"modelName"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type IndexConfig struct {
	TimeoutSeconds int `yaml:"timeoutSeconds"`
}

type RateLimitConfig struct {
	PermitLimit   int `yaml:"permitLimit"`
	WindowSeconds int `yaml:"windowSeconds"`
	QueueLimit    int `yaml:"queueLimit"`
}

// Default returns the built-in configuration used when no file is given.
// Values mirror the sidecar defaults (top_k=10, nprobe=10, shard
// nyc_taxi_2023, model all-MiniLM-L6-v2).
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", Env: "development"},
		Sidecar: SidecarConfig{GrpcAddress: "localhost:50051"},
		Redis: RedisConfig{
			ConnectionString:       "localhost:6379",
			KeyPrefix:              "vc:",
			DefaultCacheTtlSeconds: 300,
		},
		Faiss: FaissConfig{
			DefaultTopK:     10,
			DefaultNprobe:   10,
			DefaultShardKey: "nyc_taxi_2023",
		},
		Embedding: EmbeddingConfig{
			ModelName:      "all-MiniLM-L6-v2",
			TimeoutSeconds: 10,
		},
		Index:     IndexConfig{TimeoutSeconds: 5},
		RateLimit: RateLimitConfig{PermitLimit: 100, WindowSeconds: 10, QueueLimit: 50},
	}
}

// LoadConfig reads a YAML config file, overlaying it on Default().
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// FromEnv returns Default() with environment overrides applied. Used when
// no config file path is supplied (Cloud Run style deployments).
func FromEnv() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SIDECAR_GRPC_ADDRESS"); v != "" {
		c.Sidecar.GrpcAddress = v
	}
	if v := os.Getenv("REDIS_CONNECTION_STRING"); v != "" {
		c.Redis.ConnectionString = v
	}
	if v := os.Getenv("REDIS_KEY_PREFIX"); v != "" {
		c.Redis.KeyPrefix = v
	}
	if v, ok := envInt("REDIS_DEFAULT_CACHE_TTL_SECONDS"); ok {
		c.Redis.DefaultCacheTtlSeconds = v
	}
	if v := os.Getenv("FAISS_DEFAULT_SHARD_KEY"); v != "" {
		c.Faiss.DefaultShardKey = v
	}
	if v, ok := envInt("FAISS_DEFAULT_TOP_K"); ok {
		c.Faiss.DefaultTopK = v
	}
	if v, ok := envInt("FAISS_DEFAULT_NPROBE"); ok {
		c.Faiss.DefaultNprobe = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.ModelName = v
	}
	if v, ok := envInt("RATE_LIMIT_PERMIT_LIMIT"); ok {
		c.RateLimit.PermitLimit = v
	}
	if v, ok := envInt("RATE_LIMIT_WINDOW_SECONDS"); ok {
		c.RateLimit.WindowSeconds = v
	}
	if v, ok := envInt("RATE_LIMIT_QUEUE_LIMIT"); ok {
		c.RateLimit.QueueLimit = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
