package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration shared by the ingest, chat and model server binaries.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	ModelServer ModelServerConfig `yaml:"modelServer"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Chat        ChatConfig        `yaml:"chat"`
}

// HTTPConfig controls model server behavior.
type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AuthSecret      string        `yaml:"authSecret"`
}

// PostgresConfig contains connection and pooling settings for the faqs table.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
	// Distance is one of l2, cosine or inner_product.
	Distance string `yaml:"distance"`
}

// ModelServerConfig tells the clients where the model server lives.
type ModelServerConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	AuthSecret string        `yaml:"authSecret"`
	TokenTTL   time.Duration `yaml:"tokenTtl"`
}

// EmbeddingConfig selects the embedding backend hosted by the model server.
type EmbeddingConfig struct {
	Backend   string      `yaml:"backend"`
	Model     string      `yaml:"model"`
	Dimension int         `yaml:"dimension"`
	BaseURL   string      `yaml:"baseUrl"`
	APIKey    string      `yaml:"apiKey"`
	Cache     CacheConfig `yaml:"cache"`
}

// CacheConfig controls the embedding memoisation layers.
type CacheConfig struct {
	Size   int           `yaml:"size"`
	TTL    time.Duration `yaml:"ttl"`
	Valkey ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared cache.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LLMConfig selects the generation backend.
type LLMConfig struct {
	Backend     string   `yaml:"backend"`
	ModelPath   string   `yaml:"modelPath"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"baseUrl"`
	APIKey      string   `yaml:"apiKey"`
	MaxTokens   int      `yaml:"maxTokens"`
	Temperature float32  `yaml:"temperature"`
	Stop        []string `yaml:"stop"`
}

// IngestConfig drives the CSV ingestion run.
type IngestConfig struct {
	CSVPath        string        `yaml:"csvPath"`
	BatchSize      int           `yaml:"batchSize"`
	IDPrefix       string        `yaml:"idPrefix"`
	QuestionColumn string        `yaml:"questionColumn"`
	AnswerColumn   string        `yaml:"answerColumn"`
	TypeColumn     string        `yaml:"typeColumn"`
	Storage        StorageConfig `yaml:"storage"`
}

// StorageConfig points at an S3-compatible bucket for s3:// CSV paths.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
}

// ChatConfig controls the REPL.
type ChatConfig struct {
	TopK int `yaml:"topK"`
	// Prompt overrides the built-in instruction template when set.
	Prompt       string   `yaml:"prompt"`
	ExitKeywords []string `yaml:"exitKeywords"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = parsed
		}
	}
	if v := os.Getenv("MODEL_SERVER_AUTH_SECRET"); v != "" {
		cfg.HTTP.AuthSecret = v
		cfg.ModelServer.AuthSecret = v
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("PG_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PG_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = parsed
		}
	}
	if v := os.Getenv("PG_DB"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PG_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v, ok := os.LookupEnv("PG_PASS"); ok {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PG_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("PG_DISTANCE"); v != "" {
		cfg.Postgres.Distance = strings.ToLower(v)
	}
	if v := os.Getenv("MODEL_SERVER_URL"); v != "" {
		cfg.ModelServer.URL = v
	}
	if v := os.Getenv("MODEL_SERVER_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.ModelServer.Timeout = parsed
		}
	}
	if v := os.Getenv("EMBED_BACKEND"); v != "" {
		cfg.Embedding.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("EMBED_DIMENSION"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimension = parsed
		}
	}
	if v := os.Getenv("EMBED_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("EMBED_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBED_CACHE_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Cache.Size = parsed
		}
	}
	if v := os.Getenv("EMBED_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Embedding.Cache.TTL = parsed
		}
	}
	if v := os.Getenv("EMBED_VALKEY_ENABLED"); v != "" {
		cfg.Embedding.Cache.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("EMBED_VALKEY_ADDR"); v != "" {
		cfg.Embedding.Cache.Valkey.Addr = v
	}
	if v, ok := os.LookupEnv("LLM_BACKEND"); ok {
		cfg.LLM.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LLM_MODEL_PATH"); v != "" {
		cfg.LLM.ModelPath = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = parsed
		}
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("FAQ_CSV_PATH"); v != "" {
		cfg.Ingest.CSVPath = v
	}
	if v := os.Getenv("INGEST_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.BatchSize = parsed
		}
	}
	if v := os.Getenv("INGEST_STORAGE_ENDPOINT"); v != "" {
		cfg.Ingest.Storage.Endpoint = v
	}
	if v := os.Getenv("INGEST_STORAGE_ACCESS_KEY"); v != "" {
		cfg.Ingest.Storage.AccessKey = v
	}
	if v := os.Getenv("INGEST_STORAGE_SECRET_KEY"); v != "" {
		cfg.Ingest.Storage.SecretKey = v
	}
	if v := os.Getenv("INGEST_STORAGE_REGION"); v != "" {
		cfg.Ingest.Storage.Region = v
	}
	if v := os.Getenv("CHAT_TOP_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.TopK = parsed
		}
	}
	if v := os.Getenv("CHAT_PROMPT"); v != "" {
		cfg.Chat.Prompt = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         "127.0.0.1:8001",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "shopbot",
			User:     "postgres",
			MaxConns: 4,
			Distance: "l2",
		},
		ModelServer: ModelServerConfig{
			URL:      "http://127.0.0.1:8001",
			Timeout:  5 * time.Minute,
			TokenTTL: 5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Backend:   "ollama",
			Model:     "all-minilm",
			Dimension: 384,
			Cache: CacheConfig{
				Size: 1024,
				TTL:  time.Hour,
			},
		},
		LLM: LLMConfig{
			Backend:     "llama_cpp",
			ModelPath:   "./models/llama-2-7b-chat.Q4_K_M.gguf",
			MaxTokens:   128,
			Temperature: 0.2,
			Stop:        []string{"User:", "You:"},
		},
		Ingest: IngestConfig{
			CSVPath:        "dataset/Chatbot_Dataset.csv",
			BatchSize:      100,
			IDPrefix:       "faq-",
			QuestionColumn: "Question/Trigger",
			AnswerColumn:   "Answer/Response",
			TypeColumn:     "Type",
		},
		Chat: ChatConfig{
			TopK:         3,
			ExitKeywords: []string{"quit", "exit"},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("http.shutdownTimeout must be positive")
	}
	if strings.TrimSpace(c.Postgres.DSN) == "" && strings.TrimSpace(c.Postgres.Host) == "" {
		return errors.New("postgres.host cannot be empty when postgres.dsn is not set")
	}
	switch c.Postgres.Distance {
	case "l2", "cosine", "inner_product":
	default:
		return fmt.Errorf("postgres.distance %q is not one of l2, cosine, inner_product", c.Postgres.Distance)
	}
	if strings.TrimSpace(c.ModelServer.URL) == "" {
		return errors.New("modelServer.url cannot be empty")
	}
	if strings.TrimSpace(c.Embedding.Model) == "" {
		return errors.New("embedding.model cannot be empty")
	}
	if c.Embedding.Dimension <= 0 {
		return errors.New("embedding.dimension must be positive")
	}
	if c.Embedding.Cache.Size < 0 {
		return errors.New("embedding.cache.size cannot be negative")
	}
	if c.Embedding.Cache.Valkey.Enabled && strings.TrimSpace(c.Embedding.Cache.Valkey.Addr) == "" {
		return errors.New("embedding.cache.valkey.addr cannot be empty when valkey cache is enabled")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("llm.maxTokens must be positive")
	}
	if c.LLM.Temperature < 0 {
		return errors.New("llm.temperature must be non-negative")
	}
	if c.Ingest.BatchSize <= 0 {
		return errors.New("ingest.batchSize must be positive")
	}
	if strings.TrimSpace(c.Ingest.QuestionColumn) == "" || strings.TrimSpace(c.Ingest.AnswerColumn) == "" {
		return errors.New("ingest question and answer columns cannot be empty")
	}
	if c.Chat.TopK <= 0 {
		return errors.New("chat.topK must be positive")
	}
	if len(c.Chat.ExitKeywords) == 0 {
		return errors.New("chat.exitKeywords cannot be empty")
	}
	return nil
}
