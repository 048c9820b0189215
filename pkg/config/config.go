package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration. Values resolve in the usual
// order: explicit config file, then TALEWEAVE_* environment variables,
// then defaults.
type Config struct {
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Generation GenerationConfig `mapstructure:"generation"`
	Rerank     RerankConfig     `mapstructure:"rerank"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Context    ContextConfig    `mapstructure:"context"`
	Store      StoreConfig      `mapstructure:"store"`
}

type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type GenerationConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type RerankConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

type RetrievalConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	QueryMethod string `mapstructure:"query_method"`
	Limit       int    `mapstructure:"limit"`
}

type JournalConfig struct {
	// Frequency is the minimum number of turns before an entry is built.
	Frequency int `mapstructure:"frequency"`
	// PacingDelay spaces out entries during bulk rebuilds so provider
	// rate limits survive the burst.
	PacingDelay time.Duration `mapstructure:"pacing_delay"`
}

type ContextConfig struct {
	TokenBudget  int `mapstructure:"token_budget"`
	SafetyMargin int `mapstructure:"safety_margin"`
}

type StoreConfig struct {
	// Backend selects the vector store: local, postgres, or mongo.
	Backend       string `mapstructure:"backend"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// Load reads configuration from path, or from ./taleweave.yaml when
// path is empty. A missing default file is fine; defaults and
// environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TALEWEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("taleweave")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "")
	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.model", "")
	v.SetDefault("rerank.enabled", false)
	v.SetDefault("rerank.model", "rerank-english-v3.0")
	v.SetDefault("retrieval.enabled", true)
	v.SetDefault("retrieval.query_method", "llm-summary")
	v.SetDefault("retrieval.limit", 5)
	v.SetDefault("journal.frequency", 10)
	v.SetDefault("journal.pacing_delay", 5*time.Second)
	v.SetDefault("context.token_budget", 2048)
	v.SetDefault("context.safety_margin", 64)
	v.SetDefault("store.backend", "local")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", "taleweave")
}
