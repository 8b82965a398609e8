package config

import (
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string           `mapstructure:"env"`
	LogLevel        string           `mapstructure:"log_level"`
	LogType         string           `mapstructure:"log_type"`
	ServiceName     string           `mapstructure:"service_name"`
	Version         string           `mapstructure:"version"`
	FetcherSettings *FetcherConfig   `mapstructure:"fetcher"`
	KafkaSettings   *KafkaConfig     `mapstructure:"kafka"`
	Resources       []*ResourceEntry `mapstructure:"resources"`
}

type FetcherConfig struct {
	FetchMechanism int           `mapstructure:"fetch_mechanism"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	UserAgent      string        `mapstructure:"user_agent"`
	CacheTtl       time.Duration `mapstructure:"cache_ttl"`
}

type KafkaConfig struct {
	Producer *ProducerConfig `mapstructure:"producer"`
}

type ProducerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	WriteTopicName string        `mapstructure:"write_topic_name"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BatchSize      int           `mapstructure:"batch_size"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequiredAsks   int           `mapstructure:"required_acks"`
	Async          bool          `mapstructure:"async"`
}

// ResourceEntry is one watched resource as written in the config file.
// Exactly one of Url/Path identifies the resource. The entry is raw input;
// validation and query compilation happen in model.BuildJobs.
type ResourceEntry struct {
	Name         string             `mapstructure:"name"`
	Url          string             `mapstructure:"url"`
	Path         string             `mapstructure:"path"`
	Period       time.Duration      `mapstructure:"period"`
	Targets      []*TargetEntry     `mapstructure:"targets"`
	Continuation *ContinuationEntry `mapstructure:"continuation"`
}

// TargetEntry is one named extraction. Exactly one of Query/Each is set;
// Then is only valid together with Query. Order in the file is the order
// fields are evaluated and reported in.
type TargetEntry struct {
	Name  string         `mapstructure:"name"`
	Query string         `mapstructure:"query"`
	Then  []*TargetEntry `mapstructure:"then"`
	Each  []*TargetEntry `mapstructure:"each"`
}

type ContinuationEntry struct {
	Ref string `mapstructure:"ref"`
}

func MustLoad() *Config {
	viper.AddConfigPath(path.Join("."))
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		slog.Error("can't initialize config file.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("error unmarshalling viper config.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	return &cfg
}
