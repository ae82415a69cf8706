package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Redis       RedisConfig
	ObjectStore ObjectStoreConfig
	Buckets     BucketsConfig
	Ticker      TickerConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// StorageConfig selects the backing for the per-user dataset records.
// Driver is "sqlite" or "redis".
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type ObjectStoreConfig struct {
	Root string
}

// BucketsConfig names the cold-storage bucket per dataset kind. The
// defaults are the buckets the ingestion pipeline writes into.
type BucketsConfig struct {
	Finance string
	News    string
	Sport   string
}

type TickerConfig struct {
	Enabled    bool
	BaseURL    string
	TimeoutSec int
}

type RateLimitConfig struct {
	Enabled              bool
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/omega-retrieval")

	viper.SetEnvPrefix("OMEGA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5001)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.sqlitePath", "./data/retrieval.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("objectstore.root", "./data/objects")

	viper.SetDefault("buckets.finance", "seng3011-omega-25t1-testing-bucket")
	viper.SetDefault("buckets.news", "seng3011-omega-news-data")
	viper.SetDefault("buckets.sport", "seng3011-omega-sports-data")

	viper.SetDefault("ticker.enabled", true)
	viper.SetDefault("ticker.baseURL", "https://query2.finance.yahoo.com")
	viper.SetDefault("ticker.timeoutSec", 10)

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.maxRequestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
