package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Auth    AuthConfig
	TMDB    TMDBConfig
	Model   ModelConfig
	Data    DataConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI           string
	Database      string
	RetryInterval time.Duration
	MaxRetries    int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	AdminKey  string
}

type TMDBConfig struct {
	BearerToken string
	BaseURL     string
	Timeout     time.Duration
}

type ModelConfig struct {
	// Source is a local file path or an http(s) URL pointing at the
	// cf_factors.json artifact.
	Source string
	// SimilarTopK is how many neighbors the similarity index keeps per movie.
	SimilarTopK int
	// SimilarCacheTTL bounds the redis cache for similar-movie responses.
	SimilarCacheTTL time.Duration
}

type DataConfig struct {
	// LinksPath points at the MovieLens links.csv reference mapping.
	LinksPath string
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
	viper.AddConfigPath("/etc/filmly")

	viper.SetEnvPrefix("FILMLY")
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
	viper.SetDefault("server.addr", ":4000")
	viper.SetDefault("server.readTimeout", "15s")
	viper.SetDefault("server.writeTimeout", "30s")

	viper.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	viper.SetDefault("mongo.database", "filmly")
	viper.SetDefault("mongo.retryInterval", "15s")
	viper.SetDefault("mongo.maxRetries", 0)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("tmdb.baseURL", "https://api.themoviedb.org/3")
	viper.SetDefault("tmdb.timeout", "5s")

	viper.SetDefault("model.source", "data/cf_factors.json")
	viper.SetDefault("model.similarTopK", 50)
	viper.SetDefault("model.similarCacheTTL", "1h")

	viper.SetDefault("data.linksPath", "data/links.csv")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("logging.outputPath", "stdout")
}
