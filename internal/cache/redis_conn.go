package cache

import (
	"filmly/internal/config"
	"filmly/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	logger.Info("connecting to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client
}
