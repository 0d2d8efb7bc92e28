package infra

import (
	"context"
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// ProvideRedisClient returns nil when REDIS_HOST is not set. Redis is
// only used to tune settings at run time, the queue works without it.
func ProvideRedisClient(loggerFactory *LoggerFactory) (*redis.Client, error) {
	logger := loggerFactory.Create("RedisClient").Sugar()

	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		logger.Infof("REDIS_HOST not set, running without redis")
		return nil, nil
	}

	redisDb := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			logger.Errorf("invalid redis db %v", err)
			return nil, err
		}
		redisDb = db
	}

	return redis.NewClient(&redis.Options{
		Addr: redisHost,
		DB:   redisDb,
		OnConnect: func(ctx context.Context, cn *redis.Conn) error {
			logger.Infof("redis connected to host[%v] db[%v]", redisHost, redisDb)
			return nil
		},
	}), nil
}
