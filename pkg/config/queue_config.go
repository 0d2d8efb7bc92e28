package config

import (
	"context"
	"fmt"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// QueueSettings redis key.
	settingsRedisKey = "settings"
)

// QueueSettings are the tunables an operator may change while the
// queue is running. They are seeded from flags and, when a redis
// client is configured, reloaded from the "settings" hash.
type QueueSettings struct {
	perCustomerMinutes int
	lock               sync.RWMutex

	refreshInterval time.Duration

	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// Shape of the settings hash in redis. Zero values are ignored.
type redisSettings struct {
	PerCustomerMinutes int `redis:"perCustomerMinutes"`
}

func ProvideQueueSettings(config *Config, redisClient *redis.Client, loggerFactory *infra.LoggerFactory) *QueueSettings {
	return &QueueSettings{
		perCustomerMinutes: *config.PerCustomerMinutes,
		refreshInterval:    time.Duration(*config.SettingsRefreshSeconds) * time.Second,
		redisClient:        redisClient,
		logger:             loggerFactory.Create("QueueSettings").Sugar(),
	}
}

func (s *QueueSettings) PerCustomerMinutes() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.perCustomerMinutes
}

func (s *QueueSettings) SetPerCustomerMinutes(minutes int) {
	if minutes < 0 {
		minutes = 0
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.perCustomerMinutes = minutes
}

// Run reloads settings from redis until ctx is done. Returns right away
// when no redis client is configured.
func (s *QueueSettings) Run(ctx context.Context) error {
	if s.redisClient == nil {
		s.logger.Infof("no redis configured, keep perCustomerMinutes[%v]", s.PerCustomerMinutes())
		return nil
	}

	if s.refreshInterval <= 0 {
		return fmt.Errorf("invalid settings refreshInterval[%v]", s.refreshInterval)
	}

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		s.refresh(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *QueueSettings) refresh(ctx context.Context) {
	loaded := &redisSettings{}
	if err := s.redisClient.HGetAll(ctx, settingsRedisKey).Scan(loaded); err != nil {
		s.logger.Errorf("err reading settings from redis %v", err)
		return
	}

	if loaded.PerCustomerMinutes <= 0 || loaded.PerCustomerMinutes == s.PerCustomerMinutes() {
		s.logger.Debugf("skip update since settings not change loaded[%+v]", loaded)
		return
	}

	s.SetPerCustomerMinutes(loaded.PerCustomerMinutes)
	s.logger.Infof("updated perCustomerMinutes[%v]", loaded.PerCustomerMinutes)
}
