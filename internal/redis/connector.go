// Package redis connects the redis cache store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/steamjump/internal/config"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// ConnectOptions configures the client and the startup retry loop.
type ConnectOptions struct {
	Addr         string
	User         string
	Password     string
	RedisDB      int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // bound on the whole retry loop
	RetryInterval  time.Duration // first wait, doubled after each failed ping
	MaxWait        time.Duration // cap on the wait between pings
	PingTimeout    time.Duration // bound on a single ping
	WarnThreshold  int           // failed pings logged at warn before switching to error
}

// OptionsFromConfig maps the STEAMJUMP_REDIS_* settings.
func OptionsFromConfig(cfg *config.Config) ConnectOptions {
	return ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}

// validate reports every invalid option at once.
func (o ConnectOptions) validate() error {
	var err error
	if o.Addr == "" {
		err = multierr.Append(err, errors.New("Addr must be set"))
	}
	positive := []struct {
		name string
		val  time.Duration
	}{
		{"ConnectTimeout", o.ConnectTimeout},
		{"RetryInterval", o.RetryInterval},
		{"MaxWait", o.MaxWait},
		{"PingTimeout", o.PingTimeout},
	}
	for _, p := range positive {
		if p.val <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be > 0, got %v", p.name, p.val))
		}
	}
	if o.WarnThreshold < 0 {
		err = multierr.Append(err, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return err
}

// New returns a client once a ping succeeds. Pings are retried with a
// capped exponential backoff until ConnectTimeout or ctx ends.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := waitForPing(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func waitForPing(parent context.Context, client *redis.Client, opts ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, opts.ConnectTimeout)
	defer cancel()

	log = log.With(logger.String("addr", opts.Addr))
	log.Info("connecting to redis cache store", logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			log.Info("connected to redis",
				logger.Int("attempts", attempt),
				logger.Duration("elapsed", time.Since(start)))
			return nil
		}

		fields := []logger.Field{
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err),
		}
		if attempt <= opts.WarnThreshold {
			log.Warn("redis ping failed, retrying", fields...)
		} else {
			log.Error("redis still unavailable, retrying", fields...)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				opts.Addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
		}

		wait = min(wait*2, opts.MaxWait)
	}
}
