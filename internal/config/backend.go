package config

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/flowcharts/pkg/adapters/file"
	"github.com/aretw0/flowcharts/pkg/adapters/memory"
	redisstore "github.com/aretw0/flowcharts/pkg/adapters/redis"
	sqlstore "github.com/aretw0/flowcharts/pkg/adapters/sql"
	"github.com/aretw0/flowcharts/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// lockPrefix namespaces lock keys away from flowchart keys.
const lockPrefix = "flowcharts:"

// Backend is an opened store plus the optional distributed locker.
type Backend struct {
	Store  ports.FlowchartStore
	Locker ports.DistributedLocker

	closers []io.Closer
}

// Close releases every connection opened by OpenStore.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenStore builds the store selected by cfg.Store.Backend and, when
// cfg.Lock.Enabled, a Redis locker. Network backends are pinged so a bad
// address fails at startup.
func OpenStore(ctx context.Context, cfg *Config) (*Backend, error) {
	b := &Backend{}
	var client *backend.Client

	redisClient := func() (*backend.Client, error) {
		if client != nil {
			return client, nil
		}
		rc := cfg.Store.Redis
		c := backend.NewClient(&backend.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		b.closers = append(b.closers, c)
		if err := c.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", rc.Addr, err)
		}
		client = c
		return c, nil
	}

	switch cfg.Store.Backend {
	case BackendMemory, "":
		b.Store = memory.NewStore()
	case BackendRedis:
		c, err := redisClient()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		opts := []redisstore.Option{redisstore.WithTTL(cfg.Store.Redis.TTL)}
		if cfg.Store.Redis.Prefix != "" {
			opts = append(opts, redisstore.WithPrefix(cfg.Store.Redis.Prefix))
		}
		b.Store = redisstore.NewFromClient(c, opts...)
	case BackendSQL:
		s, err := sqlstore.Open(cfg.Store.SQL.Driver, cfg.Store.SQL.DSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s)
		b.Store = s
	case BackendFile:
		b.Store = file.New(cfg.Store.File.Dir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Lock.Enabled {
		c, err := redisClient()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Locker = redisstore.NewLocker(c, lockPrefix)
	}

	return b, nil
}
