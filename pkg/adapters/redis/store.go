package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "flowcharts:flowchart:"
	// farFuture is the index score used for keys without expiration (2100-01-01).
	farFuture  = 4102444800
	maxRetries = 5
)

// Store implements ports.FlowchartStore using Redis.
// Each flowchart is a JSON string key; a sorted set indexes the live IDs.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for flowcharts.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for flowcharts.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying redis client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) score() float64 {
	if s.ttl == 0 {
		return farFuture
	}
	return float64(time.Now().Add(s.ttl).Unix())
}

func (s *Store) encode(fc *domain.Flowchart) ([]byte, error) {
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flowchart: %w", err)
	}
	return data, nil
}

// Create validates the flowchart and stores it under a fresh UUID.
func (s *Store) Create(ctx context.Context, fc *domain.Flowchart) (string, error) {
	if err := fc.Validate(); err != nil {
		return "", err
	}

	stored := fc.Clone()
	stored.Normalize()

	for attempt := 0; attempt < maxRetries; attempt++ {
		stored.ID = uuid.NewString()
		data, err := s.encode(stored)
		if err != nil {
			return "", err
		}

		key := s.key(stored.ID)
		taken := false
		// The value and its index entry are written in one MULTI/EXEC,
		// guarded by WATCH against handing out an ID that is already taken.
		err = s.client.Watch(ctx, func(tx *backend.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return fmt.Errorf("failed to check flowchart existence: %w", err)
			}
			if n > 0 {
				taken = true
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
				pipe.Set(ctx, key, data, s.ttl)
				pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: s.score(), Member: stored.ID})
				return nil
			})
			return err
		}, key)
		if taken || errors.Is(err, backend.TxFailedErr) {
			continue
		}
		if err != nil {
			// EXEC does not roll back, so drop a value whose index entry failed.
			_ = s.client.Del(context.WithoutCancel(ctx), key).Err()
			return "", fmt.Errorf("failed to save to redis: %w", err)
		}
		return stored.ID, nil
	}

	return "", fmt.Errorf("failed to allocate a unique flowchart id after %d attempts", maxRetries)
}

// Get retrieves the flowchart from Redis.
func (s *Store) Get(ctx context.Context, id string) (*domain.Flowchart, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrFlowchartNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var fc domain.Flowchart
	if err := json.Unmarshal(val, &fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flowchart: %w", err)
	}
	fc.Normalize()
	return &fc, nil
}

// Update replaces the flowchart inside a WATCH transaction so that concurrent
// writers to the same key cannot interleave with the existence check.
func (s *Store) Update(ctx context.Context, id string, fc *domain.Flowchart) (*domain.Flowchart, error) {
	if fc == nil {
		return nil, domain.ErrNilFlowchart
	}
	key := s.key(id)

	stored := fc.Clone()
	stored.Normalize()
	stored.ID = id

	txf := func(tx *backend.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to check flowchart existence: %w", err)
		}
		if n == 0 {
			return domain.ErrFlowchartNotFound
		}

		// Validate before queuing any write.
		if err := stored.Validate(); err != nil {
			return err
		}

		data, err := s.encode(stored)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: s.score(), Member: id})
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, backend.TxFailedErr) {
			// Optimistic lock lost, retry.
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrFlowchartNotFound) || errors.Is(err, domain.ErrInvalidFlowchart) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to update flowchart: %w", err)
		}
		return stored, nil
	}

	return nil, fmt.Errorf("failed to update flowchart %s: too much contention", id)
}

// Delete removes the flowchart and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	var del *backend.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrFlowchartNotFound
	}
	return nil
}

// List returns the live flowchart IDs.
// Expired entries are pruned lazily from the index.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// ZREMRANGEBYSCORE key -inf (now)
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired flowcharts: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flowcharts: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
