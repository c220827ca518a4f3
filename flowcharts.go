package flowcharts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flowcharts/internal/logging"
	"github.com/aretw0/flowcharts/pkg/adapters/memory"
	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/aretw0/flowcharts/pkg/observability"
	"github.com/aretw0/flowcharts/pkg/ports"
	"github.com/aretw0/flowcharts/pkg/traversal"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Operation names reported to the logger and the Recorder.
const (
	OpCreate         = "create"
	OpGet            = "get"
	OpReplace        = "replace"
	OpDelete         = "delete"
	OpList           = "list"
	OpOutgoingEdges  = "outgoing_edges"
	OpConnectedNodes = "connected_nodes"
)

// Manager orchestrates flowchart access, ensuring safe concurrent operations.
// Operations on the same flowchart ID never interleave; operations on
// different IDs run in parallel.
type Manager struct {
	store ports.FlowchartStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active per-flowchart locks

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	logger   *slog.Logger
	recorder observability.Recorder
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore sets the persistence backend (default: in-memory).
func WithStore(store ports.FlowchartStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRecorder registers an observer for every operation (e.g. Prometheus metrics).
func WithRecorder(r observability.Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// New creates a Manager. Without WithStore it keeps flowcharts in memory.
func New(opts ...Option) *Manager {
	m := &Manager{
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
		recorder: observability.NopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = memory.NewStore()
	}
	return m
}

// Store returns the underlying flowchart store.
func (m *Manager) Store() ports.FlowchartStore {
	return m.store
}

// Create validates and stores a new flowchart, returning its ID.
func (m *Manager) Create(ctx context.Context, nodes []domain.Node, edges []domain.Edge) (id string, err error) {
	defer m.observe(OpCreate, time.Now(), &err, func() []any { return []any{"flowchart_id", id} })

	// A fresh ID has no contenders, so no per-ID lock is taken.
	return m.store.Create(ctx, domain.New(nodes, edges))
}

// Get returns the flowchart stored under id.
func (m *Manager) Get(ctx context.Context, id string) (fc *domain.Flowchart, err error) {
	defer m.observe(OpGet, time.Now(), &err, func() []any { return []any{"flowchart_id", id} })

	err = m.withLock(ctx, id, func(ctx context.Context) error {
		fc, err = m.store.Get(ctx, id)
		return err
	})
	return fc, err
}

// Replace swaps the nodes and edges of an existing flowchart, keeping its ID.
// An invalid replacement leaves the stored flowchart unchanged.
func (m *Manager) Replace(ctx context.Context, id string, nodes []domain.Node, edges []domain.Edge) (fc *domain.Flowchart, err error) {
	defer m.observe(OpReplace, time.Now(), &err, func() []any { return []any{"flowchart_id", id} })

	err = m.withLock(ctx, id, func(ctx context.Context) error {
		fc, err = m.store.Update(ctx, id, domain.New(nodes, edges))
		return err
	})
	return fc, err
}

// Delete removes the flowchart stored under id.
func (m *Manager) Delete(ctx context.Context, id string) (err error) {
	defer m.observe(OpDelete, time.Now(), &err, func() []any { return []any{"flowchart_id", id} })

	return m.withLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List returns the IDs of all stored flowcharts.
func (m *Manager) List(ctx context.Context) (ids []string, err error) {
	defer m.observe(OpList, time.Now(), &err, func() []any { return []any{"count", len(ids)} })

	return m.store.List(ctx)
}

// OutgoingEdges returns the edges leaving nodeID in the flowchart stored under id.
func (m *Manager) OutgoingEdges(ctx context.Context, id, nodeID string) (edges []domain.Edge, err error) {
	defer m.observe(OpOutgoingEdges, time.Now(), &err, func() []any {
		return []any{"flowchart_id", id, "node_id", nodeID, "count", len(edges)}
	})

	fc, err := m.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return traversal.OutgoingEdges(fc, nodeID), nil
}

// ConnectedNodes returns the IDs of the nodes connected to nodeID, treating edges as undirected.
func (m *Manager) ConnectedNodes(ctx context.Context, id, nodeID string) (nodes []string, err error) {
	defer m.observe(OpConnectedNodes, time.Now(), &err, func() []any {
		return []any{"flowchart_id", id, "node_id", nodeID, "count", len(nodes)}
	})

	fc, err := m.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return traversal.ConnectedComponent(fc, nodeID), nil
}

// snapshot reads a private copy of the flowchart under its lock, so a query
// never sees a half-applied replace.
func (m *Manager) snapshot(ctx context.Context, id string) (*domain.Flowchart, error) {
	var fc *domain.Flowchart
	err := m.withLock(ctx, id, func(ctx context.Context) error {
		var err error
		fc, err = m.store.Get(ctx, id)
		return err
	})
	return fc, err
}

func (m *Manager) observe(op string, start time.Time, errp *error, attrs func() []any) {
	elapsed := time.Since(start)
	err := *errp
	outcome := observability.Outcome(err)
	m.recorder.Observe(op, outcome, elapsed)

	args := append([]any{"op", op, "outcome", outcome, "duration", elapsed}, attrs()...)
	switch outcome {
	case observability.OutcomeOK:
		m.logger.Debug("flowchart operation", args...)
	case observability.OutcomeInvalid:
		m.logger.Info("flowchart rejected", append(args, "violations", domain.ValidationDetails(err))...)
	case observability.OutcomeNotFound:
		m.logger.Info("flowchart not found", args...)
	default:
		m.logger.Error("flowchart operation failed", append(args, "error", err)...)
	}
}
