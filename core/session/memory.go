package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const (
	defaultShardCount    = 16
	defaultSweepInterval = 5 * time.Minute
)

// MemoryStore is the reference in-process Store implementation. The
// keyspace is partitioned across a fixed power-of-two number of shards,
// each with its own lock and map, so operations on distinct IDs proceed in
// parallel while operations on the same ID serialize on one shard lock.
//
// Expiry is lazy on read; a background sweep reclaims expired entries to
// bound memory growth from abandoned sessions. Records are copied on the
// way in and out, so callers never share map state with the store.
type MemoryStore struct {
	shards    []*memShard
	shardMask uint32

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

type memShard struct {
	mu      sync.RWMutex
	records map[ID]*Record
}

// MemoryOption configures the memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	shardCount    int
	sweepInterval time.Duration
}

// WithShardCount sets the number of shards. Values are rounded up to the
// next power of two.
func WithShardCount(n int) MemoryOption {
	return func(o *memoryOptions) {
		if n > 0 {
			o.shardCount = n
		}
	}
}

// WithSweepInterval sets how often the background sweep reclaims expired
// records. Zero disables the sweep; expiry then relies on lazy reads and
// explicit DeleteExpired calls.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.sweepInterval = interval
	}
}

// NewMemoryStore creates a memory store and starts its sweep goroutine.
// Call Close to stop the sweep at teardown.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	options := memoryOptions{
		shardCount:    defaultShardCount,
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(&options)
	}

	count := nextPowerOfTwo(options.shardCount)
	shards := make([]*memShard, count)
	for i := range shards {
		shards[i] = &memShard{records: make(map[ID]*Record)}
	}

	store := &MemoryStore{
		shards:    shards,
		shardMask: uint32(count - 1),
		done:      make(chan struct{}),
	}

	if options.sweepInterval > 0 {
		store.ticker = time.NewTicker(options.sweepInterval)
		go store.sweepLoop()
	}

	return store
}

func (m *MemoryStore) shardFor(id ID) *memShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return m.shards[h.Sum32()&m.shardMask]
}

// Create persists a new record. A live record under the same ID yields
// ErrDuplicateID; an expired resident entry is treated as absent and
// overwritten.
func (m *MemoryStore) Create(ctx context.Context, rec *Record) error {
	shard := m.shardFor(rec.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if existing, ok := shard.records[rec.ID]; ok && !existing.IsExpired() {
		return ErrDuplicateID
	}
	shard.records[rec.ID] = rec.Clone()
	return nil
}

// Save upserts a record unconditionally.
func (m *MemoryStore) Save(ctx context.Context, rec *Record) error {
	shard := m.shardFor(rec.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.records[rec.ID] = rec.Clone()
	return nil
}

// Load returns a copy of the record, or (nil, nil) when it is missing or
// expired. Expired entries are left in place for the sweep; removing them
// here would need a write lock on the read path.
func (m *MemoryStore) Load(ctx context.Context, id ID) (*Record, error) {
	shard := m.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	rec, ok := shard.records[id]
	if !ok || rec.IsExpired() {
		return nil, nil
	}
	return rec.Clone(), nil
}

// Delete removes the record for id. Absent IDs are a no-op.
func (m *MemoryStore) Delete(ctx context.Context, id ID) error {
	shard := m.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.records, id)
	return nil
}

// DeleteExpired reclaims expired records, locking one shard at a time so a
// sweep never blocks operations on unrelated shards.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	for _, shard := range m.shards {
		if err := ctx.Err(); err != nil {
			return err
		}

		shard.mu.Lock()
		now := time.Now()
		for id, rec := range shard.records {
			if now.After(rec.ExpiresAt) {
				delete(shard.records, id)
			}
		}
		shard.mu.Unlock()
	}
	return nil
}

// Len returns the number of resident records, including expired entries
// the sweep has not reclaimed yet.
func (m *MemoryStore) Len() int {
	total := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		total += len(shard.records)
		shard.mu.RUnlock()
	}
	return total
}

// Close stops the sweep goroutine. The store remains usable afterwards;
// only background reclamation stops.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) sweepLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
