package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/leadforgehq/intake-platform/internal/intake"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// Key version bumps invalidate old persisted shapes without migration.
const (
	draftKeyPrefix    = "intake:draft:v2:"
	snapshotKeyPrefix = "intake:lastsub:v2:"
)

// RedisDraftStore persists drafts in Redis, scoped per session subject.
// Persistence is advisory: writes and deletes swallow errors, reads treat
// every failure as an absent record. Records carry no TTL; concurrent
// writers are last-write-wins.
type RedisDraftStore struct {
	rdb    *redis.Client
	scope  string
	logger *logging.Logger
}

// NewRedisDraftStore creates a draft store for one session scope.
func NewRedisDraftStore(rdb *redis.Client, scope string, logger *logging.Logger) *RedisDraftStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisDraftStore{rdb: rdb, scope: scope, logger: logger}
}

func (s *RedisDraftStore) key() string {
	return draftKeyPrefix + s.scope
}

// Save writes the draft, best-effort.
func (s *RedisDraftStore) Save(ctx context.Context, d *intake.Draft) {
	data, err := json.Marshal(d)
	if err != nil {
		s.logger.Debug("draft marshal failed", "error", err)
		return
	}
	if err := s.rdb.Set(ctx, s.key(), data, 0).Err(); err != nil {
		s.logger.Debug("draft write failed", "error", err)
	}
}

// Load returns the parsed draft or nil on any error.
func (s *RedisDraftStore) Load(ctx context.Context) *intake.Draft {
	data, err := s.rdb.Get(ctx, s.key()).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("draft read failed", "error", err)
		}
		return nil
	}
	return ParseDraft(data)
}

// Clear deletes the draft, best-effort.
func (s *RedisDraftStore) Clear(ctx context.Context) {
	if err := s.rdb.Del(ctx, s.key()).Err(); err != nil {
		s.logger.Debug("draft delete failed", "error", err)
	}
}

// RedisSnapshotStore persists the last successful submission under its own
// key with stricter read-back validation than drafts.
type RedisSnapshotStore struct {
	rdb    *redis.Client
	scope  string
	logger *logging.Logger
}

// NewRedisSnapshotStore creates a snapshot store for one session scope.
func NewRedisSnapshotStore(rdb *redis.Client, scope string, logger *logging.Logger) *RedisSnapshotStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisSnapshotStore{rdb: rdb, scope: scope, logger: logger}
}

func (s *RedisSnapshotStore) key() string {
	return snapshotKeyPrefix + s.scope
}

// Save writes the snapshot, best-effort.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap *intake.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Debug("snapshot marshal failed", "error", err)
		return
	}
	if err := s.rdb.Set(ctx, s.key(), data, 0).Err(); err != nil {
		s.logger.Debug("snapshot write failed", "error", err)
	}
}

// Load returns the parsed snapshot or nil on any error or shape mismatch.
func (s *RedisSnapshotStore) Load(ctx context.Context) *intake.Snapshot {
	data, err := s.rdb.Get(ctx, s.key()).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("snapshot read failed", "error", err)
		}
		return nil
	}
	return ParseSnapshot(data)
}

// Clear deletes the snapshot, best-effort.
func (s *RedisSnapshotStore) Clear(ctx context.Context) {
	if err := s.rdb.Del(ctx, s.key()).Err(); err != nil {
		s.logger.Debug("snapshot delete failed", "error", err)
	}
}

// MemoryStore is the in-process fallback used when Redis is not configured,
// and in tests. It applies the same parse-or-null read path as the Redis
// stores so defensive decoding stays exercised.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) set(key string, value []byte) {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
}

func (m *MemoryStore) get(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key]
}

func (m *MemoryStore) delete(key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}

// Drafts returns a draft store view scoped to one session subject.
func (m *MemoryStore) Drafts(scope string) intake.DraftStore {
	return &memoryDraftStore{store: m, key: draftKeyPrefix + scope}
}

// Snapshots returns a snapshot store view scoped to one session subject.
func (m *MemoryStore) Snapshots(scope string) intake.SnapshotStore {
	return &memorySnapshotStore{store: m, key: snapshotKeyPrefix + scope}
}

type memoryDraftStore struct {
	store *MemoryStore
	key   string
}

func (s *memoryDraftStore) Save(ctx context.Context, d *intake.Draft) {
	if data, err := json.Marshal(d); err == nil {
		s.store.set(s.key, data)
	}
}

func (s *memoryDraftStore) Load(ctx context.Context) *intake.Draft {
	return ParseDraft(s.store.get(s.key))
}

func (s *memoryDraftStore) Clear(ctx context.Context) {
	s.store.delete(s.key)
}

type memorySnapshotStore struct {
	store *MemoryStore
	key   string
}

func (s *memorySnapshotStore) Save(ctx context.Context, snap *intake.Snapshot) {
	if data, err := json.Marshal(snap); err == nil {
		s.store.set(s.key, data)
	}
}

func (s *memorySnapshotStore) Load(ctx context.Context) *intake.Snapshot {
	return ParseSnapshot(s.store.get(s.key))
}

func (s *memorySnapshotStore) Clear(ctx context.Context) {
	s.store.delete(s.key)
}

// SeedCorrupt plants raw bytes under a scope's draft or snapshot key, for
// exercising the parse-or-null path in tests.
func (m *MemoryStore) SeedCorrupt(kind, scope string, data []byte) error {
	switch kind {
	case "draft":
		m.set(draftKeyPrefix+scope, data)
	case "snapshot":
		m.set(snapshotKeyPrefix+scope, data)
	default:
		return fmt.Errorf("drafts: unknown record kind %q", kind)
	}
	return nil
}
