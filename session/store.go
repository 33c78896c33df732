package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSnapshotNotFound is returned by Load when no snapshot is persisted.
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// ErrStoreUnavailable is returned when Redis cannot be reached.
var ErrStoreUnavailable = errors.New("session store unavailable")

const currentKeySuffix = "current"

// Store persists one snapshot per orchestrator instance under
// "<prefix>:current".
type Store struct {
	redis  *redis.Client
	prefix string
}

func NewStore(redisClient *redis.Client, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key() string {
	return s.prefix + ":" + currentKeySuffix
}

// Save writes the snapshot, replacing any previous one. A zero ttl stores
// without expiry.
func (s *Store) Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error {
	encoded, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Load reads and decodes the stored snapshot. A corrupt record is deleted
// and reported as ErrSnapshotCorrupt so it cannot wedge startup forever.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	snap, err := Decode(data)
	if err != nil {
		_, _ = s.redis.Del(ctx, s.key()).Result()
		return nil, err
	}
	return snap, nil
}

// Clear removes the stored snapshot. Clearing an absent snapshot is not an
// error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
