package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/evyataryagoni/cepcache/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisCodePrefix = "cep:code:"
	redisSeqKey     = "cep:seq"
	redisScanCount  = 100
)

// RedisStore implements Store using Redis
//
// Key Format: cep:code:<code> -> JSON-encoded PostalRecord
// Ids come from INCR on cep:seq, uniqueness of code from SETNX
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string if no password)
//   - db: Redis database number (0-15, default is 0)
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to connect to Redis: %w", models.ErrStorage, err)
	}

	return &RedisStore{client: client}, nil
}

func redisKey(code string) string {
	return redisCodePrefix + code
}

// Insert stores a record under its code
// The id is allocated first, a code that already exists is a storage error
func (s *RedisStore) Insert(ctx context.Context, record *models.PostalRecord) (int64, error) {
	id, err := s.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: allocate id: %w", models.ErrStorage, err)
	}

	stored := *record
	stored.ID = id
	stored.QueriedAt = nil
	stored.Complement = ""

	data, err := json.Marshal(stored)
	if err != nil {
		return 0, fmt.Errorf("%w: encode cep %s: %w", models.ErrStorage, record.Code, err)
	}

	// No expiration: cached records are never evicted
	ok, err := s.client.SetNX(ctx, redisKey(record.Code), data, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: store cep %s: %w", models.ErrStorage, record.Code, err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: cep %s already exists", models.ErrStorage, record.Code)
	}

	record.ID = id
	return id, nil
}

// FindByCode looks up a record by its normalized code
func (s *RedisStore) FindByCode(ctx context.Context, code string) (*models.PostalRecord, bool, error) {
	val, err := s.client.Get(ctx, redisKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: query cep %s: %w", models.ErrStorage, code, err)
	}

	var record models.PostalRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, false, fmt.Errorf("%w: decode cep %s: %w", models.ErrStorage, code, err)
	}

	return &record, true, nil
}

// ListAll scans every cep:code:* key and returns the records ordered by id
func (s *RedisStore) ListAll(ctx context.Context) ([]models.PostalRecord, error) {
	records := []models.PostalRecord{}

	iter := s.client.Scan(ctx, 0, redisCodePrefix+"*", redisScanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan ceps: %w", models.ErrStorage, err)
	}
	if len(keys) == 0 {
		return records, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: load ceps: %w", models.ErrStorage, err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Key vanished between SCAN and MGET
			continue
		}
		var record models.PostalRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", models.ErrStorage, keys[i], err)
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// IsEmpty checks if Redis holds any cep record
func (s *RedisStore) IsEmpty(ctx context.Context) (bool, error) {
	// A single SCAN batch may be empty even when matches exist further on
	iter := s.client.Scan(ctx, 0, redisCodePrefix+"*", redisScanCount).Iterator()
	if iter.Next(ctx) {
		return false, nil
	}
	if err := iter.Err(); err != nil {
		return false, fmt.Errorf("%w: failed to check Redis keys: %w", models.ErrStorage, err)
	}
	return true, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
