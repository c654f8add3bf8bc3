package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"mevwatcher/config"
	"mevwatcher/types"
)

// KindStore is a second, shared tier behind KindCache, so that several
// processes resolve each contract once.
type KindStore interface {
	GetKinds(ctx context.Context, addrs []common.Address) (map[common.Address]types.AssetType, error)
	PutKinds(ctx context.Context, kinds map[common.Address]types.AssetType) error
}

// Stored for contracts resolved to no known kind
const unknownKindValue = "unknown"

// RedisKindStore keeps kinds in one hash, field = lowercase address.
type RedisKindStore struct {
	rdb *redis.Client
	key string
}

func NewRedisKindStore(rdb *redis.Client, key string) *RedisKindStore {
	if key == "" {
		key = config.REDIS_ASSET_KIND_HASH
	}
	return &RedisKindStore{rdb: rdb, key: key}
}

// NewRedisKindStoreFromConfig returns nil when REDIS_ADDR is not set.
func NewRedisKindStoreFromConfig() *RedisKindStore {
	addr := viper.GetString("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
	})
	return NewRedisKindStore(rdb, "")
}

func fieldOf(addr common.Address) string {
	return "0x" + common.Bytes2Hex(addr.Bytes())
}

func (s *RedisKindStore) GetKinds(ctx context.Context, addrs []common.Address) (map[common.Address]types.AssetType, error) {
	res := make(map[common.Address]types.AssetType, len(addrs))
	if len(addrs) == 0 {
		return res, nil
	}
	fields := make([]string, len(addrs))
	for i, a := range addrs {
		fields[i] = fieldOf(a)
	}
	values, err := s.rdb.HMGet(ctx, s.key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HMGET %s failed: %w", s.key, err)
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // not cached
		}
		if str == unknownKindValue {
			res[addrs[i]] = types.AssetUnknown
			continue
		}
		res[addrs[i]] = types.AssetType(str)
	}
	return res, nil
}

func (s *RedisKindStore) PutKinds(ctx context.Context, kinds map[common.Address]types.AssetType) error {
	if len(kinds) == 0 {
		return nil
	}
	values := make(map[string]any, len(kinds))
	for a, k := range kinds {
		v := string(k)
		if k == types.AssetUnknown {
			v = unknownKindValue
		}
		values[fieldOf(a)] = v
	}
	if err := s.rdb.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("redis HSET %s failed: %w", s.key, err)
	}
	return nil
}

func (s *RedisKindStore) Close() error {
	return s.rdb.Close()
}

// Clear drops every stored kind.
func (s *RedisKindStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s failed: %w", s.key, err)
	}
	return nil
}
