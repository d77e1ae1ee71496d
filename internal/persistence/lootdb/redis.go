package lootdb

import (
	"context"
	"slices"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps one hash per (player, container): field = slot, value = encoded item.
// redis.Cmdable covers both single-node and cluster clients; in cluster mode the DEL and HSET of a
// pair hit the same key, so the pipelined transaction stays on one node.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "loot"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// NewRedisClient builds a single node client, or a cluster client when more than one address is given.
func NewRedisClient(addrs []string, password string) redis.UniversalClient {
	if len(addrs) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrs, Password: password})
	}
	addr := ""
	if len(addrs) == 1 {
		addr = addrs[0]
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password})
}

func (s *RedisStore) key(player uuid.UUID, containerID string) string {
	return s.prefix + ":" + player.String() + ":" + containerID
}

func (s *RedisStore) Load(ctx context.Context, player uuid.UUID, containerID string) ([]SlotRecord, bool, error) {
	m, err := s.rdb.HGetAll(ctx, s.key(player, containerID)).Result()
	if err != nil && err != redis.Nil {
		return nil, false, storageErr("load", player, containerID, err)
	}
	if len(m) == 0 {
		return nil, false, nil
	}
	rows := make([]SlotRecord, 0, len(m))
	for field, data := range m {
		slot, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		rows = append(rows, SlotRecord{Slot: slot, Data: data})
	}
	slices.SortFunc(rows, func(a, b SlotRecord) int { return a.Slot - b.Slot })
	out, found := splitSentinel(rows)
	return out, found, nil
}

func (s *RedisStore) Save(ctx context.Context, player uuid.UUID, containerID string, records []SlotRecord) error {
	key := s.key(player, containerID)
	rows := rowsForSave(records)
	values := make([]interface{}, 0, len(rows)*2)
	for _, r := range rows {
		values = append(values, strconv.Itoa(r.Slot), r.Data)
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values...)
		return nil
	})
	return storageErr("save", player, containerID, err)
}

func (s *RedisStore) Close() error {
	if c, ok := s.rdb.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
