package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coderi421/rowkit/orm/cache"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

var _ cache.RowCache = &Store{}

// StoreOption is a function type for configuring a Store.
type StoreOption func(store *Store)

// Store 每张表对应 redis 里面的一个 hash，field 是 id，value 是 msgpack 编码的行
// 整张表失效的时候直接删除这个 hash
type Store struct {
	prefix     string // redis 中 key 的前缀
	client     redis.Cmdable
	expiration time.Duration // 过期时间，作用在整个 hash 上
}

// NewStore creates a new Store on top of client.
func NewStore(client redis.Cmdable, opts ...StoreOption) *Store {
	res := &Store{
		client:     client,
		prefix:     "rowkit",
		expiration: time.Minute * 15,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// WithPrefix sets the prefix of every key written by the Store.
func WithPrefix(prefix string) StoreOption {
	return func(store *Store) {
		store.prefix = prefix
	}
}

// WithExpiration sets the expiration of a table hash. Every Set refreshes it.
func WithExpiration(expiration time.Duration) StoreOption {
	return func(store *Store) {
		store.expiration = expiration
	}
}

func (s *Store) key(table string) string {
	return fmt.Sprintf("%s_%s", s.prefix, table)
}

func (s *Store) Get(ctx context.Context, table string, id uuid.UUID) (cache.Row, bool, error) {
	data, err := s.client.HGet(ctx, s.key(table), id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return cache.Row{}, false, nil
	}
	if err != nil {
		return cache.Row{}, false, err
	}
	row, err := decodeRow(data)
	if err != nil {
		return cache.Row{}, false, err
	}
	return row, true, nil
}

func (s *Store) Set(ctx context.Context, table string, id uuid.UUID, row cache.Row) error {
	data, err := encodeRow(row)
	if err != nil {
		return err
	}
	key := s.key(table)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, id.String(), data)
		if s.expiration > 0 {
			pipe.PExpire(ctx, key, s.expiration)
		}
		return nil
	})
	return err
}

func (s *Store) Delete(ctx context.Context, table string, id uuid.UUID) error {
	return s.client.HDel(ctx, s.key(table), id.String()).Err()
}

func (s *Store) Invalidate(ctx context.Context, table string) error {
	return s.client.Del(ctx, s.key(table)).Err()
}

// encodeRow 解码之后整数的具体类型可能变小，例如 int64(18) 变成 int8，
// 读取的时候交给 conn 的 getter 处理
func encodeRow(row cache.Row) ([]byte, error) {
	return msgpack.Marshal(row)
}

func decodeRow(data []byte) (cache.Row, error) {
	var row cache.Row
	err := msgpack.Unmarshal(data, &row)
	return row, err
}
