package memory

import (
	"context"
	"sync"
	"time"

	"github.com/coderi421/rowkit/orm/cache"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

var _ cache.RowCache = &Store{}

// Store 进程内的行缓存，每张表一个 go-cache 实例
type Store struct {
	mutex  sync.RWMutex
	tables map[string]*gocache.Cache
	// 利用 go-cache 来帮助我们管理过期时间
	expiration time.Duration
}

// NewStore creates a new Store. Rows expire after expiration,
// a non-positive value keeps them until they are invalidated.
func NewStore(expiration time.Duration) *Store {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	return &Store{
		tables:     make(map[string]*gocache.Cache, 8),
		expiration: expiration,
	}
}

func (s *Store) table(name string, create bool) *gocache.Cache {
	s.mutex.RLock()
	c, ok := s.tables[name]
	s.mutex.RUnlock()
	if ok || !create {
		return c
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	// double check
	if c, ok = s.tables[name]; ok {
		return c
	}
	c = gocache.New(s.expiration, time.Minute)
	s.tables[name] = c
	return c
}

// Get 返回的是副本，调用者可以随意修改
func (s *Store) Get(_ context.Context, table string, id uuid.UUID) (cache.Row, bool, error) {
	c := s.table(table, false)
	if c == nil {
		return cache.Row{}, false, nil
	}
	val, ok := c.Get(id.String())
	if !ok {
		return cache.Row{}, false, nil
	}
	return val.(cache.Row).Clone(), true, nil
}

func (s *Store) Set(_ context.Context, table string, id uuid.UUID, row cache.Row) error {
	s.table(table, true).Set(id.String(), row.Clone(), gocache.DefaultExpiration)
	return nil
}

func (s *Store) Delete(_ context.Context, table string, id uuid.UUID) error {
	if c := s.table(table, false); c != nil {
		c.Delete(id.String())
	}
	return nil
}

func (s *Store) Invalidate(_ context.Context, table string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.tables, table)
	return nil
}
