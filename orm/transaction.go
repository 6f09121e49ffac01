package orm

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/coderi421/rowkit/orm/cache"
	"github.com/coderi421/rowkit/orm/conn"
	"github.com/google/uuid"
)

var _ Session = &Tx{}
var _ Session = &DB{}

// Session 代表一个抽象的概念，即会话
// 所有的操作都通过它拿到连接，DB 每次从连接池获取，Tx 始终使用同一个事务
type Session interface {
	getCore() core
	// acquire 返回的连接在顶层操作结束的时候关闭
	acquire(ctx context.Context) (conn.Conn, error)
}

// Tx 由调用者开启和提交，orm 只是在里面执行语句
type Tx struct {
	tx    *sql.Tx
	db    *DB
	cache *txCache
}

func newTx(tx *sql.Tx, db *DB) *Tx {
	res := &Tx{tx: tx, db: db}
	if db.cache != nil {
		res.cache = &txCache{RowCache: db.cache}
	}
	return res
}

// getCore 事务里面读到的数据可能还没有提交，所以不读也不写行缓存，
// 写操作的失效记录在 Tx 上，提交之后才执行
func (t *Tx) getCore() core {
	c := t.db.core
	if t.cache != nil {
		c.cache = t.cache
	}
	return c
}

// acquire 事务不需要归还连接
func (t *Tx) acquire(_ context.Context) (conn.Conn, error) {
	return conn.New(t.tx, t.db.dialect, nil), nil
}

// Commit 提交成功之后，事务里面的写操作对应的行缓存才失效
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return err
	}
	if t.cache == nil {
		return nil
	}
	return t.cache.flush(context.Background())
}

func (t *Tx) Rollback() error {
	if t.cache != nil {
		t.cache.discard()
	}
	return t.tx.Rollback()
}

func (t *Tx) RollbackIfNotCommit() error {
	err := t.Rollback()
	if !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// invalidation all 为 true 的时候整张表失效
type invalidation struct {
	table string
	id    uuid.UUID
	all   bool
}

// txCache 不读也不写，只记录需要失效的行，提交之后交给真正的缓存
type txCache struct {
	cache.RowCache
	mu      sync.Mutex
	pending []invalidation
}

func (*txCache) Get(context.Context, string, uuid.UUID) (cache.Row, bool, error) {
	return cache.Row{}, false, nil
}

func (*txCache) Set(context.Context, string, uuid.UUID, cache.Row) error {
	return nil
}

func (c *txCache) Delete(_ context.Context, table string, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, invalidation{table: table, id: id})
	return nil
}

func (c *txCache) Invalidate(_ context.Context, table string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, invalidation{table: table, all: true})
	return nil
}

func (c *txCache) flush(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, inv := range pending {
		var err error
		if inv.all {
			err = c.RowCache.Invalidate(ctx, inv.table)
		} else {
			err = c.RowCache.Delete(ctx, inv.table, inv.id)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *txCache) discard() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}
