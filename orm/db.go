package orm

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/coderi421/rowkit/orm/cache"
	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/handler"
	"github.com/coderi421/rowkit/orm/internal/valuer"
	"github.com/coderi421/rowkit/orm/internal/valuer/unsafe"
	"github.com/coderi421/rowkit/orm/model"
	"github.com/gotomicro/ekit/syncx"
)

type DBOption func(*DB)

// DB 是 sql.DB 的装饰器
type DB struct {
	core
	db *sql.DB
}

// Open 创建一个 DB 实例
// 默认情况下，该 DB 将使用 driver 对应的方言，找不到的时候使用 MySQL 方言
// 可以使用 DBWithDialect 指定方言
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if d, ok := DialectOf(driver); ok {
		opts = append([]DBOption{DBWithDialect(d)}, opts...)
	}
	return OpenDB(db, opts...)
}

// OpenDB 可以利用 OpenDB 来传入一个 mock 的 DB
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		core: core{
			dialect:    MySQL,
			r:          model.NewRegistry(nil),
			valCreator: unsafe.NewUnsafeValue,
			logger:     slog.New(slog.DiscardHandler),
			mappings:   &syncx.Map[*model.Model, *mapping]{},
		},
		db: db,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

// MustOpen creates a new DB with the provided options.
// If the creation fails, it panics.
func MustOpen(driver string, dsn string, opts ...DBOption) *DB {
	db, err := Open(driver, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

func DBWithDialect(d Dialect) DBOption {
	return func(db *DB) {
		db.dialect = d
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

// DBWithHandlers 注册额外的 column handler，它们会排在内置 handler 前面
// 会替换掉当前的 model.Registry
func DBWithHandlers(hs ...handler.Handler) DBOption {
	return func(db *DB) {
		db.r = model.NewRegistry(handler.NewRegistry(hs...))
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

// DBWithRowCache 按 id 加载的时候先查缓存，写操作会让缓存失效
func DBWithRowCache(c cache.RowCache) DBOption {
	return func(db *DB) {
		db.cache = c
	}
}

func DBWithLogger(l *slog.Logger) DBOption {
	return func(db *DB) {
		db.logger = l
	}
}

// DBUseReflectValuer 使用反射读写字段，默认使用 unsafe
func DBUseReflectValuer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewReflectValue
	}
}

func (db *DB) getCore() core {
	return db.core
}

// acquire 从连接池里面拿一个连接，Close 的时候还回去
func (db *DB) acquire(ctx context.Context) (conn.Conn, error) {
	c, err := db.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn.New(c, db.dialect, c.Close), nil
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return newTx(tx, db), nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
