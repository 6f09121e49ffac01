package conn

import (
	"context"
	"database/sql"
	"strings"

	"github.com/coderi421/rowkit/orm/internal/errs"
)

// ExecQuerier 是 *sql.DB, *sql.Conn 和 *sql.Tx 的公共部分
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Catalog 提供不同数据库查询元数据的 SQL
type Catalog interface {
	// TablesQuery 返回只有一列（表名）的查询
	TablesQuery() string
	// DatabaseQuery 返回查询当前数据库名的 SQL，
	// 返回空字符串代表该数据库没有"当前数据库"这个概念，例如 SQLite
	DatabaseQuery() string
}

// Conn 是 ORM 核心使用的连接抽象
type Conn interface {
	Query(ctx context.Context, stmt *Statement) (ResultSet, error)
	Exec(ctx context.Context, stmt *Statement) (sql.Result, error)
	TableExists(ctx context.Context, name string) (bool, error)
	Tables(ctx context.Context) ([]string, error)
	Close() error
}

var _ Conn = &SQLConn{}

// SQLConn 基于 database/sql 的 Conn 实现
type SQLConn struct {
	eq      ExecQuerier
	catalog Catalog
	release func() error
	closed  bool
}

// New wraps eq. release is called once by Close; pass nil when the caller owns eq.
func New(eq ExecQuerier, catalog Catalog, release func() error) *SQLConn {
	return &SQLConn{
		eq:      eq,
		catalog: catalog,
		release: release,
	}
}

// Query executes stmt and drains the whole result into memory.
func (c *SQLConn) Query(ctx context.Context, stmt *Statement) (ResultSet, error) {
	if err := stmt.Validate(); err != nil {
		return nil, err
	}
	rows, err := c.eq.QueryContext(ctx, stmt.SQL(), stmt.Args()...)
	if err != nil {
		return nil, err
	}
	return Drain(rows)
}

func (c *SQLConn) Exec(ctx context.Context, stmt *Statement) (sql.Result, error) {
	if err := stmt.Validate(); err != nil {
		return nil, err
	}
	return c.eq.ExecContext(ctx, stmt.SQL(), stmt.Args()...)
}

// Tables lists the tables of the current database.
func (c *SQLConn) Tables(ctx context.Context) ([]string, error) {
	if q := c.catalog.DatabaseQuery(); q != "" {
		rs, err := c.Query(ctx, NewStatement(q))
		if err != nil {
			return nil, err
		}
		if !rs.Next() {
			return nil, errs.ErrNullDatabase
		}
		if _, null, err := String(rs, 1); err != nil || null {
			if err != nil {
				return nil, err
			}
			return nil, errs.ErrNullDatabase
		}
	}

	rs, err := c.Query(ctx, NewStatement(c.catalog.TablesQuery()))
	if err != nil {
		return nil, err
	}
	var res []string
	for rs.Next() {
		name, null, err := String(rs, 1)
		if err != nil {
			return nil, err
		}
		if null {
			return nil, errs.ErrNullTable
		}
		res = append(res, name)
	}
	return res, nil
}

func (c *SQLConn) TableExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, errs.ErrNullTable
	}
	tables, err := c.Tables(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if strings.EqualFold(t, name) {
			return true, nil
		}
	}
	return false, nil
}

// Close releases the underlying connection. It is safe to call more than once.
func (c *SQLConn) Close() error {
	if c.closed || c.release == nil {
		c.closed = true
		return nil
	}
	c.closed = true
	return c.release()
}
