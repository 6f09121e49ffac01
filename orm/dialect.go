package orm

import (
	"errors"
	"strings"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/go-sql-driver/mysql"
)

var (
	MySQL   Dialect = &mysqlDialect{}
	SQLite3 Dialect = &sqlite3Dialect{}
)

// mysql 建表时表已经存在的错误码
const mysqlErrTableExists = 1050

// sqliteUnsigned 无符号整数 handler 的列类型
const sqliteUnsigned = "BIGINT UNSIGNED"

// Dialect 屏蔽不同数据库之间的差异
// 占位符统一使用 ?，所以这里只有引号、UPSERT、元数据查询和错误转换
type Dialect interface {
	conn.Catalog
	Name() string
	quoter() byte
	buildUpsert(b *builder, u *Upsert) error
	// columnType 建表时使用的列类型，大多数时候就是 handler 给出的类型
	columnType(sqlType string) string
	// translateErr 把 driver 的错误转换成 orm 的错误，不认识的原样返回
	translateErr(table string, err error) error
}

// DialectOf returns the dialect registered for a database/sql driver name.
func DialectOf(driver string) (Dialect, bool) {
	switch driver {
	case "mysql":
		return MySQL, true
	case "sqlite3", "sqlite":
		return SQLite3, true
	default:
		return nil, false
	}
}

type standardSQL struct {
}

func (s *standardSQL) quoter() byte {
	return '"'
}

func (s *standardSQL) columnType(sqlType string) string {
	return sqlType
}

func (s *standardSQL) translateErr(_ string, err error) error {
	return err
}

// buildAssigns 构造 UPSERT 里面 SET 的部分
// excluded 用来生成 "引用插入的值" 的写法，例如 MySQL 的 VALUES(`col`)
func (s *standardSQL) buildAssigns(b *builder, assigns []Assignable, excluded func(col string)) error {
	for idx, a := range assigns {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		switch assign := a.(type) {
		case Column:
			// 使用原本插入的值
			col, err := b.colName(assign.name)
			if err != nil {
				return err
			}
			b.quote(col)
			b.sb.WriteByte('=')
			excluded(col)
		case Assignment:
			if err := b.buildAssignment(assign); err != nil {
				return err
			}
		default:
			return errs.NewErrUnsupportedAssignableType(assign)
		}
	}
	return nil
}

type mysqlDialect struct {
	standardSQL
}

func (m *mysqlDialect) Name() string {
	return "mysql"
}

func (m *mysqlDialect) quoter() byte {
	return '`'
}

func (m *mysqlDialect) TablesQuery() string {
	return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() ORDER BY TABLE_NAME"
}

func (m *mysqlDialect) DatabaseQuery() string {
	return "SELECT DATABASE()"
}

// buildUpsert
// "INSERT INTO `t`(`id`,`first_name`) VALUES(?,?) ON DUPLICATE KEY UPDATE `first_name`=VALUES(`first_name`);"
func (m *mysqlDialect) buildUpsert(b *builder, u *Upsert) error {
	b.sb.WriteString(" ON DUPLICATE KEY UPDATE ")
	return m.buildAssigns(b, u.assigns, func(col string) {
		b.sb.WriteString("VALUES(")
		b.quote(col)
		b.sb.WriteByte(')')
	})
}

func (m *mysqlDialect) translateErr(table string, err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlErrTableExists {
		return errs.NewErrDuplicateTable(table)
	}
	return err
}

type sqlite3Dialect struct {
	standardSQL
}

func (s *sqlite3Dialect) Name() string {
	return "sqlite3"
}

func (s *sqlite3Dialect) quoter() byte {
	return '`'
}

func (s *sqlite3Dialect) TablesQuery() string {
	return "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
}

// columnType SQLite 的 INTEGER 只有 64 位有符号整数，
// 超过 MaxInt64 的值会被转成 REAL 丢失精度，所以无符号整数按十进制文本保存
func (s *sqlite3Dialect) columnType(sqlType string) string {
	if sqlType == sqliteUnsigned {
		return "TEXT"
	}
	return sqlType
}

// DatabaseQuery SQLite 没有当前数据库的概念
func (s *sqlite3Dialect) DatabaseQuery() string {
	return ""
}

// buildUpsert
// "INSERT INTO `t`(`id`,`first_name`) VALUES(?,?) ON CONFLICT(`id`) DO UPDATE SET `first_name`=excluded.`first_name`;"
func (s *sqlite3Dialect) buildUpsert(b *builder, u *Upsert) error {
	b.sb.WriteString(" ON CONFLICT")
	if len(u.conflictColumns) > 0 {
		b.sb.WriteByte('(')
		for i, col := range u.conflictColumns {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			if err := b.buildColumn(col); err != nil {
				return err
			}
		}
		b.sb.WriteByte(')')
	}
	b.sb.WriteString(" DO UPDATE SET ")
	return s.buildAssigns(b, u.assigns, func(col string) {
		b.sb.WriteString("excluded.")
		b.quote(col)
	})
}

// translateErr go-sqlite3 需要 cgo，这里不依赖它的错误类型，只看错误信息
func (s *sqlite3Dialect) translateErr(table string, err error) error {
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return errs.NewErrDuplicateTable(table)
	}
	return err
}
