package orm

import (
	"context"
	"strings"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/model"
)

// builder select delete update insert 共用
// 构造的时候只拼接 SQL，参数先放在 args 里面，
// 等 statement 创建出来之后再由 contributor 按位置写进去
type builder struct {
	core
	sb     strings.Builder
	args   []binding
	model  *model.Model
	quoter byte
}

func newBuilder(c core) builder {
	return builder{
		core:   c,
		quoter: c.dialect.quoter(),
	}
}

// reset 同一个 builder 可以多次 Build
func (b *builder) reset() {
	b.sb.Reset()
	b.args = nil
}

func (b *builder) quote(name string) {
	b.sb.WriteByte(b.quoter)
	b.sb.WriteString(name)
	b.sb.WriteByte(b.quoter)
}

// colName 字段名或者列名都可以，返回列名
func (b *builder) colName(name string) (string, error) {
	if name == b.model.IDColumn || (b.model.IDField != nil && name == b.model.IDField.GoName) {
		return b.model.IDColumn, nil
	}
	fd, ok := b.model.Field(name)
	if !ok {
		return "", errs.NewErrUnknownField(name)
	}
	return fd.ColName, nil
}

func (b *builder) buildColumn(name string) error {
	col, err := b.colName(name)
	if err != nil {
		return err
	}
	b.quote(col)
	return nil
}

func (b *builder) buildAs(alias string) {
	if alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(alias)
	}
}

// buildCondition 条件里面的 SQL 原样输出，参数交给 whereContributor 绑定
func (b *builder) buildCondition(c Condition) {
	b.sb.WriteString(c.sql)
	if len(c.args) > 0 {
		b.addBinding(whereBinding{where: c})
	}
}

// buildExpression 用在 SET 和 UPSERT 的右边
// Column 代表是列名，直接拼接列名
// value 代表参数，加入参数列表
func (b *builder) buildExpression(e Expression) error {
	switch expr := e.(type) {
	case nil:
		return nil
	case Column:
		return b.buildColumn(expr.name)
	case value:
		b.sb.WriteByte('?')
		b.addArgs(expr.val)
	case RawExpr:
		// 执行原生 sql 语句
		b.sb.WriteString(expr.raw)
		b.addArgs(expr.args...)
	case Aggregate:
		b.sb.WriteString(expr.fn)
		b.sb.WriteByte('(')
		if err := b.buildColumn(expr.arg); err != nil {
			return err
		}
		b.sb.WriteByte(')')
	case MathExpr:
		if err := b.buildExpression(expr.left); err != nil {
			return err
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(expr.op.String())
		b.sb.WriteByte(' ')
		return b.buildExpression(expr.right)
	default:
		return errs.NewErrUnsupportedExpressionType(expr)
	}
	return nil
}

func (b *builder) buildAssignment(assign Assignment) error {
	if err := b.buildColumn(assign.column); err != nil {
		return err
	}
	b.sb.WriteByte('=')
	return b.buildExpression(assign.val)
}

func (b *builder) addArgs(args ...any) {
	if len(args) == 0 {
		return
	}
	if b.args == nil {
		b.args = make([]binding, 0, 8)
	}
	for _, arg := range args {
		b.args = append(b.args, valueBinding{val: arg})
	}
}

func (b *builder) addBinding(bd binding) {
	b.args = append(b.args, bd)
}

// statement 创建 statement 并且按顺序绑定全部参数
// 所有 contributor 成功之后才返回，不会出现只写了一半的 statement
func (b *builder) statement(ec *ExecContext) (*conn.Statement, error) {
	stmt := conn.NewStatement(b.sb.String())
	index := 1
	for _, bd := range b.args {
		if err := bd.bind(stmt, index, ec); err != nil {
			return nil, err
		}
		index += bd.width()
	}
	if err := stmt.Validate(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// query 把 statement 转换成 Query，用于 Build
func (b *builder) query(stmt *conn.Statement) *Query {
	return &Query{
		SQL:  stmt.SQL(),
		Args: stmt.Args(),
	}
}

// detached 返回一个没有连接的 ExecContext，只用于 Build
func (b *builder) detached() *ExecContext {
	return newExecContext(context.Background(), nil, b.core)
}
