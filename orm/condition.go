package orm

import (
	"reflect"
	"strings"

	"github.com/coderi421/rowkit/orm/conn"
)

type Op string

const (
	OpEQ    Op = "="
	OpNE    Op = "<>"
	OpLT    Op = "<"
	OpLE    Op = "<="
	OpGT    Op = ">"
	OpGE    Op = ">="
	OpLike  Op = "LIKE"
	OpIs    Op = "IS"
	OpIsNot Op = "IS NOT"

	opAND Op = "AND"
	opOR  Op = "OR"
	opNOT Op = "NOT"
	opIN  Op = "IN"
)

func (o Op) String() string {
	return string(o)
}

// Condition 代表 WHERE 或者 HAVING 中的一个布尔表达式
// sql 中占位符的个数和顺序始终和 args 保持一致，
// 后面 contributor 是按照位置把 args 绑定到 statement 上的
// Condition 是值类型，所有组合方法都返回新的 Condition，不会修改接收者
type Condition struct {
	sql  string
	args []any
}

// Where builds a leaf condition. attr is written verbatim, so it must be a column
// name (or any SQL expression) understood by the database.
// A nil value, including a typed nil pointer, renders "attr op NULL" without args.
func Where(attr string, op Op, val any) Condition {
	if isNil(val) {
		return Condition{sql: attr + " " + op.String() + " NULL"}
	}
	return Condition{
		sql:  attr + " " + op.String() + " ?",
		args: []any{val},
	}
}

func isNil(val any) bool {
	if val == nil {
		return true
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		// []byte(nil) 也当作 NULL
		return rv.IsNil()
	default:
		return false
	}
}

// In renders "attr IN (?,?,...)". An empty list can never match and renders "1=0".
func In(attr string, vals ...any) Condition {
	if len(vals) == 0 {
		return Condition{sql: "1=0"}
	}
	var sb strings.Builder
	sb.WriteString(attr)
	sb.WriteString(" IN (")
	for i := range vals {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('?')
	}
	sb.WriteByte(')')
	args := make([]any, len(vals))
	copy(args, vals)
	return Condition{sql: sb.String(), args: args}
}

// Not 返回 NOT (c)，空的条件取反之后仍然是空的
func Not(c Condition) Condition {
	if c.IsEmpty() {
		return c
	}
	return Condition{
		sql:  opNOT.String() + " (" + c.sql + ")",
		args: c.Args(),
	}
}

// And returns "c AND (o)". Either side being empty yields the other side unchanged.
func (c Condition) And(o Condition) Condition {
	return c.compose(opAND, o)
}

func (c Condition) Or(o Condition) Condition {
	return c.compose(opOR, o)
}

func (c Condition) AndWhere(attr string, op Op, val any) Condition {
	return c.And(Where(attr, op, val))
}

func (c Condition) OrWhere(attr string, op Op, val any) Condition {
	return c.Or(Where(attr, op, val))
}

func (c Condition) compose(op Op, o Condition) Condition {
	if o.IsEmpty() {
		return c
	}
	if c.IsEmpty() {
		return o
	}
	// 右边加上括号，保证继续组合的时候优先级不变
	args := make([]any, 0, len(c.args)+len(o.args))
	args = append(args, c.args...)
	args = append(args, o.args...)
	return Condition{
		sql:  c.sql + " " + op.String() + " (" + o.sql + ")",
		args: args,
	}
}

func (c Condition) SQL() string {
	return c.sql
}

// Args returns a copy of the bound values in placeholder order.
func (c Condition) Args() []any {
	if len(c.args) == 0 {
		return nil
	}
	res := make([]any, len(c.args))
	copy(res, c.args)
	return res
}

func (c Condition) IsEmpty() bool {
	return c.sql == ""
}

// Placeholders counts the "?" markers of the rendered SQL. It always equals len(c.Args()).
func (c Condition) Placeholders() int {
	return conn.CountPlaceholders(c.sql)
}

func (c Condition) String() string {
	return c.sql
}

// conditions 把多个条件用 AND 组合起来
// Selector.Where(a, b) 等价于 Where(a.And(b))
func conditions(cs []Condition) Condition {
	var res Condition
	for _, c := range cs {
		res = res.And(c)
	}
	return res
}
