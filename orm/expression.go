package orm

const (
	opAdd   Op = "+"
	opMulti Op = "*"
)

// Expression 代表语句，或者语句的部分
// 暂时没想好怎么设计方法，所以直接做成标记接口
type Expression interface {
	expr()
}

// exprOf returns an Expression based on the input parameter.
func exprOf(e any) Expression {
	switch expr := e.(type) {
	case Expression:
		return expr
	default:
		return valueOf(expr)
	}
}

// RawExpr 代表一个原生表达式
// 意味着 ORM 不会对它进行任何处理
type RawExpr struct {
	raw  string
	args []any
}

func (r RawExpr) selectable() {}

func (r RawExpr) expr() {}

// AsCondition 把原生表达式当作查询条件使用
func (r RawExpr) AsCondition() Condition {
	args := make([]any, len(r.args))
	copy(args, r.args)
	return Condition{sql: r.raw, args: args}
}

// Raw 创建一个 RawExpr
// 执行原生sql 语句
func Raw(expr string, args ...any) RawExpr {
	return RawExpr{
		raw:  expr,
		args: args,
	}
}

type binaryExpr struct {
	left  Expression
	op    Op
	right Expression
}

// 实现功能接口 Expression
func (b binaryExpr) expr() {}

// MathExpr 为非导出 struct 创建类型
// update 过程中的计算方法
type MathExpr binaryExpr

func (m MathExpr) Add(val any) MathExpr {
	return MathExpr{
		left:  m,
		op:    opAdd,
		right: valueOf(val),
	}
}

func (m MathExpr) Multi(val any) MathExpr {
	return MathExpr{
		left:  m,
		op:    opMulti,
		right: valueOf(val),
	}
}

func (m MathExpr) expr() {}
