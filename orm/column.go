package orm

// Column 代表一个列
// 在 SELECT、GROUP BY、SET 里面，name 可以是字段名也可以是列名，构造 SQL 的时候会转换成列名
// 在条件里面，name 原样输出，所以应该直接使用列名
type Column struct {
	name  string
	alias string
}

func (c Column) expr() {}

func (c Column) selectable() {}

func (c Column) assign() {}

type value struct {
	val any
}

func (v value) expr() {}

// valueOf creates a new value object with the given value.
func valueOf(val any) value {
	return value{val: val}
}

func C(name string) Column {
	return Column{name: name}
}

// As 这里使用 值 作为接收者，每次都返回一个新的 Column
func (c Column) As(alias string) Column {
	return Column{
		name:  c.name,
		alias: alias,
	}
}

// EQ 例如 C("id").EQ(12)
func (c Column) EQ(arg any) Condition {
	return Where(c.name, OpEQ, arg)
}

func (c Column) NE(arg any) Condition {
	return Where(c.name, OpNE, arg)
}

// LT 例如 C("age").LT(12)
func (c Column) LT(arg any) Condition {
	return Where(c.name, OpLT, arg)
}

func (c Column) LE(arg any) Condition {
	return Where(c.name, OpLE, arg)
}

func (c Column) GT(arg any) Condition {
	return Where(c.name, OpGT, arg)
}

func (c Column) GE(arg any) Condition {
	return Where(c.name, OpGE, arg)
}

func (c Column) Like(pattern string) Condition {
	return Where(c.name, OpLike, pattern)
}

func (c Column) In(vals ...any) Condition {
	return In(c.name, vals...)
}

// IsNull 渲染 name IS NULL
func (c Column) IsNull() Condition {
	return Where(c.name, OpIs, nil)
}

func (c Column) IsNotNull() Condition {
	return Where(c.name, OpIsNot, nil)
}

// Add 用在 UPDATE 里面，例如 Assign("Age", C("Age").Add(1))
func (c Column) Add(val any) MathExpr {
	return MathExpr{
		left:  c,
		op:    opAdd,
		right: valueOf(val),
	}
}

func (c Column) Multi(val any) MathExpr {
	return MathExpr{
		left:  c,
		op:    opMulti,
		right: valueOf(val),
	}
}
