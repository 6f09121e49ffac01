package orm

// Aggregate 代表聚合函数， 例如 AVG, MAX, MIN 等 以及别名
type Aggregate struct {
	fn    string
	arg   string
	alias string
}

func (a Aggregate) selectable() {}

func (a Aggregate) expr() {}

// As 这里使用 值 作为接收者，可以防止并发问题，每次都返回一个新的
func (a Aggregate) As(alias string) Aggregate {
	return Aggregate{
		fn:    a.fn,
		arg:   a.arg,
		alias: alias,
	}
}

// text 在 HAVING 中使用，arg 原样输出
func (a Aggregate) text() string {
	return a.fn + "(" + a.arg + ")"
}

// EQ 例如 Avg("age").EQ(12)
func (a Aggregate) EQ(arg any) Condition {
	return Where(a.text(), OpEQ, arg)
}

func (a Aggregate) LT(arg any) Condition {
	return Where(a.text(), OpLT, arg)
}

func (a Aggregate) GT(arg any) Condition {
	return Where(a.text(), OpGT, arg)
}

func (a Aggregate) GE(arg any) Condition {
	return Where(a.text(), OpGE, arg)
}

func (a Aggregate) LE(arg any) Condition {
	return Where(a.text(), OpLE, arg)
}

// Avg 求平均值，c 是聚合函数中填写的字段
func Avg(c string) Aggregate {
	return Aggregate{
		fn:  "AVG",
		arg: c,
	}
}

func Max(c string) Aggregate {
	return Aggregate{
		fn:  "MAX",
		arg: c,
	}
}

func Min(c string) Aggregate {
	return Aggregate{
		fn:  "MIN",
		arg: c,
	}
}

// Count 获取数量
func Count(c string) Aggregate {
	return Aggregate{
		fn:  "COUNT",
		arg: c,
	}
}

func Sum(c string) Aggregate {
	return Aggregate{
		fn:  "SUM",
		arg: c,
	}
}
