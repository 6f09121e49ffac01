package orm

// Assignable 标记接口，
// 实现该接口意味着可以用于赋值语句，
// 用于在 UPDATE 和 UPSERT 中 Assign("FirstName", "DaMing") -> SET `first_name`=?
// Column 也实现了这个接口，代表使用结构体中对应字段的值
type Assignable interface {
	assign()
}

type Assignment struct {
	column string
	val    Expression
}

func Assign(column string, val any) Assignment {
	return Assignment{
		column: column,
		val:    exprOf(val),
	}
}

// 实现标记接口
func (a Assignment) assign() {}
