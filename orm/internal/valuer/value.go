package valuer

import (
	"github.com/coderi421/rowkit/orm/model"
)

// Value 是对结构体实例的内部抽象
// contributor 通过它来读写字段，不直接接触反射
type Value interface {
	// Field 返回字段对应的值
	Field(f *model.Field) any
	// SetField 把 val 写入字段，val 必须是字段的类型，nil 代表零值
	SetField(f *model.Field, val any) error
}

// Creator 本质上也可以看所是 factory 模式，极其简单的 factory 模式
// val 必须是指向 meta 对应结构体的指针
type Creator func(val any, meta *model.Model) Value
