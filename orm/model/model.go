package model

import (
	"reflect"

	"github.com/coderi421/rowkit/orm/handler"
)

// Option is a function type that modifies a Model.
type Option func(model *Model) error

// Model 结构体映射db后的结构
// 每个类型只解析一次，之后一直缓存在 Registry 里
type Model struct {
	// TableName 结构体对应的表名
	TableName string
	// Type 结构体类型（不是指针）
	Type reflect.Type
	// Fields 按照声明顺序排列的持久化字段，不包括 id 字段
	Fields    []*Field
	FieldMap  map[string]*Field // 结构体 属性名 attr name 为 key  ItemId
	ColumnMap map[string]*Field // DB column name 为 key    item_id

	// IDColumn 主键列名，默认是 id
	IDColumn string
	// IDField 和 record id 同步的字段，可以为 nil
	IDField *Field
	// IDHandler 处理主键列的 handler
	IDHandler handler.Handler
}

// Field 字段相关的属性
type Field struct {
	ColName string       // 数据库中的字段名
	GoName  string       // go struct 中的名字
	Type    reflect.Type // go 中的数据类型，转换成 reflect.Value 的时候，知道是什么类型，不然那没法转
	// Index 字段在结构体中的下标
	Index int
	// Offset 相对于对象起始地址的字段偏移量
	// uintptr 这个类型的值，只是简单记录一下位置
	Offset uintptr

	// Reference 代表这个字段是指向另外一个持久化对象的指针
	// 数据库里存的是对方的 id
	Reference bool
	// RefType 被引用的结构体类型，只有 Reference 为 true 的时候才有值
	RefType reflect.Type

	// Handler 在构造 Model 的时候就确定下来，之后每一行数据都不再重新查找
	Handler handler.Handler
	SQLType string
	Options map[string]string
}

// Descriptor returns the handler-facing description of the field.
func (f *Field) Descriptor() handler.FieldDescriptor {
	return handler.FieldDescriptor{Name: f.GoName, Type: f.Type, Options: f.Options}
}

// Table returns the id column followed by the persisted fields in declaration order.
func (m *Model) Table() Table {
	cols := make([]Column, 0, len(m.Fields)+1)
	cols = append(cols, Column{Name: m.IDColumn, SQLType: m.IDHandler.SQLType()})
	for _, f := range m.Fields {
		cols = append(cols, Column{Name: f.ColName, SQLType: f.SQLType})
	}
	return Table{Name: m.TableName, Columns: cols}
}

// Field finds a field by Go name first and by column name second.
func (m *Model) Field(name string) (*Field, bool) {
	if fd, ok := m.FieldMap[name]; ok {
		return fd, true
	}
	fd, ok := m.ColumnMap[name]
	return fd, ok
}

// 我们支持的全部标签上的 key 都放在这里
// 方便用户查找，和我们后期维护
const (
	tagORMName    = "orm"
	tagKeyColumn  = "column"
	tagKeyType    = "type"
	tagFlagID     = "id"
	tagFlagRef    = "ref"
	tagFlagJSON   = "json"
	tagFlagIgnore = "transient"
	tagIgnore     = "-"

	defaultIDColumn = "id"
)

// TableName 用户实现这个接口来返回自定义的表名
type TableName interface {
	TableName() string
}
