package valuer

import (
	"reflect"

	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/model"
)

// reflectValue 基于反射的 Value
type reflectValue struct {
	val  reflect.Value
	meta *model.Model
}

var _ Creator = NewReflectValue

// NewReflectValue 返回一个封装好的，基于反射实现的 Value
// 输入 val 必须是一个指向结构体实例的指针，而不能是任何其它类型
func NewReflectValue(val any, meta *model.Model) Value {
	return reflectValue{
		val:  reflect.ValueOf(val).Elem(),
		meta: meta,
	}
}

func (r reflectValue) Field(f *model.Field) any {
	return r.val.Field(f.Index).Interface()
}

func (r reflectValue) SetField(f *model.Field, val any) error {
	fd := r.val.Field(f.Index)
	return assign(fd, f, val)
}

// assign 把 val 写入 fd，两种 Value 实现共用
func assign(fd reflect.Value, f *model.Field, val any) error {
	if val == nil {
		fd.Set(reflect.Zero(f.Type))
		return nil
	}
	rv := reflect.ValueOf(val)
	if rv.Type() != f.Type {
		return errs.NewErrMismatchedType(f.Type.String(), val)
	}
	fd.Set(rv)
	return nil
}
