package unsafe

import (
	"reflect"
	"unsafe"

	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/internal/valuer"
	"github.com/coderi421/rowkit/orm/model"
)

type unsafeValue struct {
	addr unsafe.Pointer // 使用 unsafe Pointer 而不是 uintptr 是因为 gc 后 uintptr 会发生变化
	meta *model.Model
}

var _ valuer.Creator = NewUnsafeValue

func NewUnsafeValue(val any, meta *model.Model) valuer.Value {
	return unsafeValue{
		addr: reflect.ValueOf(val).UnsafePointer(),
		meta: meta,
	}
}

// ptr 字段的地址 = 结构体起始地址 + 字段偏移量
func (u unsafeValue) ptr(f *model.Field) reflect.Value {
	return reflect.NewAt(f.Type, unsafe.Add(u.addr, f.Offset))
}

func (u unsafeValue) Field(f *model.Field) any {
	return u.ptr(f).Elem().Interface()
}

func (u unsafeValue) SetField(f *model.Field, val any) error {
	fd := u.ptr(f).Elem()
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
