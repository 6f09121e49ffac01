package handler

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/internal/errs"
)

// scalar 是基于 reflect.Kind 判断的基本类型 handler 的公共部分
// typ 为 nil 代表还没有绑定到具体的字段类型，这个时候 Extract 返回 canonical 类型
type scalar struct {
	typ       reflect.Type
	canonical reflect.Type
	kinds     []reflect.Kind
}

func (s scalar) acceptsType(t reflect.Type) bool {
	for _, k := range s.kinds {
		if t.Kind() == k {
			return true
		}
	}
	return false
}

func (s scalar) target() reflect.Type {
	if s.typ != nil {
		return s.typ
	}
	return s.canonical
}

// check 在写入 statement 之前校验类型
func (s scalar) check(value any) (reflect.Value, error) {
	rv := reflect.ValueOf(value)
	want := s.target().String()
	if !rv.IsValid() {
		return rv, errs.NewErrMismatchedType(want, value)
	}
	if s.typ != nil && rv.Type() != s.typ {
		return rv, errs.NewErrMismatchedType(want, value)
	}
	if !s.acceptsType(rv.Type()) {
		return rv, errs.NewErrMismatchedType(want, value)
	}
	return rv, nil
}

func (s scalar) bind(fd FieldDescriptor) scalar {
	s.typ = fd.Type
	return s
}

var (
	typeBool    = reflect.TypeOf(false)
	typeInt64   = reflect.TypeOf(int64(0))
	typeUint64  = reflect.TypeOf(uint64(0))
	typeFloat64 = reflect.TypeOf(float64(0))
	typeString  = reflect.TypeOf("")
)

type boolHandler struct{ scalar }

func (h boolHandler) init() boolHandler {
	h.canonical = typeBool
	h.kinds = []reflect.Kind{reflect.Bool}
	return h
}

func (h boolHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Type.Kind() == reflect.Bool
}

func (boolHandler) SQLType() string { return "BOOLEAN" }

func (h boolHandler) Bind(fd FieldDescriptor) Handler {
	h = h.init()
	h.scalar = h.bind(fd)
	return h
}

func (h boolHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	rv, err := h.init().check(value)
	if err != nil {
		return err
	}
	return stmt.Set(index, rv.Bool())
}

func (h boolHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	h = h.init()
	b, _, err := conn.Bool(rs, column)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(b).Convert(h.target()).Interface(), nil
}

type intHandler struct{ scalar }

func (h intHandler) init() intHandler {
	h.canonical = typeInt64
	h.kinds = []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64}
	return h
}

func (h intHandler) Accepts(fd FieldDescriptor) bool {
	return h.init().acceptsType(fd.Type)
}

func (intHandler) SQLType() string { return "BIGINT" }

func (h intHandler) Bind(fd FieldDescriptor) Handler {
	h = h.init()
	h.scalar = h.bind(fd)
	return h
}

func (h intHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	rv, err := h.init().check(value)
	if err != nil {
		return err
	}
	return stmt.Set(index, rv.Int())
}

func (h intHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	h = h.init()
	i, _, err := conn.Int64(rs, column)
	if err != nil {
		return nil, err
	}
	res := reflect.New(h.target()).Elem()
	if res.OverflowInt(i) {
		return nil, fmt.Errorf("orm: value %d overflows %v", i, h.target())
	}
	res.SetInt(i)
	return res.Interface(), nil
}

type uintHandler struct{ scalar }

func (h uintHandler) init() uintHandler {
	h.canonical = typeUint64
	h.kinds = []reflect.Kind{reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64}
	return h
}

func (h uintHandler) Accepts(fd FieldDescriptor) bool {
	return h.init().acceptsType(fd.Type)
}

func (uintHandler) SQLType() string { return "BIGINT UNSIGNED" }

func (h uintHandler) Bind(fd FieldDescriptor) Handler {
	h = h.init()
	h.scalar = h.bind(fd)
	return h
}

func (h uintHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	rv, err := h.init().check(value)
	if err != nil {
		return err
	}
	u := rv.Uint()
	// database/sql 不支持最高位为 1 的 uint64，这种值按十进制文本写入
	if u > math.MaxInt64 {
		return stmt.Set(index, strconv.FormatUint(u, 10))
	}
	return stmt.Set(index, int64(u))
}

func (h uintHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	h = h.init()
	u, _, err := conn.Uint64(rs, column)
	if err != nil {
		return nil, err
	}
	res := reflect.New(h.target()).Elem()
	if res.OverflowUint(u) {
		return nil, fmt.Errorf("orm: value %d overflows %v", u, h.target())
	}
	res.SetUint(u)
	return res.Interface(), nil
}

type floatHandler struct{ scalar }

func (h floatHandler) init() floatHandler {
	h.canonical = typeFloat64
	h.kinds = []reflect.Kind{reflect.Float32, reflect.Float64}
	return h
}

func (h floatHandler) Accepts(fd FieldDescriptor) bool {
	return h.init().acceptsType(fd.Type)
}

func (floatHandler) SQLType() string { return "DOUBLE" }

func (h floatHandler) Bind(fd FieldDescriptor) Handler {
	h = h.init()
	h.scalar = h.bind(fd)
	return h
}

func (h floatHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	rv, err := h.init().check(value)
	if err != nil {
		return err
	}
	return stmt.Set(index, rv.Float())
}

func (h floatHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	h = h.init()
	f, _, err := conn.Float64(rs, column)
	if err != nil {
		return nil, err
	}
	res := reflect.New(h.target()).Elem()
	if res.OverflowFloat(f) {
		return nil, fmt.Errorf("orm: value %v overflows %v", f, h.target())
	}
	res.SetFloat(f)
	return res.Interface(), nil
}

type stringHandler struct{ scalar }

func (h stringHandler) init() stringHandler {
	h.canonical = typeString
	h.kinds = []reflect.Kind{reflect.String}
	return h
}

func (h stringHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Type.Kind() == reflect.String
}

func (stringHandler) SQLType() string { return "TEXT" }

func (h stringHandler) Bind(fd FieldDescriptor) Handler {
	h = h.init()
	h.scalar = h.bind(fd)
	return h
}

func (h stringHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	rv, err := h.init().check(value)
	if err != nil {
		return err
	}
	return stmt.Set(index, rv.String())
}

func (h stringHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	h = h.init()
	s, _, err := conn.String(rs, column)
	if err != nil {
		return nil, err
	}
	res := reflect.New(h.target()).Elem()
	res.SetString(s)
	return res.Interface(), nil
}
