package handler

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/google/uuid"
)

var (
	typeUUID    = reflect.TypeOf(uuid.UUID{})
	typeTime    = reflect.TypeOf(time.Time{})
	typeBytes   = reflect.TypeOf([]byte(nil))
	typeValuer  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	typeScanner = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// uuidHandler 以 36 位文本存储 uuid
type uuidHandler struct{}

func (uuidHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Type == typeUUID
}

func (uuidHandler) SQLType() string { return "CHAR(36)" }

func (uuidHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	id, ok := value.(uuid.UUID)
	if !ok {
		return errs.NewErrMismatchedType(typeUUID.String(), value)
	}
	return stmt.Set(index, id.String())
}

func (uuidHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	raw, err := rs.Value(column)
	if err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case nil:
		return uuid.Nil, nil
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	case string:
		return uuid.Parse(v)
	case uuid.UUID:
		return v, nil
	default:
		return nil, fmt.Errorf("orm: cannot convert %T to uuid.UUID", raw)
	}
}

type timeHandler struct{}

func (timeHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Type == typeTime
}

func (timeHandler) SQLType() string { return "DATETIME" }

func (timeHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	t, ok := value.(time.Time)
	if !ok {
		return errs.NewErrMismatchedType(typeTime.String(), value)
	}
	return stmt.Set(index, t)
}

func (timeHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	t, _, err := conn.Time(rs, column)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type bytesHandler struct{}

func (bytesHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Type == typeBytes
}

func (bytesHandler) SQLType() string { return "BLOB" }

func (bytesHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	b, ok := value.([]byte)
	if !ok {
		return errs.NewErrMismatchedType(typeBytes.String(), value)
	}
	if b == nil {
		return stmt.Set(index, nil)
	}
	return stmt.Set(index, b)
}

func (bytesHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	b, null, err := conn.Bytes(rs, column)
	if err != nil {
		return nil, err
	}
	if null {
		return []byte(nil), nil
	}
	return b, nil
}

// jsonHandler 处理打了 json 标签的字段，任意类型都以 JSON 文本存储
type jsonHandler struct {
	typ reflect.Type
}

func (jsonHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Has("json")
}

func (jsonHandler) SQLType() string { return "TEXT" }

func (h jsonHandler) Bind(fd FieldDescriptor) Handler {
	h.typ = fd.Type
	return h
}

func (h jsonHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	if h.typ != nil && reflect.TypeOf(value) != h.typ {
		return errs.NewErrMismatchedType(h.typ.String(), value)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return stmt.Set(index, string(data))
}

func (h jsonHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	s, null, err := conn.String(rs, column)
	if err != nil {
		return nil, err
	}
	if h.typ == nil {
		var res any
		if null {
			return res, nil
		}
		err = json.Unmarshal([]byte(s), &res)
		return res, err
	}
	ptr := reflect.New(h.typ)
	if !null {
		if err = json.Unmarshal([]byte(s), ptr.Interface()); err != nil {
			return nil, err
		}
	}
	return ptr.Elem().Interface(), nil
}

// valuerHandler 处理同时实现了 driver.Valuer 和 sql.Scanner（指针接收者）的类型
// 例如 sql.NullString
type valuerHandler struct {
	typ reflect.Type
}

func (valuerHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Type.Implements(typeValuer) && reflect.PointerTo(fd.Type).Implements(typeScanner)
}

func (valuerHandler) SQLType() string { return "TEXT" }

func (h valuerHandler) Bind(fd FieldDescriptor) Handler {
	h.typ = fd.Type
	return h
}

func (h valuerHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	v, ok := value.(driver.Valuer)
	if !ok || (h.typ != nil && reflect.TypeOf(value) != h.typ) {
		want := "driver.Valuer"
		if h.typ != nil {
			want = h.typ.String()
		}
		return errs.NewErrMismatchedType(want, value)
	}
	dv, err := v.Value()
	if err != nil {
		return err
	}
	return stmt.Set(index, dv)
}

func (h valuerHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	raw, err := rs.Value(column)
	if err != nil {
		return nil, err
	}
	if h.typ == nil {
		return raw, nil
	}
	ptr := reflect.New(h.typ)
	if err = ptr.Interface().(sql.Scanner).Scan(raw); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// pointerHandler 把指针字段当作可以为 NULL 的列
// 真正的转换交给元素类型的 handler
type pointerHandler struct {
	r     *Registry
	typ   reflect.Type
	inner Handler
}

func (h pointerHandler) Accepts(fd FieldDescriptor) bool {
	if fd.Type.Kind() != reflect.Pointer {
		return false
	}
	return h.r.lookup(h.elem(fd)) != nil
}

func (h pointerHandler) elem(fd FieldDescriptor) FieldDescriptor {
	return FieldDescriptor{Name: fd.Name, Type: fd.Type.Elem(), Options: fd.Options}
}

func (h pointerHandler) SQLType() string {
	if h.inner != nil {
		return h.inner.SQLType()
	}
	return "TEXT"
}

func (h pointerHandler) Bind(fd FieldDescriptor) Handler {
	inner, err := h.r.Get(h.elem(fd))
	if err != nil {
		// Accepts 已经确认过元素类型有 handler
		return h
	}
	h.typ = fd.Type
	h.inner = inner
	return h
}

func (h pointerHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		if h.typ != nil && rv.IsValid() && rv.Type() != h.typ {
			return errs.NewErrMismatchedType(h.typ.String(), value)
		}
		return stmt.Set(index, nil)
	}
	if rv.Kind() != reflect.Pointer || (h.typ != nil && rv.Type() != h.typ) {
		want := "pointer"
		if h.typ != nil {
			want = h.typ.String()
		}
		return errs.NewErrMismatchedType(want, value)
	}
	inner := h.inner
	if inner == nil {
		var err error
		inner, err = h.r.Get(FieldDescriptor{Type: rv.Type().Elem()})
		if err != nil {
			return err
		}
	}
	return inner.Contribute(stmt, rv.Elem().Interface(), index)
}

func (h pointerHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	raw, err := rs.Value(column)
	if err != nil {
		return nil, err
	}
	if h.inner == nil {
		return raw, nil
	}
	if raw == nil {
		return reflect.Zero(h.typ).Interface(), nil
	}
	v, err := h.inner.Extract(rs, column)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(h.typ.Elem())
	ptr.Elem().Set(reflect.ValueOf(v))
	return ptr.Interface(), nil
}
