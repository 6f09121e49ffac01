package handler

import (
	"database/sql"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Level int8

type Address struct {
	City string `json:"city"`
}

func TestRegistry_RoundTrip(t *testing.T) {
	id := uuid.New()
	now := time.Date(2023, 8, 1, 12, 30, 0, 0, time.UTC)
	name := "Tom"
	testCases := []struct {
		name    string
		val     any
		opts    map[string]string
		wantSQL string
		// wantArg 写入 statement 之后的值
		wantArg any
	}{
		{name: "uuid", val: id, wantSQL: "CHAR(36)", wantArg: id.String()},
		{name: "time", val: now, wantSQL: "DATETIME", wantArg: now},
		{name: "bytes", val: []byte("abc"), wantSQL: "BLOB", wantArg: []byte("abc")},
		{name: "json", val: Address{City: "Shanghai"}, opts: map[string]string{"json": ""}, wantSQL: "TEXT", wantArg: `{"city":"Shanghai"}`},
		{name: "json slice", val: []string{"a", "b"}, opts: map[string]string{"json": ""}, wantSQL: "TEXT", wantArg: `["a","b"]`},
		{name: "valuer", val: sql.NullString{String: "x", Valid: true}, wantSQL: "TEXT", wantArg: "x"},
		{name: "null valuer", val: sql.NullString{}, wantSQL: "TEXT", wantArg: nil},
		{name: "pointer", val: &name, wantSQL: "TEXT", wantArg: "Tom"},
		{name: "nil pointer", val: (*string)(nil), wantSQL: "TEXT", wantArg: nil},
		{name: "bool", val: true, wantSQL: "BOOLEAN", wantArg: true},
		{name: "int8", val: int8(-8), wantSQL: "BIGINT", wantArg: int64(-8)},
		{name: "int", val: 12, wantSQL: "BIGINT", wantArg: int64(12)},
		{name: "named int", val: Level(3), wantSQL: "BIGINT", wantArg: int64(3)},
		{name: "uint16", val: uint16(16), wantSQL: "BIGINT UNSIGNED", wantArg: int64(16)},
		{name: "max uint64", val: uint64(math.MaxUint64), wantSQL: "BIGINT UNSIGNED", wantArg: "18446744073709551615"},
		{name: "float32", val: float32(1.5), wantSQL: "DOUBLE", wantArg: 1.5},
		{name: "string", val: "Jerry", wantSQL: "TEXT", wantArg: "Jerry"},

		// 边界值
		{name: "empty string", val: "", wantSQL: "TEXT", wantArg: ""},
		{name: "empty bytes", val: []byte{}, wantSQL: "BLOB", wantArg: []byte{}},
		{name: "zero int", val: 0, wantSQL: "BIGINT", wantArg: int64(0)},
		{name: "min int64", val: int64(math.MinInt64), wantSQL: "BIGINT", wantArg: int64(math.MinInt64)},
		{name: "max int64", val: int64(math.MaxInt64), wantSQL: "BIGINT", wantArg: int64(math.MaxInt64)},
		{name: "min int8", val: int8(math.MinInt8), wantSQL: "BIGINT", wantArg: int64(math.MinInt8)},
		{name: "zero uint", val: uint(0), wantSQL: "BIGINT UNSIGNED", wantArg: int64(0)},
		{name: "max int64 as uint64", val: uint64(math.MaxInt64), wantSQL: "BIGINT UNSIGNED", wantArg: int64(math.MaxInt64)},
		{name: "above max int64", val: uint64(math.MaxInt64) + 1, wantSQL: "BIGINT UNSIGNED", wantArg: "9223372036854775808"},
		{name: "zero float", val: 0.0, wantSQL: "DOUBLE", wantArg: 0.0},
		{name: "max float64", val: math.MaxFloat64, wantSQL: "DOUBLE", wantArg: math.MaxFloat64},
		{name: "min float64", val: -math.MaxFloat64, wantSQL: "DOUBLE", wantArg: -math.MaxFloat64},
		{name: "smallest float64", val: math.SmallestNonzeroFloat64, wantSQL: "DOUBLE", wantArg: math.SmallestNonzeroFloat64},
		{name: "false", val: false, wantSQL: "BOOLEAN", wantArg: false},
		{name: "null int", val: sql.NullInt64{}, wantSQL: "TEXT", wantArg: nil},
	}

	r := NewRegistry()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fd := FieldDescriptor{Name: "F", Type: reflect.TypeOf(tc.val), Options: tc.opts}
			h, err := r.Get(fd)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, h.SQLType())

			stmt := conn.NewStatement("?")
			require.NoError(t, h.Contribute(stmt, tc.val, 1))
			assert.Equal(t, []any{tc.wantArg}, stmt.Args())

			rs := conn.NewRows([]string{"f"}, [][]any{{tc.wantArg}})
			require.True(t, rs.Next())
			got, err := h.Extract(rs, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.val, got)
		})
	}
}

func TestRegistry_Boundary(t *testing.T) {
	r := NewRegistry()

	t.Run("overflow", func(t *testing.T) {
		h, err := r.Get(FieldDescriptor{Name: "Age", Type: reflect.TypeOf(int8(0))})
		require.NoError(t, err)
		rs := conn.NewRows([]string{"age"}, [][]any{{int64(300)}})
		require.True(t, rs.Next())
		_, err = h.Extract(rs, 1)
		assert.Error(t, err)
	})

	t.Run("mismatched type", func(t *testing.T) {
		h, err := r.Get(FieldDescriptor{Name: "Age", Type: reflect.TypeOf(int8(0))})
		require.NoError(t, err)
		stmt := conn.NewStatement("?")
		err = h.Contribute(stmt, "18", 1)
		assert.ErrorIs(t, err, errs.ErrMismatchedType)
		// 不能修改 statement
		assert.Nil(t, stmt.Args())

		err = h.Contribute(stmt, int64(18), 1)
		assert.ErrorIs(t, err, errs.ErrMismatchedType)
	})

	t.Run("uuid mismatched", func(t *testing.T) {
		h, err := r.Get(FieldDescriptor{Name: "ID", Type: reflect.TypeOf(uuid.UUID{})})
		require.NoError(t, err)
		err = h.Contribute(conn.NewStatement("?"), "not uuid", 1)
		assert.ErrorIs(t, err, errs.ErrMismatchedType)
	})

	t.Run("null column", func(t *testing.T) {
		h, err := r.Get(FieldDescriptor{Name: "Age", Type: reflect.TypeOf(0)})
		require.NoError(t, err)
		rs := conn.NewRows([]string{"age"}, [][]any{{nil}})
		require.True(t, rs.Next())
		v, err := h.Extract(rs, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	})

	t.Run("uuid from binary", func(t *testing.T) {
		id := uuid.New()
		h, err := r.Get(FieldDescriptor{Name: "ID", Type: reflect.TypeOf(uuid.UUID{})})
		require.NoError(t, err)
		rs := conn.NewRows([]string{"id"}, [][]any{{id[:]}, {[]byte(id.String())}, {nil}})
		for _, want := range []uuid.UUID{id, id, uuid.Nil} {
			require.True(t, rs.Next())
			v, err := h.Extract(rs, 1)
			require.NoError(t, err)
			assert.Equal(t, want, v)
		}
	})

	t.Run("no handler", func(t *testing.T) {
		_, err := r.Get(FieldDescriptor{Name: "Ch", Type: reflect.TypeOf(make(chan int))})
		assert.ErrorIs(t, err, errs.ErrNoHandlerFound)
		_, err = r.Get(FieldDescriptor{Name: "Nil"})
		assert.ErrorIs(t, err, errs.ErrNoHandlerFound)
	})
}

// upperHandler 把字符串转成大写写入，用来验证扩展的优先级
type upperHandler struct{}

func (upperHandler) Accepts(fd FieldDescriptor) bool {
	return fd.Has("upper")
}

func (upperHandler) SQLType() string { return "VARCHAR(255)" }

func (upperHandler) Contribute(stmt *conn.Statement, value any, index int) error {
	s, ok := value.(string)
	if !ok {
		return errs.NewErrMismatchedType("string", value)
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return stmt.Set(index, string(b))
}

func (upperHandler) Extract(rs conn.ResultSet, column int) (any, error) {
	s, _, err := conn.String(rs, column)
	return s, err
}

func TestRegistry_Extensions(t *testing.T) {
	r := NewRegistry(upperHandler{})
	assert.Len(t, r.Handlers(), 12)

	h, err := r.Get(FieldDescriptor{Name: "Name", Type: reflect.TypeOf(""), Options: map[string]string{"upper": ""}})
	require.NoError(t, err)
	assert.Equal(t, "VARCHAR(255)", h.SQLType())
	stmt := conn.NewStatement("?")
	require.NoError(t, h.Contribute(stmt, "tom", 1))
	assert.Equal(t, []any{"TOM"}, stmt.Args())

	// 没有标签的字段仍然使用内置的 handler
	h, err = r.Get(FieldDescriptor{Name: "Name", Type: reflect.TypeOf("")})
	require.NoError(t, err)
	assert.Equal(t, "TEXT", h.SQLType())
}
