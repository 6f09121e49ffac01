// Package handler maps Go field types to SQL column types and converts values
// in both directions. The Registry is the single extension point for new field types.
package handler

import (
	"reflect"
	"sort"
	"strings"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/internal/errs"
	lru "github.com/hashicorp/golang-lru"
)

// FieldDescriptor 描述一个需要持久化的字段
type FieldDescriptor struct {
	// Name 字段名，只用于错误信息
	Name string
	Type reflect.Type
	// Options 是 orm 标签里解析出来的内容，例如 json, type=TEXT
	Options map[string]string
}

// Has reports whether the orm tag carries opt, either as a flag or as a key.
func (fd FieldDescriptor) Has(opt string) bool {
	_, ok := fd.Options[opt]
	return ok
}

// Handler 负责一种字段类型和 SQL 列之间的转换
// Handler 必须是无状态的，除了传进来的 statement 和 result set 不能有任何副作用
type Handler interface {
	// Accepts 是否能够处理这个字段
	Accepts(fd FieldDescriptor) bool
	// SQLType 建表时使用的列类型
	SQLType() string
	// Contribute 把 value 写入 stmt 的第 index 个参数（从 1 开始）
	// value 的类型不对时返回 ErrMismatchedType，并且不会修改 stmt
	Contribute(stmt *conn.Statement, value any, index int) error
	// Extract 从 rs 当前行的第 column 列读出值
	Extract(rs conn.ResultSet, column int) (any, error)
}

// Binder is implemented by handlers whose conversion depends on the exact
// field type. A bound handler's Extract returns values of exactly fd.Type.
type Binder interface {
	Bind(fd FieldDescriptor) Handler
}

const defaultMemoSize = 512

// Registry 按注册顺序查找第一个接受该字段的 Handler
// 创建之后不可修改，可以被多个 goroutine 并发使用
type Registry struct {
	handlers []Handler
	memo     *lru.Cache
}

// NewRegistry returns a registry that consults extensions first, in the given
// order, and then the built-in handlers in this fixed order:
// uuid, time, bytes, json (tagged), valuer/scanner, pointer, bool, int, uint, float, string.
func NewRegistry(extensions ...Handler) *Registry {
	r := &Registry{}
	r.handlers = make([]Handler, 0, len(extensions)+11)
	r.handlers = append(r.handlers, extensions...)
	r.handlers = append(r.handlers,
		uuidHandler{},
		timeHandler{},
		bytesHandler{},
		jsonHandler{},
		valuerHandler{},
		pointerHandler{r: r},
		boolHandler{},
		intHandler{},
		uintHandler{},
		floatHandler{},
		stringHandler{},
	)
	// 只有 size <= 0 的时候才会返回 error
	r.memo, _ = lru.New(defaultMemoSize)
	return r
}

// Handlers returns the lookup order.
func (r *Registry) Handlers() []Handler {
	res := make([]Handler, len(r.handlers))
	copy(res, r.handlers)
	return res
}

type memoKey struct {
	typ  reflect.Type
	opts string
}

// Get returns the first handler accepting fd, bound to fd when it implements Binder.
func (r *Registry) Get(fd FieldDescriptor) (Handler, error) {
	if fd.Type == nil {
		return nil, errs.NewErrNoHandlerFound(fd.Name, fd.Type)
	}
	key := memoKey{typ: fd.Type, opts: optionsKey(fd.Options)}
	if h, ok := r.memo.Get(key); ok {
		return h.(Handler), nil
	}
	h := r.lookup(fd)
	if h == nil {
		return nil, errs.NewErrNoHandlerFound(fd.Name, fd.Type)
	}
	if b, ok := h.(Binder); ok {
		h = b.Bind(fd)
	}
	r.memo.Add(key, h)
	return h, nil
}

func (r *Registry) lookup(fd FieldDescriptor) Handler {
	for _, h := range r.handlers {
		if h.Accepts(fd) {
			return h
		}
	}
	return nil
}

func optionsKey(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k, v := range opts {
		keys = append(keys, k+"="+v)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
