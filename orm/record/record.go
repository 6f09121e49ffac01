// Package record holds persisted entities: an immutable id bound to a live value,
// and the Configurable builder used while a row is being read.
package record

import (
	"fmt"
	"reflect"

	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/google/uuid"
)

// Entity 是 Record 的无类型视图，contributor 只依赖这个接口
type Entity interface {
	ID() uuid.UUID
	// Object 返回指向结构体的指针
	Object() any
}

var _ Entity = Record[struct{}]{}

// Record 一个已经持久化的对象
// id 在创建的时候确定，之后不会再改变；value 指向的对象可以被原地修改
type Record[T any] struct {
	id    uuid.UUID
	value *T
}

func New[T any](id uuid.UUID, value *T) Record[T] {
	return Record[T]{id: id, value: value}
}

func (r Record[T]) ID() uuid.UUID {
	return r.id
}

func (r Record[T]) Value() *T {
	return r.value
}

func (r Record[T]) Object() any {
	return r.value
}

// Untyped 是类型在运行时才知道的 Record，例如被引用的对象
type Untyped struct {
	id    uuid.UUID
	value any
}

func NewUntyped(id uuid.UUID, value any) Untyped {
	return Untyped{id: id, value: value}
}

func (u Untyped) ID() uuid.UUID { return u.id }

func (u Untyped) Object() any { return u.value }

// Configurable 是 Record 的构造器
// 状态机：Building -> Frozen，冻结之后不能再回到 Building
type Configurable struct {
	id     uuid.UUID
	hasID  bool
	target reflect.Value
	// required 必须填充的字段，populated 已经填充的字段
	required  []string
	populated map[string]struct{}
	frozen    bool
}

// NewConfigurable starts building a record around target, a pointer to a struct.
// fields lists the Go field names that must be populated before freezing.
func NewConfigurable(target any, fields ...string) (*Configurable, error) {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	return &Configurable{
		target:    rv,
		required:  fields,
		populated: make(map[string]struct{}, len(fields)),
	}, nil
}

func (c *Configurable) Target() any {
	return c.target.Interface()
}

func (c *Configurable) SetID(id uuid.UUID) error {
	if c.frozen {
		return errs.ErrRecordFrozen
	}
	c.id = id
	c.hasID = true
	return nil
}

func (c *Configurable) ID() (uuid.UUID, error) {
	if !c.hasID {
		return uuid.Nil, errs.NewErrIncompleteRecord("id")
	}
	return c.id, nil
}

// Set marks field as populated. The value itself has already been written to
// the target by the caller; fields may be marked in any order.
func (c *Configurable) Set(field string) error {
	if c.frozen {
		return errs.ErrRecordFrozen
	}
	if !c.target.Elem().FieldByName(field).IsValid() {
		return errs.NewErrUnknownField(field)
	}
	c.populated[field] = struct{}{}
	return nil
}

func (c *Configurable) Populated(field string) bool {
	_, ok := c.populated[field]
	return ok
}

// Field reads a populated field of the target.
func (c *Configurable) Field(field string) (any, error) {
	if !c.Populated(field) {
		return nil, errs.NewErrIncompleteRecord(field)
	}
	return c.target.Elem().FieldByName(field).Interface(), nil
}

// Missing returns the required fields not populated yet, in declaration order.
func (c *Configurable) Missing() []string {
	var res []string
	for _, f := range c.required {
		if !c.Populated(f) {
			res = append(res, f)
		}
	}
	return res
}

func (c *Configurable) Frozen() bool {
	return c.frozen
}

// freeze 检查 id 和所有字段都已经填充
func (c *Configurable) freeze() error {
	if c.frozen {
		return nil
	}
	if !c.hasID {
		return errs.NewErrIncompleteRecord("id")
	}
	if missing := c.Missing(); len(missing) > 0 {
		return errs.NewErrIncompleteRecord(fmt.Sprint(missing))
	}
	c.frozen = true
	return nil
}

// Freeze turns c into an immutable Record. T must be the target's struct type.
func Freeze[T any](c *Configurable) (Record[T], error) {
	val, ok := c.Target().(*T)
	if !ok {
		return Record[T]{}, fmt.Errorf("orm: record target is %T, not *%T", c.Target(), *new(T))
	}
	if err := c.freeze(); err != nil {
		return Record[T]{}, err
	}
	return New(c.id, val), nil
}

// FreezeUntyped is Freeze for targets whose type is only known at run time.
func FreezeUntyped(c *Configurable) (Untyped, error) {
	if err := c.freeze(); err != nil {
		return Untyped{}, err
	}
	return NewUntyped(c.id, c.Target()), nil
}
