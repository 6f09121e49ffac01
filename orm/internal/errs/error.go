package errs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrPointerOnly 只支持一级指针作为输入
	// 看到这个 error 说明你输入了其它的东西
	// 我们并不希望用户能够直接使用 err == ErrPointerOnly
	// 所以放在我们的 internal 包里
	ErrPointerOnly = errors.New("orm: 只支持一级指针作为输入，例如 *User")

	// ErrNoRows 代表没有找到数据
	ErrNoRows = errors.New("orm: 未找到数据")

	ErrInsertZeroRow          = errors.New("orm: 插入 0 行")
	ErrNoUpdatedColumns       = errors.New("orm: 未指定更新的列")
	ErrTooManyReturnedColumns = errors.New("orm: 过多列")

	// ErrNoHandlerFound 没有任何 column handler 接受这个字段的类型
	ErrNoHandlerFound = errors.New("orm: no column handler found")
	// ErrIncompleteRecord 在 record 冻结之前读取了尚未填充的字段
	ErrIncompleteRecord = errors.New("orm: incomplete record")
	// ErrRecordFrozen record 已经冻结，不能再修改
	ErrRecordFrozen = errors.New("orm: record already frozen")
	// ErrMismatchedType 值的运行时类型和列声明的类型不一致
	ErrMismatchedType = errors.New("orm: mismatched type")
	// ErrUnboundParameter statement 中有占位符没有绑定参数
	ErrUnboundParameter = errors.New("orm: unbound statement parameter")

	ErrDuplicateTable = errors.New("orm: duplicate table")
	ErrNullTable      = errors.New("orm: null table")
	ErrNullDatabase   = errors.New("orm: null database")
)

// NewErrUnknownField 返回代表未知字段的错误
// 一般意味着你可能输入的是列名，或者输入了错误的字段名
func NewErrUnknownField(name string) error {
	return fmt.Errorf("orm: 未知字段 %s", name)
}

// NewErrUnknownColumn 返回代表未知列的错误
// 一般意味着你使用了错误的列名
// 注意和 NewErrUnknownField 区别
func NewErrUnknownColumn(name string) error {
	return fmt.Errorf("orm: 未知列 %s", name)
}

// NewErrUnsupportedExpressionType 返回一个不支持该 expression 错误信息
func NewErrUnsupportedExpressionType(exp any) error {
	return fmt.Errorf("orm: 不支持的表达式 %v", exp)
}

// NewErrUnsupportedSelectable 返回一个不支持该 selectable 的错误信息
func NewErrUnsupportedSelectable(exp any) error {
	return fmt.Errorf("orm: 不支持的目标列 %v", exp)
}

// NewErrUnsupportedAssignableType 不支持的 Assignable 表达式
func NewErrUnsupportedAssignableType(exp any) error {
	return fmt.Errorf("orm: 不支持的 Assignable 表达式 %v", exp)
}

// NewErrInvalidTagContent 返回一个解析 tag 失败的错误
func NewErrInvalidTagContent(tag string) error {
	return fmt.Errorf("orm: 错误的标签设置: %s", tag)
}

// NewErrNoHandlerFound wraps ErrNoHandlerFound with the offending field.
func NewErrNoHandlerFound(field string, typ reflect.Type) error {
	return fmt.Errorf("%w: field %s of type %v", ErrNoHandlerFound, field, typ)
}

// NewErrMismatchedType wraps ErrMismatchedType. want is the handler's type, got the value's.
func NewErrMismatchedType(want string, got any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrMismatchedType, want, got)
}

func NewErrIncompleteRecord(missing string) error {
	return fmt.Errorf("%w: %s not populated", ErrIncompleteRecord, missing)
}

func NewErrUnboundParameter(index int) error {
	return fmt.Errorf("%w: position %d", ErrUnboundParameter, index)
}

func NewErrDuplicateTable(table string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateTable, table)
}

func NewErrNoRows(table string, id any) error {
	return fmt.Errorf("%w: %s id=%v", ErrNoRows, table, id)
}
