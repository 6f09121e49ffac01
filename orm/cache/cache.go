// Package cache 行缓存。按 (表名, id) 缓存一行原始数据，
// 按 id 加载的时候先查缓存，写操作之后对应的行或者整张表失效
package cache

import (
	"bytes"
	"context"

	"github.com/google/uuid"
)

// Row 一行原始数据，Columns 和 Values 一一对应
type Row struct {
	Columns []string `msgpack:"c"`
	Values  []any    `msgpack:"v"`
}

// Clone 深拷贝，[]byte 也会被复制一份，空的 []byte 仍然不是 nil
func (r Row) Clone() Row {
	res := Row{
		Columns: append([]string(nil), r.Columns...),
		Values:  make([]any, len(r.Values)),
	}
	for i, v := range r.Values {
		if bs, ok := v.([]byte); ok {
			v = bytes.Clone(bs)
		}
		res.Values[i] = v
	}
	return res
}

// RowCache 所有实现都必须是并发安全的
type RowCache interface {
	// Get 第二个返回值为 false 代表缓存未命中
	Get(ctx context.Context, table string, id uuid.UUID) (Row, bool, error)
	Set(ctx context.Context, table string, id uuid.UUID, row Row) error
	Delete(ctx context.Context, table string, id uuid.UUID) error
	// Invalidate 整张表失效，例如 UPDATE 或者 DELETE 之后
	Invalidate(ctx context.Context, table string) error
}
