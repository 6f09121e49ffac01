package orm

import (
	"context"
)

var (
	_ Querier[any] = &Selector[any]{}
	_ Querier[any] = &RawQuerier[any]{}

	_ Executor = &Inserter[any]{}
	_ Executor = &Updater[any]{}
	_ Executor = &Deleter[any]{}
	_ Executor = &RawQuerier[any]{}

	_ QueryBuilder = &Selector[any]{}
	_ QueryBuilder = &Inserter[any]{}
	_ QueryBuilder = &Updater[any]{}
	_ QueryBuilder = &Deleter[any]{}
	_ QueryBuilder = &RawQuerier[any]{}
)

// Querier 返回的对象里面引用字段已经全部加载
type Querier[T any] interface {
	// Get 没有数据的时候返回 ErrNoRows
	Get(ctx context.Context) (*T, error)
	GetMulti(ctx context.Context) ([]*T, error)
}

// Executor 执行写语句，执行之后对应的行缓存失效
type Executor interface {
	Exec(ctx context.Context) Result
}

// Query 构造出来的 SQL 和参数
// Args 是已经经过 column handler 转换之后的值，例如 uuid.UUID 会变成字符串
type Query struct {
	SQL  string
	Args []any
}

// QueryBuilder Build 不需要连接，引用字段需要级联插入的时候返回错误
type QueryBuilder interface {
	Build() (*Query, error)
}
