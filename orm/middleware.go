package orm

import (
	"context"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/model"
)

// QueryContext 中间件的上下文
// 冗余了 Builder, Model 等，是因为还没有执行 sql 前，有的中间件需要使用这些信息
type QueryContext struct {
	// Type 声明查询类型。即 SELECT, UPDATE, DELETE, INSERT, CREATE 和 RAW
	Type string

	// Builder 构造出来的 Query 和即将执行的 statement 完全一致
	Builder QueryBuilder
	// qc.Model.TableName 为了有的中间件在拦截时需要 Model 信息
	// 所以需要冗余一份在 middleware 的上下文中，查询元数据的时候为 nil
	Model *model.Model
}

type QueryResult struct {
	// Result 在不同的查询里面，类型是不同的
	// 查询的时候是 conn.ResultSet
	// 其它情况下，它会是 sql.Result
	Result any
	Err    error
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult

// statementBuilder 让已经绑定好参数的 statement 也能在中间件里面被读取
type statementBuilder struct {
	stmt *conn.Statement
}

func (s statementBuilder) Build() (*Query, error) {
	return &Query{
		SQL:  s.stmt.SQL(),
		Args: s.stmt.Args(),
	}, nil
}
