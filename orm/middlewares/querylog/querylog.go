package querylog

import (
	"context"
	"log/slog"

	"github.com/coderi421/rowkit/orm"
)

// MiddlewareBuilder 在执行之前输出 SQL 和参数
// 参数是经过 column handler 转换之后的值，也就是真正交给 driver 的值
type MiddlewareBuilder struct {
	logFunc func(query string, args []any)
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

// LogFunc 不设置的时候使用 slog.Default() 的 Debug 级别
func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	logFunc := m.logFunc
	if logFunc == nil {
		logFunc = func(query string, args []any) {
			slog.Debug("orm: query", slog.String("sql", query), slog.Any("args", args))
		}
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			q, err := qc.Builder.Build()
			if err != nil {
				return &orm.QueryResult{Err: err}
			}
			logFunc(q.SQL, q.Args)
			return next(ctx, qc)
		}
	}
}
