package opentelemetry

import (
	"context"

	"github.com/coderi421/rowkit/orm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/coderi421/rowkit/orm/middlewares/opentelemetry"

// MiddlewareBuilder 每条语句一个 span，嵌套加载的语句是同一个 trace 下面的兄弟 span
type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	tracer := m.Tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			tbl := "unknown"
			if qc.Model != nil {
				tbl = qc.Model.TableName
			}
			spanCtx, span := tracer.Start(ctx, qc.Type+"-"+tbl, trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(attribute.String("db.operation", qc.Type))
			span.SetAttributes(attribute.String("db.sql.table", tbl))
			if q, err := qc.Builder.Build(); err == nil {
				span.SetAttributes(attribute.String("db.statement", q.SQL))
				span.SetAttributes(attribute.Int("db.args", len(q.Args)))
			}

			res := next(spanCtx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
