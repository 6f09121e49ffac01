package opentelemetry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/coderi421/rowkit/orm"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type TestModel struct {
	ID   uuid.UUID
	Name string
}

func TestMiddlewareBuilder_Build(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	m := MiddlewareBuilder{Tracer: tp.Tracer(instrumentationName)}
	db, err := orm.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "trace.db"),
		orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, orm.CreateTable[TestModel](ctx, db))
	_, err = orm.Insert(ctx, db, &TestModel{Name: "Tom"})
	require.NoError(t, err)
	// 第二次建表失败，span 记录错误
	require.Error(t, orm.CreateTable[TestModel](ctx, db))

	spans := sr.Ended()
	require.Len(t, spans, 3)
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name())
		assert.Equal(t, trace.SpanKindClient, s.SpanKind())
	}
	assert.Equal(t, []string{"CREATE-test_model", "INSERT-test_model", "CREATE-test_model"}, names)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[1].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "INSERT", attrs["db.operation"].AsString())
	assert.Equal(t, "test_model", attrs["db.sql.table"].AsString())
	assert.Equal(t, "INSERT INTO `test_model` (`id`,`name`) VALUES (?,?);", attrs["db.statement"].AsString())
	assert.Equal(t, int64(2), attrs["db.args"].AsInt64())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)

	assert.Equal(t, codes.Error, spans[2].Status().Code)
	assert.NotEmpty(t, spans[2].Events())
}

func TestNewTracerProvider(t *testing.T) {
	testCases := []struct {
		name     string
		exporter string
		endpoint string
		wantErr  bool
	}{
		{
			name:     "zipkin",
			exporter: ExporterZipkin,
			endpoint: "http://localhost:9411/api/v2/spans",
		},
		{
			name:     "jaeger",
			exporter: ExporterJaeger,
			endpoint: "http://localhost:14268/api/traces",
		},
		{
			name:     "unknown",
			exporter: "stdout",
			wantErr:  true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tp, err := NewTracerProvider("rowkit-test", tc.exporter, tc.endpoint)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tp.Tracer(instrumentationName))
			assert.NoError(t, tp.Shutdown(context.Background()))
		})
	}
}
