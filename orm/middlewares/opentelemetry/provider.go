package opentelemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ExporterJaeger = "jaeger"
	ExporterZipkin = "zipkin"
)

// NewTracerProvider 根据 exporter 的名字创建 TracerProvider
// endpoint 是 collector 的地址，例如 http://localhost:14268/api/traces
// 调用者负责 Shutdown
func NewTracerProvider(serviceName, exporter, endpoint string) (*sdktrace.TracerProvider, error) {
	var exp sdktrace.SpanExporter
	var err error
	switch exporter {
	case ExporterJaeger:
		exp, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	case ExporterZipkin:
		exp, err = zipkin.New(endpoint)
	default:
		return nil, fmt.Errorf("opentelemetry: 不支持的 exporter %s", exporter)
	}
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}
