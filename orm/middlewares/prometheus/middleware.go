package prometheus

import (
	"context"
	"time"

	"github.com/coderi421/rowkit/orm"
	"github.com/prometheus/client_golang/prometheus"
)

// MiddlewareBuilder 按查询类型和表名统计执行时间，单位是微秒
type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	// Registerer 为 nil 的时候注册到 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	vector := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      m.Name,
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      m.Help,
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,  // 99 线
			0.999: 0.0001, // 999 线
		},
	}, []string{"type", "table"})

	reg := m.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(vector)

	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			startTime := time.Now()
			defer func() {
				table := "unknown"
				if qc.Model != nil {
					table = qc.Model.TableName
				}
				vector.WithLabelValues(qc.Type, table).
					Observe(float64(time.Since(startTime).Microseconds()))
			}()
			return next(ctx, qc)
		}
	}
}
