package orm

import (
	"log/slog"
	"reflect"

	"github.com/coderi421/rowkit/orm/cache"
	"github.com/coderi421/rowkit/orm/handler"
	"github.com/coderi421/rowkit/orm/internal/valuer"
	"github.com/coderi421/rowkit/orm/model"
	"github.com/gotomicro/ekit/syncx"
)

// core DB 和 Tx 共享的部分，按值传递给各个 builder
type core struct {
	dialect    Dialect
	r          model.Registry // 存储数据库表和 struct 映射关系的实例
	valCreator valuer.Creator // 与DB交互映射的实现
	mdls       []Middleware
	cache      cache.RowCache
	logger     *slog.Logger
	// mappings 每个 Model 只构造一次 contributor
	mappings *syncx.Map[*model.Model, *mapping]
}

// mapping 一个类型的映射表，包括已经选好的 contributor
type mapping struct {
	m      *model.Model
	table  model.Table
	writer rowWriter
	reader rowReader
}

func (c core) handlers() *handler.Registry {
	return c.r.Handlers()
}

// mappingOf val 必须是结构体指针
func (c core) mappingOf(val any) (*mapping, error) {
	m, err := c.r.Get(val)
	if err != nil {
		return nil, err
	}
	if mp, ok := c.mappings.Load(m); ok {
		return mp, nil
	}
	mp := &mapping{
		m:      m,
		table:  m.Table(),
		writer: newRowWriter(m, nil),
		reader: rowReader{m: m},
	}
	c.mappings.Store(m, mp)
	c.logger.Debug("orm: mapping created", slog.String("table", m.TableName), slog.Int("columns", len(mp.table.Columns)))
	return mp, nil
}

// mappingFor typ 是结构体类型，例如引用字段的 RefType
func (c core) mappingFor(typ reflect.Type) (*mapping, error) {
	return c.mappingOf(reflect.New(typ).Interface())
}
