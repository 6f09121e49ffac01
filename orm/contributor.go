package orm

import (
	"errors"
	"reflect"

	"github.com/coderi421/rowkit/orm/conn"
	"github.com/coderi421/rowkit/orm/handler"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/coderi421/rowkit/orm/model"
	"github.com/coderi421/rowkit/orm/record"
	"github.com/google/uuid"
)

// 下面四个接口负责在对象、statement 和结果集之间搬运数据
// 它们都显式接收 ExecContext，解析引用的时候通过它递归加载，不依赖任何全局状态
// 底层 statement 或者结果集的错误原样返回，不会被吞掉

// RecordStatementContributor 把 record 的 id 或者字段写入 stmt，从第 index 个参数开始
type RecordStatementContributor interface {
	Contribute(stmt *conn.Statement, rec record.Entity, index int, ec *ExecContext) (*conn.Statement, error)
}

// ResultInstanceContributor 读取 rs 的当前行，填充 instance
type ResultInstanceContributor interface {
	Contribute(instance any, rs conn.ResultSet, ec *ExecContext) (any, error)
}

// ResultRecordContributor 和 ResultInstanceContributor 一样，只是操作的是还没有冻结的 record
type ResultRecordContributor interface {
	Contribute(cr *record.Configurable, rs conn.ResultSet, ec *ExecContext) (*record.Configurable, error)
}

// WhereStatementContributor 把条件的参数按顺序写入 stmt
type WhereStatementContributor interface {
	Contribute(stmt *conn.Statement, where Condition, ec *ExecContext) (*conn.Statement, error)
}

var (
	_ RecordStatementContributor = idContributor{}
	_ RecordStatementContributor = columnContributor{}
	_ RecordStatementContributor = referenceContributor{}
	_ RecordStatementContributor = rowWriter{}
	_ ResultInstanceContributor  = rowReader{}
	_ ResultRecordContributor    = recordReader{}
	_ WhereStatementContributor  = whereContributor{}
)

// idContributor 写入 record 的 id
type idContributor struct {
	h handler.Handler
}

func (c idContributor) Contribute(stmt *conn.Statement, rec record.Entity, index int, _ *ExecContext) (*conn.Statement, error) {
	if err := c.h.Contribute(stmt, rec.ID(), index); err != nil {
		return nil, err
	}
	return stmt, nil
}

// columnContributor 写入一个普通字段
type columnContributor struct {
	m *model.Model
	f *model.Field
}

func (c columnContributor) Contribute(stmt *conn.Statement, rec record.Entity, index int, ec *ExecContext) (*conn.Statement, error) {
	val := ec.core.valCreator(rec.Object(), c.m).Field(c.f)
	if err := c.f.Handler.Contribute(stmt, val, index); err != nil {
		return nil, err
	}
	return stmt, nil
}

// referenceContributor 写入被引用对象的 id，nil 指针写入 NULL
// 被引用对象还没有 id 的时候先级联插入它
type referenceContributor struct {
	m *model.Model
	f *model.Field
}

func (c referenceContributor) Contribute(stmt *conn.Statement, rec record.Entity, index int, ec *ExecContext) (*conn.Statement, error) {
	ref := ec.core.valCreator(rec.Object(), c.m).Field(c.f)
	if reflect.ValueOf(ref).IsNil() {
		if err := stmt.Set(index, nil); err != nil {
			return nil, err
		}
		return stmt, nil
	}
	mp, err := ec.core.mappingFor(c.f.RefType)
	if err != nil {
		return nil, err
	}
	id, err := ec.referenceID(mp, ref)
	if err != nil {
		return nil, err
	}
	if err = c.f.Handler.Contribute(stmt, id, index); err != nil {
		return nil, err
	}
	return stmt, nil
}

// rowWriter 按照 Model.Table() 的列顺序写入一整行：id 和所有字段
// 每个字段的 contributor 在构造 mapping 的时候就选好了，不会每行重新查找
type rowWriter struct {
	cs []RecordStatementContributor
}

// newRowWriter fields 为 nil 的时候写入全部字段
func newRowWriter(m *model.Model, fields []*model.Field) rowWriter {
	if fields == nil {
		fields = m.Fields
	}
	cs := make([]RecordStatementContributor, 0, len(fields)+1)
	cs = append(cs, idContributor{h: m.IDHandler})
	for _, f := range fields {
		cs = append(cs, fieldContributor(m, f))
	}
	return rowWriter{cs: cs}
}

// fieldContributor 引用字段写入对方的 id，其它字段写入自己的值
func fieldContributor(m *model.Model, f *model.Field) RecordStatementContributor {
	if f.Reference {
		return referenceContributor{m: m, f: f}
	}
	return columnContributor{m: m, f: f}
}

func (w rowWriter) width() int {
	return len(w.cs)
}

func (w rowWriter) Contribute(stmt *conn.Statement, rec record.Entity, index int, ec *ExecContext) (*conn.Statement, error) {
	var err error
	for i, c := range w.cs {
		if stmt, err = c.Contribute(stmt, rec, index+i, ec); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// rowReader 把结果集的当前行写入实例
// 列的顺序不需要和字段的声明顺序一致，按列名匹配
type rowReader struct {
	m *model.Model
}

func (r rowReader) Contribute(instance any, rs conn.ResultSet, ec *ExecContext) (any, error) {
	err := r.read(instance, rs, ec, nil)
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// read 先处理 id 列，在解析任何引用之前把自己放进 ExecContext 的缓存
// 这样引用绕回到自己的时候拿到的是同一个实例
func (r rowReader) read(instance any, rs conn.ResultSet, ec *ExecContext, cr *record.Configurable) error {
	cols := rs.Columns()
	val := ec.core.valCreator(instance, r.m)

	idIdx := -1
	for i, col := range cols {
		if col == r.m.IDColumn {
			idIdx = i
			break
		}
	}
	if idIdx >= 0 {
		raw, err := r.m.IDHandler.Extract(rs, idIdx+1)
		if err != nil {
			return err
		}
		id := raw.(uuid.UUID)
		if r.m.IDField != nil {
			if err = val.SetField(r.m.IDField, id); err != nil {
				return err
			}
		}
		if cr != nil {
			if err = cr.SetID(id); err != nil {
				return err
			}
		}
		if id != uuid.Nil {
			ec.place(r.m, id, instance)
		}
	}

	for i, col := range cols {
		if i == idIdx {
			continue
		}
		f, ok := r.m.ColumnMap[col]
		if !ok {
			return errs.NewErrUnknownColumn(col)
		}
		v, err := r.extract(f, rs, i+1, ec)
		if err != nil {
			return err
		}
		if err = val.SetField(f, v); err != nil {
			return err
		}
		if cr != nil {
			if err = cr.Set(f.GoName); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r rowReader) extract(f *model.Field, rs conn.ResultSet, column int, ec *ExecContext) (any, error) {
	raw, err := f.Handler.Extract(rs, column)
	if err != nil || !f.Reference {
		return raw, err
	}
	id := raw.(uuid.UUID)
	if id == uuid.Nil {
		return nil, nil
	}
	mp, err := ec.core.mappingFor(f.RefType)
	if err != nil {
		return nil, err
	}
	return ec.resolve(mp, id)
}

// recordReader 是 rowReader 的 record 版本，每读一列就标记一个字段
type recordReader struct {
	rowReader
}

func (r recordReader) Contribute(cr *record.Configurable, rs conn.ResultSet, ec *ExecContext) (*record.Configurable, error) {
	if err := r.read(cr.Target(), rs, ec, cr); err != nil {
		return nil, err
	}
	return cr, nil
}

// whereContributor 从 offset+1 开始绑定条件的参数
// 参数的类型有 handler 的时候交给 handler 转换，否则原样交给 driver
type whereContributor struct {
	offset int
}

func (c whereContributor) Contribute(stmt *conn.Statement, where Condition, ec *ExecContext) (*conn.Statement, error) {
	for i, arg := range where.args {
		if err := bindValue(stmt, c.offset+i+1, arg, ec); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func bindValue(stmt *conn.Statement, index int, val any, ec *ExecContext) error {
	if val == nil {
		return stmt.Set(index, nil)
	}
	h, err := ec.core.handlers().Get(handler.FieldDescriptor{Name: "?", Type: reflect.TypeOf(val)})
	if errors.Is(err, errs.ErrNoHandlerFound) {
		return stmt.Set(index, val)
	}
	if err != nil {
		return err
	}
	return h.Contribute(stmt, val, index)
}

// binding 构造 SQL 的时候记录下来，创建 statement 之后再写入的参数
type binding interface {
	// width 占用的占位符个数
	width() int
	bind(stmt *conn.Statement, index int, ec *ExecContext) error
}

type valueBinding struct {
	val any
}

func (v valueBinding) width() int {
	return 1
}

func (v valueBinding) bind(stmt *conn.Statement, index int, ec *ExecContext) error {
	return bindValue(stmt, index, v.val, ec)
}

type whereBinding struct {
	where Condition
}

func (w whereBinding) width() int {
	return len(w.where.args)
}

func (w whereBinding) bind(stmt *conn.Statement, index int, ec *ExecContext) error {
	_, err := whereContributor{offset: index - 1}.Contribute(stmt, w.where, ec)
	return err
}

type recordBinding struct {
	rec record.Entity
	c   RecordStatementContributor
	n   int
}

func (r recordBinding) width() int {
	return r.n
}

func (r recordBinding) bind(stmt *conn.Statement, index int, ec *ExecContext) error {
	_, err := r.c.Contribute(stmt, r.rec, index, ec)
	return err
}
