package orm

import (
	"context"

	"github.com/coderi421/rowkit/orm/internal/errs"
)

// Selector represents a query selector that allows building SQL SELECT statements.
type Selector[T any] struct {
	// select delete update insert 都需要使用
	builder

	table   string      // table is the name of the table to select from.
	where   []Condition // where holds the WHERE conditions for the query.
	having  []Condition
	columns []Selectable
	groupBy []Column
	orderBy []OrderBy
	offset  int
	limit   int

	sess Session
}

// NewSelector creates a new instance of Selector.
func NewSelector[T any](sess Session) *Selector[T] {
	return &Selector[T]{
		builder: newBuilder(sess.getCore()),
		sess:    sess,
	}
}

// Select 检索指定 column，默认检索全部列
func (s *Selector[T]) Select(cols ...Selectable) *Selector[T] {
	s.columns = cols
	return s
}

// From sets the table name for the selector.
// 这里没有处理 添加`符号，让用户自己应该名字自己在做什么
func (s *Selector[T]) From(tbl string) *Selector[T] {
	s.table = tbl
	return s
}

// Where 用于构造 WHERE 查询条件。如果 cs 长度为 0，那么不会构造 WHERE 部分
// 多个条件用 AND 连接
func (s *Selector[T]) Where(cs ...Condition) *Selector[T] {
	s.where = cs
	return s
}

func (s *Selector[T]) GroupBy(cols ...Column) *Selector[T] {
	s.groupBy = cols
	return s
}

func (s *Selector[T]) Having(cs ...Condition) *Selector[T] {
	s.having = cs
	return s
}

func (s *Selector[T]) Offset(offset int) *Selector[T] {
	s.offset = offset
	return s
}

func (s *Selector[T]) Limit(limit int) *Selector[T] {
	s.limit = limit
	return s
}

func (s *Selector[T]) OrderBy(orderBys ...OrderBy) *Selector[T] {
	s.orderBy = orderBys
	return s
}

// Build generates the SELECT statement. Args are converted by the column handlers.
func (s *Selector[T]) Build() (*Query, error) {
	if err := s.build(); err != nil {
		return nil, err
	}
	stmt, err := s.statement(s.detached())
	if err != nil {
		return nil, err
	}
	return s.query(stmt), nil
}

func (s *Selector[T]) build() error {
	var err error
	s.reset()
	s.model, err = s.r.Get(new(T))
	if err != nil {
		return err
	}

	s.sb.WriteString("SELECT ")
	if err = s.buildColumns(); err != nil {
		return err
	}
	s.sb.WriteString(" FROM ")
	if s.table == "" {
		s.quote(s.model.TableName)
	} else {
		s.sb.WriteString(s.table)
	}

	// 类似这种可有可无的部分，都要在前面加一个空格
	if where := conditions(s.where); !where.IsEmpty() {
		s.sb.WriteString(" WHERE ")
		s.buildCondition(where)
	}

	if len(s.groupBy) > 0 {
		s.sb.WriteString(" GROUP BY ")
		for i, c := range s.groupBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			if err = s.buildColumn(c.name); err != nil {
				return err
			}
		}
	}

	if having := conditions(s.having); !having.IsEmpty() {
		s.sb.WriteString(" HAVING ")
		s.buildCondition(having)
	}

	if len(s.orderBy) > 0 {
		s.sb.WriteString(" ORDER BY ")
		for i, ob := range s.orderBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			if err = s.buildColumn(ob.col); err != nil {
				return err
			}
			s.sb.WriteByte(' ')
			s.sb.WriteString(ob.order)
		}
	}

	// 分页
	if s.limit > 0 {
		s.sb.WriteString(" LIMIT ?")
		s.addArgs(s.limit)
	}
	if s.offset > 0 {
		s.sb.WriteString(" OFFSET ?")
		s.addArgs(s.offset)
	}

	s.sb.WriteByte(';')
	return nil
}

func (s *Selector[T]) buildColumns() error {
	if len(s.columns) == 0 {
		s.sb.WriteByte('*')
		return nil
	}

	for i, c := range s.columns {
		if i > 0 {
			s.sb.WriteByte(',')
		}
		switch val := c.(type) {
		case Column:
			if err := s.buildColumn(val.name); err != nil {
				return err
			}
			s.buildAs(val.alias)
		case Aggregate:
			if err := s.buildExpression(val); err != nil {
				return err
			}
			s.buildAs(val.alias)
		case RawExpr:
			s.sb.WriteString(val.raw)
			s.addArgs(val.args...)
		default:
			return errs.NewErrUnsupportedSelectable(c)
		}
	}
	return nil
}

// Get 根据拼接成的 sql 文，到 db 中获取数据
// 返回的对象里面引用字段已经解析好了
func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	res, err := s.Limit(1).GetMulti(ctx)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNoRows
	}
	return res[0], nil
}

func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	if err := s.build(); err != nil {
		return nil, err
	}
	return withExec(ctx, s.sess, func(ec *ExecContext) ([]*T, error) {
		mp, err := ec.core.mappingOf(new(T))
		if err != nil {
			return nil, err
		}
		return queryInstances[T](ec, &s.builder, "SELECT", mp)
	})
}

// Selectable 暂时没什么作用只是用作标记，可检索指定字段的标记
// 使用接口为的是：让 聚合函数， columns， 以及 RawExpr（原生sql） 都能作为参数传入统一个函数，做统一处理
type Selectable interface {
	selectable()
}

type OrderBy struct {
	col   string
	order string
}

func ASC(col string) OrderBy {
	return OrderBy{
		col:   col,
		order: "ASC",
	}
}

func Desc(col string) OrderBy {
	return OrderBy{
		col:   col,
		order: "DESC",
	}
}
