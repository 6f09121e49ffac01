package orm

import (
	"context"
)

type Deleter[T any] struct {
	builder

	table string
	where []Condition
	sess  Session
}

func NewDeleter[T any](sess Session) *Deleter[T] {
	return &Deleter[T]{
		builder: newBuilder(sess.getCore()),
		sess:    sess,
	}
}

// From sets the table for the Deleter and returns a pointer to the Deleter.
func (d *Deleter[T]) From(table string) *Deleter[T] {
	d.table = table
	return d
}

// Where 没有条件的时候删除全部数据
func (d *Deleter[T]) Where(cs ...Condition) *Deleter[T] {
	d.where = cs
	return d
}

// Build generates a DELETE query based on the provided parameters.
func (d *Deleter[T]) Build() (*Query, error) {
	if err := d.build(); err != nil {
		return nil, err
	}
	stmt, err := d.statement(d.detached())
	if err != nil {
		return nil, err
	}
	return d.query(stmt), nil
}

func (d *Deleter[T]) build() error {
	var err error
	d.reset()
	// 从缓存中读取model
	d.model, err = d.r.Get(new(T))
	if err != nil {
		return err
	}

	d.sb.WriteString("DELETE FROM ")
	// If the table name is not provided, use the name of the T struct.
	if d.table == "" {
		d.quote(d.model.TableName)
	} else {
		d.sb.WriteString(d.table)
	}

	if where := conditions(d.where); !where.IsEmpty() {
		d.sb.WriteString(" WHERE ")
		d.buildCondition(where)
	}
	d.sb.WriteByte(';')
	return nil
}

func (d *Deleter[T]) Exec(ctx context.Context) Result {
	if err := d.build(); err != nil {
		return Result{err: err}
	}
	return execResult(ctx, d.sess, &d.builder, "DELETE", new(T))
}

// execResult 执行已经构造好的写语句，整张表的行缓存失效
func execResult(ctx context.Context, sess Session, b *builder, typ string, val any) Result {
	res, err := withExec(ctx, sess, func(ec *ExecContext) (Result, error) {
		mp, err := ec.core.mappingOf(val)
		if err != nil {
			return Result{}, err
		}
		res, err := ec.execBuilder(b, typ, mp)
		return Result{res: res, err: err}, err
	})
	if err != nil {
		return Result{err: err}
	}
	return res
}
