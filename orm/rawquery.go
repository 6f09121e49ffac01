package orm

import (
	"context"
)

// RawQuerier 执行原生 SQL，结果按列名映射到 T 上
type RawQuerier[T any] struct {
	builder
	sess Session
	sql  string
	args []any
}

// RawQuery 创建一个 RawQuerier 实例
// 泛型参数 T 是目标类型。
// 例如，如果查询 User 的数据，那么 T 就是 User
func RawQuery[T any](sess Session, query string, args ...any) *RawQuerier[T] {
	return &RawQuerier[T]{
		builder: newBuilder(sess.getCore()),
		sess:    sess,
		sql:     query,
		args:    args,
	}
}

func (r *RawQuerier[T]) build() error {
	var err error
	r.reset()
	// 获取 model 在中间件中使用
	r.model, err = r.r.Get(new(T))
	if err != nil {
		return err
	}
	r.sb.WriteString(r.sql)
	r.addArgs(r.args...)
	return nil
}

func (r *RawQuerier[T]) Build() (*Query, error) {
	if err := r.build(); err != nil {
		return nil, err
	}
	stmt, err := r.statement(r.detached())
	if err != nil {
		return nil, err
	}
	return r.query(stmt), nil
}

// Exec 执行之后 T 对应的表的行缓存全部失效
func (r *RawQuerier[T]) Exec(ctx context.Context) Result {
	if err := r.build(); err != nil {
		return Result{err: err}
	}
	return execResult(ctx, r.sess, &r.builder, "RAW", new(T))
}

func (r *RawQuerier[T]) Get(ctx context.Context) (*T, error) {
	res, err := r.GetMulti(ctx)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNoRows
	}
	return res[0], nil
}

func (r *RawQuerier[T]) GetMulti(ctx context.Context) ([]*T, error) {
	if err := r.build(); err != nil {
		return nil, err
	}
	return withExec(ctx, r.sess, func(ec *ExecContext) ([]*T, error) {
		mp, err := ec.core.mappingOf(new(T))
		if err != nil {
			return nil, err
		}
		return queryInstances[T](ec, &r.builder, "RAW", mp)
	})
}

// queryInstances 执行查询，每一行映射成一个 T
func queryInstances[T any](ec *ExecContext, b *builder, typ string, mp *mapping) ([]*T, error) {
	stmt, err := b.statement(ec)
	if err != nil {
		return nil, err
	}
	rs, err := ec.query(typ, mp.m, stmt)
	if err != nil {
		return nil, err
	}
	var res []*T
	for rs.Next() {
		instance, err := ec.instanceFor(mp, rs)
		if err != nil {
			return nil, err
		}
		if _, err = mp.reader.Contribute(instance, rs, ec); err != nil {
			return nil, err
		}
		res = append(res, instance.(*T))
	}
	return res, nil
}
