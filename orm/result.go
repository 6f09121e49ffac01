package orm

import "database/sql"

// Result 写操作的结果
// 构造语句或者执行失败的时候 err 不为空，这时候所有的方法都直接返回 err
type Result struct {
	err error
	res sql.Result
}

func (r Result) Err() error {
	return r.err
}

// LastInsertId 主键是 uuid，所以大多数时候没有意义，保留给 RawQuery 使用
func (r Result) LastInsertId() (int64, error) {
	return r.value(sql.Result.LastInsertId)
}

func (r Result) RowsAffected() (int64, error) {
	return r.value(sql.Result.RowsAffected)
}

func (r Result) value(fn func(sql.Result) (int64, error)) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.res == nil {
		return 0, nil
	}
	return fn(r.res)
}
