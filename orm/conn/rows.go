package conn

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
)

var errNoCurrentRow = errors.New("orm: result set is not positioned on a row")

// ResultSet 结果集的抽象，只支持向前移动的游标
// 列下标从 1 开始
type ResultSet interface {
	Columns() []string
	Next() bool
	// Value 返回当前行第 column 列的原始值，SQL NULL 对应 nil
	Value(column int) (any, error)
}

var _ ResultSet = &Rows{}

// Rows 是已经全部读入内存的结果集
// 读完之后底层的 *sql.Rows 已经关闭，所以在遍历的过程中可以继续发起嵌套查询
type Rows struct {
	columns []string
	data    [][]any
	cursor  int
}

// NewRows builds an in-memory result set. Each row of data must have len(columns) values.
func NewRows(columns []string, data [][]any) *Rows {
	return &Rows{
		columns: columns,
		data:    data,
		cursor:  -1,
	}
}

// Drain reads every row of rows into memory and closes it.
func Drain(rows *sql.Rows) (*Rows, error) {
	defer func() { _ = rows.Close() }()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var data [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// driver 可能复用 []byte 的底层数组，这里要拷贝一份
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = bytes.Clone(b)
			}
		}
		data = append(data, vals)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return NewRows(cols, data), nil
}

func (r *Rows) Columns() []string {
	return r.columns
}

func (r *Rows) Next() bool {
	if r.cursor+1 >= len(r.data) {
		r.cursor = len(r.data)
		return false
	}
	r.cursor++
	return true
}

func (r *Rows) Value(column int) (any, error) {
	if r.cursor < 0 || r.cursor >= len(r.data) {
		return nil, errNoCurrentRow
	}
	row := r.data[r.cursor]
	if column < 1 || column > len(row) {
		return nil, fmt.Errorf("orm: column index %d out of range [1,%d]", column, len(row))
	}
	return row[column-1], nil
}

// Len returns the number of buffered rows.
func (r *Rows) Len() int {
	return len(r.data)
}

// Row returns a copy of the current row.
func (r *Rows) Row() []any {
	if r.cursor < 0 || r.cursor >= len(r.data) {
		return nil
	}
	res := make([]any, len(r.data[r.cursor]))
	copy(res, r.data[r.cursor])
	return res
}
