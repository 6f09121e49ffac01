package model

// Column 列名和列类型，值类型，可以直接用 == 比较
type Column struct {
	Name    string
	SQLType string
}

// Table 表名和有序的列
type Table struct {
	Name    string
	Columns []Column
}

// NewTable copies cols so later changes to the caller's slice do not leak in.
func NewTable(name string, cols ...Column) Table {
	cs := make([]Column, len(cols))
	copy(cs, cols)
	return Table{Name: name, Columns: cs}
}

// Equal 比较表名和所有的列（包括顺序）
func (t Table) Equal(o Table) bool {
	if t.Name != o.Name || len(t.Columns) != len(o.Columns) {
		return false
	}
	for i, c := range t.Columns {
		if c != o.Columns[i] {
			return false
		}
	}
	return true
}

// SameName only compares table names. Use it for catalog lookups, where the
// column list of the other side is unknown.
func (t Table) SameName(o Table) bool {
	return t.Name == o.Name
}

func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) ColumnNames() []string {
	res := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		res[i] = c.Name
	}
	return res
}
