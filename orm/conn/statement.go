package conn

import (
	"fmt"

	"github.com/coderi421/rowkit/orm/internal/errs"
)

// Statement 是一条待执行的参数化 SQL
// 参数按位置绑定，位置从 1 开始，和 JDBC 风格的 PreparedStatement 一致
type Statement struct {
	sql  string
	args []any
	// set 记录每个位置是否已经绑定，避免执行一个只写了一半的 statement
	set []bool
}

func NewStatement(query string) *Statement {
	return &Statement{sql: query}
}

func (s *Statement) SQL() string {
	return s.sql
}

// Set binds val at the 1-based position index. Positions may be bound in any order.
func (s *Statement) Set(index int, val any) error {
	if index < 1 {
		return fmt.Errorf("orm: invalid parameter index %d", index)
	}
	for len(s.args) < index {
		s.args = append(s.args, nil)
		s.set = append(s.set, false)
	}
	s.args[index-1] = val
	s.set[index-1] = true
	return nil
}

// Args returns a copy of the bound values in positional order.
func (s *Statement) Args() []any {
	if len(s.args) == 0 {
		return nil
	}
	res := make([]any, len(s.args))
	copy(res, s.args)
	return res
}

// Validate reports an error unless every placeholder of the SQL text is bound
// and nothing is bound past the last placeholder.
func (s *Statement) Validate() error {
	n := CountPlaceholders(s.sql)
	if len(s.args) > n {
		return fmt.Errorf("%w: %d values for %d placeholders", errs.ErrUnboundParameter, len(s.args), n)
	}
	for i := 0; i < n; i++ {
		if i >= len(s.set) || !s.set[i] {
			return errs.NewErrUnboundParameter(i + 1)
		}
	}
	return nil
}

// CountPlaceholders counts the `?` markers of query, skipping quoted
// strings and quoted identifiers.
func CountPlaceholders(query string) int {
	var (
		cnt   int
		quote rune
	)
	for _, c := range query {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			cnt++
		}
	}
	return cnt
}
