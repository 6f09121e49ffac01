package orm

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestDialect_TranslateErr(t *testing.T) {
	other := errors.New("connection refused")
	testCases := []struct {
		name    string
		dialect Dialect
		err     error
		wantErr error
		wantIs  error
	}{
		{
			name:    "mysql nil",
			dialect: MySQL,
		},
		{
			name:    "mysql table exists",
			dialect: MySQL,
			err:     &mysql.MySQLError{Number: 1050, Message: "Table 'person' already exists"},
			wantIs:  ErrDuplicateTable,
		},
		{
			name:    "mysql other error",
			dialect: MySQL,
			err:     &mysql.MySQLError{Number: 1146, Message: "Table 'person' doesn't exist"},
			wantErr: &mysql.MySQLError{Number: 1146, Message: "Table 'person' doesn't exist"},
		},
		{
			name:    "sqlite nil",
			dialect: SQLite3,
		},
		{
			name:    "sqlite table exists",
			dialect: SQLite3,
			err:     errors.New("table `person` already exists"),
			wantIs:  ErrDuplicateTable,
		},
		{
			name:    "sqlite other error",
			dialect: SQLite3,
			err:     other,
			wantErr: other,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.dialect.translateErr("person", tc.err)
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
				assert.Contains(t, err.Error(), "person")
				return
			}
			assert.Equal(t, tc.wantErr, err)
		})
	}
}

func TestDialect_Catalog(t *testing.T) {
	assert.Equal(t, "mysql", MySQL.Name())
	assert.Equal(t, "SELECT DATABASE()", MySQL.DatabaseQuery())
	assert.Contains(t, MySQL.TablesQuery(), "information_schema.TABLES")

	assert.Equal(t, "sqlite3", SQLite3.Name())
	// SQLite 没有当前数据库的概念
	assert.Empty(t, SQLite3.DatabaseQuery())
	assert.Contains(t, SQLite3.TablesQuery(), "sqlite_master")
}

func TestDialect_ColumnType(t *testing.T) {
	testCases := []struct {
		name    string
		dialect Dialect
		sqlType string
		want    string
	}{
		{name: "mysql unsigned", dialect: MySQL, sqlType: "BIGINT UNSIGNED", want: "BIGINT UNSIGNED"},
		{name: "sqlite unsigned", dialect: SQLite3, sqlType: "BIGINT UNSIGNED", want: "TEXT"},
		{name: "sqlite signed", dialect: SQLite3, sqlType: "BIGINT", want: "BIGINT"},
		{name: "sqlite custom", dialect: SQLite3, sqlType: "VARCHAR(64)", want: "VARCHAR(64)"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.dialect.columnType(tc.sqlType))
		})
	}
}
