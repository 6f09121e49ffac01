package conn

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/rowkit/orm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCatalog struct {
	database string
}

func (testCatalog) TablesQuery() string {
	return "SHOW TABLES"
}

func (c testCatalog) DatabaseQuery() string {
	return c.database
}

func TestSQLConn_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .*").
		WithArgs(int64(18)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow([]byte("1"), []byte("Tom")).
			AddRow([]byte("2"), []byte("Jerry")))

	c := New(db, testCatalog{}, nil)
	stmt := NewStatement("SELECT * FROM `user` WHERE `age` > ?")
	require.NoError(t, stmt.Set(1, int64(18)))
	rs, err := c.Query(context.Background(), stmt)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, rs.Columns())

	var names []string
	for rs.Next() {
		name, _, err := String(rs, 2)
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"Tom", "Jerry"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConn_UnboundStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	c := New(db, testCatalog{}, nil)
	_, err = c.Exec(context.Background(), NewStatement("DELETE FROM t WHERE id = ?"))
	assert.ErrorIs(t, err, errs.ErrUnboundParameter)
	_, err = c.Query(context.Background(), NewStatement("SELECT * FROM t WHERE id = ?"))
	assert.ErrorIs(t, err, errs.ErrUnboundParameter)
	// 没有执行任何语句
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConn_Tables(t *testing.T) {
	testCases := []struct {
		name     string
		catalog  testCatalog
		mock     func(mock sqlmock.Sqlmock)
		want     []string
		wantErr  error
		table    string
		wantHave bool
	}{
		{
			name:    "sqlite style",
			catalog: testCatalog{},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SHOW TABLES").
					WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("user").AddRow("order"))
			},
			want:     []string{"user", "order"},
			table:    "USER",
			wantHave: true,
		},
		{
			name:    "mysql style",
			catalog: testCatalog{database: "SELECT DATABASE()"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT DATABASE()").
					WillReturnRows(sqlmock.NewRows([]string{"db"}).AddRow("rowkit"))
				mock.ExpectQuery("SHOW TABLES").
					WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("user"))
			},
			want:     []string{"user"},
			table:    "order",
			wantHave: false,
		},
		{
			name:    "null database",
			catalog: testCatalog{database: "SELECT DATABASE()"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT DATABASE()").
					WillReturnRows(sqlmock.NewRows([]string{"db"}).AddRow(nil))
			},
			wantErr: errs.ErrNullDatabase,
			table:   "user",
		},
		{
			name:    "null table",
			catalog: testCatalog{},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SHOW TABLES").
					WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow(nil))
			},
			wantErr: errs.ErrNullTable,
			table:   "user",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tc.mock(mock)
			// TableExists 会再查询一次
			tc.mock(mock)

			c := New(db, tc.catalog, nil)
			tables, err := c.Tables(context.Background())
			assert.ErrorIs(t, err, tc.wantErr)
			if err != nil {
				return
			}
			assert.Equal(t, tc.want, tables)

			ok, err := c.TableExists(context.Background(), tc.table)
			require.NoError(t, err)
			assert.Equal(t, tc.wantHave, ok)
		})
	}
}

func TestSQLConn_TableExistsEmptyName(t *testing.T) {
	c := New(nil, testCatalog{}, nil)
	_, err := c.TableExists(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrNullTable)
}

func TestSQLConn_Close(t *testing.T) {
	cnt := 0
	c := New(nil, testCatalog{}, func() error {
		cnt++
		return errors.New("released")
	})
	assert.EqualError(t, c.Close(), "released")
	assert.NoError(t, c.Close())
	assert.Equal(t, 1, cnt)
}
