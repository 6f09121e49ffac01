package orm

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeleter_Build(t *testing.T) {
	db, _ := mockDB(t)
	id := uuid.MustParse("0b9f4a9e-3f57-4f0e-8c3a-2d1b7f0b1c01")

	testCases := []struct {
		name      string
		builder   QueryBuilder
		wantErr   error
		wantQuery *Query
	}{
		{
			name:    "no where",
			builder: NewDeleter[TestModel](db),
			wantQuery: &Query{
				SQL: "DELETE FROM `test_model`;",
			},
		},
		{
			name:    "where",
			builder: NewDeleter[TestModel](db).Where(C("id").EQ(id)),
			wantQuery: &Query{
				SQL:  "DELETE FROM `test_model` WHERE id = ?;",
				Args: []any{id.String()},
			},
		},
		{
			name:    "from",
			builder: NewDeleter[TestModel](db).From("`test_model_v2`").Where(C("age").LT(16)),
			wantQuery: &Query{
				SQL:  "DELETE FROM `test_model_v2` WHERE age < ?;",
				Args: []any{int64(16)},
			},
		},
		{
			name:    "multiple where",
			builder: NewDeleter[TestModel](db).Where(C("age").LT(16), C("first_name").EQ("Tom")),
			wantQuery: &Query{
				SQL:  "DELETE FROM `test_model` WHERE age < ? AND (first_name = ?);",
				Args: []any{int64(16), "Tom"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query, err := tc.builder.Build()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantQuery, query)
		})
	}
}

func TestDeleter_Exec(t *testing.T) {
	testCases := []struct {
		name     string
		mock     func(mock sqlmock.Sqlmock)
		wantErr  error
		affected int64
	}{
		{
			name: "exec error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM .*").WillReturnError(errors.New("exec error"))
			},
			wantErr: errors.New("exec error"),
		},
		{
			name: "deleted",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM `test_model` WHERE age < \\?;").
					WithArgs(int64(16)).
					WillReturnResult(sqlmock.NewResult(0, 3))
			},
			affected: 3,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := mockDB(t)
			tc.mock(mock)
			affected, err := Delete[TestModel](context.Background(), db, C("age").LT(16))
			assert.Equal(t, tc.wantErr, err)
			assert.Equal(t, tc.affected, affected)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
