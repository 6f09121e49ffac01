package redis

import (
	"math"
	"testing"
	"time"

	"github.com/coderi421/rowkit/orm/cache"
	"github.com/coderi421/rowkit/orm/conn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	id := uuid.New()
	now := time.Date(2023, 8, 1, 12, 30, 0, 123000000, time.UTC)
	row := cache.Row{
		Columns: []string{"id", "name", "age", "balance", "big", "small", "score", "avatar", "active", "created_at", "note"},
		Values: []any{id.String(), "Tom", int64(18), int64(math.MaxInt64), uint64(math.MaxUint64), int64(math.MinInt64),
			1.5, []byte("png"), true, now, nil},
	}
	data, err := encodeRow(row)
	require.NoError(t, err)
	got, err := decodeRow(data)
	require.NoError(t, err)
	assert.Equal(t, row.Columns, got.Columns)
	require.Len(t, got.Values, len(row.Values))

	// 解码之后的值交给 getter 读取，结果和写入的时候一致
	rs := conn.NewRows(got.Columns, [][]any{got.Values})
	require.True(t, rs.Next())

	s, _, err := conn.String(rs, 1)
	require.NoError(t, err)
	assert.Equal(t, id.String(), s)
	s, _, err = conn.String(rs, 2)
	require.NoError(t, err)
	assert.Equal(t, "Tom", s)

	i, _, err := conn.Int64(rs, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(18), i)
	i, _, err = conn.Int64(rs, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), i)
	u, _, err := conn.Uint64(rs, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), u)
	i, _, err = conn.Int64(rs, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), i)

	f, _, err := conn.Float64(rs, 7)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
	b, _, err := conn.Bytes(rs, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), b)
	ok, _, err := conn.Bool(rs, 9)
	require.NoError(t, err)
	assert.True(t, ok)
	ts, _, err := conn.Time(rs, 10)
	require.NoError(t, err)
	assert.True(t, now.Equal(ts))

	_, null, err := conn.String(rs, 11)
	require.NoError(t, err)
	assert.True(t, null)
}

func TestCodec_Corrupted(t *testing.T) {
	_, err := decodeRow([]byte{0xc1})
	assert.Error(t, err)
}
