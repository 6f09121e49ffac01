package conn

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// 下面这些 getter 负责把 driver 返回的原始值转换成 Go 的基本类型
// 不同的 driver 返回的类型不一样，例如 MySQL 几乎全部返回 []byte，
// SQLite 会返回 int64 / float64 / string，缓存里解码出来的可能是 int8 之类的小整数
// 第二个返回值代表该列是否为 NULL

func String(rs ResultSet, column int) (string, bool, error) {
	raw, err := rs.Value(column)
	if err != nil || raw == nil {
		return "", raw == nil, err
	}
	switch v := raw.(type) {
	case string:
		return v, false, nil
	case []byte:
		return string(v), false, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), false, nil
	default:
		return fmt.Sprint(v), false, nil
	}
}

func Bytes(rs ResultSet, column int) ([]byte, bool, error) {
	raw, err := rs.Value(column)
	if err != nil || raw == nil {
		return nil, raw == nil, err
	}
	switch v := raw.(type) {
	case []byte:
		return v, false, nil
	case string:
		return []byte(v), false, nil
	default:
		return nil, false, convertErr(raw, "[]byte")
	}
}

func Int64(rs ResultSet, column int) (int64, bool, error) {
	raw, err := rs.Value(column)
	if err != nil || raw == nil {
		return 0, raw == nil, err
	}
	switch v := raw.(type) {
	case int64:
		return v, false, nil
	case int:
		return int64(v), false, nil
	case int8:
		return int64(v), false, nil
	case int16:
		return int64(v), false, nil
	case int32:
		return int64(v), false, nil
	case uint8:
		return int64(v), false, nil
	case uint16:
		return int64(v), false, nil
	case uint32:
		return int64(v), false, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, false, convertErr(raw, "int64")
		}
		return int64(v), false, nil
	case bool:
		if v {
			return 1, false, nil
		}
		return 0, false, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false, convertErr(raw, "int64")
		}
		return int64(v), false, nil
	case []byte:
		i, e := strconv.ParseInt(string(v), 10, 64)
		return i, false, e
	case string:
		i, e := strconv.ParseInt(v, 10, 64)
		return i, false, e
	default:
		return 0, false, convertErr(raw, "int64")
	}
}

func Uint64(rs ResultSet, column int) (uint64, bool, error) {
	raw, err := rs.Value(column)
	if err != nil || raw == nil {
		return 0, raw == nil, err
	}
	switch v := raw.(type) {
	case uint64:
		return v, false, nil
	case uint:
		return uint64(v), false, nil
	case uint8:
		return uint64(v), false, nil
	case uint16:
		return uint64(v), false, nil
	case uint32:
		return uint64(v), false, nil
	case []byte:
		u, e := strconv.ParseUint(string(v), 10, 64)
		return u, false, e
	case string:
		u, e := strconv.ParseUint(v, 10, 64)
		return u, false, e
	default:
		// 有符号整数，只要不是负数就可以
		i, null, e := Int64(rs, column)
		if e != nil || null {
			return 0, null, e
		}
		if i < 0 {
			return 0, false, convertErr(raw, "uint64")
		}
		return uint64(i), false, nil
	}
}

func Float64(rs ResultSet, column int) (float64, bool, error) {
	raw, err := rs.Value(column)
	if err != nil || raw == nil {
		return 0, raw == nil, err
	}
	switch v := raw.(type) {
	case float64:
		return v, false, nil
	case float32:
		return float64(v), false, nil
	case []byte:
		f, e := strconv.ParseFloat(string(v), 64)
		return f, false, e
	case string:
		f, e := strconv.ParseFloat(v, 64)
		return f, false, e
	case uint64:
		return float64(v), false, nil
	default:
		i, null, e := Int64(rs, column)
		return float64(i), null, e
	}
}

func Bool(rs ResultSet, column int) (bool, bool, error) {
	raw, err := rs.Value(column)
	if err != nil || raw == nil {
		return false, raw == nil, err
	}
	switch v := raw.(type) {
	case bool:
		return v, false, nil
	case []byte:
		b, e := strconv.ParseBool(string(v))
		return b, false, e
	case string:
		b, e := strconv.ParseBool(v)
		return b, false, e
	default:
		i, null, e := Int64(rs, column)
		return i != 0, null, e
	}
}

// timeLayouts 是各个 driver 常见的时间文本格式
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func Time(rs ResultSet, column int) (time.Time, bool, error) {
	raw, err := rs.Value(column)
	if err != nil || raw == nil {
		return time.Time{}, raw == nil, err
	}
	var s string
	switch v := raw.(type) {
	case time.Time:
		return v, false, nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return time.Time{}, false, convertErr(raw, "time.Time")
	}
	for _, layout := range timeLayouts {
		if t, e := time.Parse(layout, s); e == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, convertErr(raw, "time.Time")
}

func convertErr(raw any, want string) error {
	return fmt.Errorf("orm: cannot convert %T (%v) to %s", raw, raw, want)
}
