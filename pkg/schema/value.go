package schema

import (
	"fmt"
	"strconv"

	"github.com/spf13/cast"
)

// Value lists the types a positional argument can be converted to.
type Value interface {
	string | int | int64 | uint | float64 | bool
}

func convert[V Value](raw string) (V, error) {
	var zero V
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		out = raw
	// Integers are always decimal; cast would read "010" as octal and "0x10" as hex.
	case int:
		var n int64
		n, err = strconv.ParseInt(raw, 10, strconv.IntSize)
		out = int(n)
	case int64:
		out, err = strconv.ParseInt(raw, 10, 64)
	case uint:
		var n uint64
		n, err = strconv.ParseUint(raw, 10, strconv.IntSize)
		out = uint(n)
	case float64:
		out, err = cast.ToFloat64E(raw)
	case bool:
		out, err = cast.ToBoolE(raw)
	default:
		return zero, fmt.Errorf("unsupported argument type %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(V), nil
}
