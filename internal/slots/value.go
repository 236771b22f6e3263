package slots

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a slot variable value: either a string or a number, as written
// in the configuration file. Numbers keep their numeric identity so that
// port detection and file rewrites do not turn 3001 into "3001".
type Value struct {
	str   string
	num   float64
	isNum bool
}

// StringValue wraps a string value.
func StringValue(s string) Value {
	return Value{str: s}
}

// NumberValue wraps a numeric value.
func NumberValue(n float64) Value {
	return Value{num: n, isNum: true}
}

// IntValue wraps an integer value.
func IntValue(n int) Value {
	return NumberValue(float64(n))
}

// IsNumber reports whether the value was declared as a number.
func (v Value) IsNumber() bool {
	return v.isNum
}

// Int returns the value as an int when it is an integral number.
func (v Value) Int() (int, bool) {
	if !v.isNum || v.num != math.Trunc(v.num) || math.IsInf(v.num, 0) {
		return 0, false
	}
	return int(v.num), true
}

// String renders the value the way it is substituted into templates.
// Integral numbers print without a decimal point.
func (v Value) String() string {
	if !v.isNum {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

// native returns the value as a plain Go value for encoders.
func (v Value) native() any {
	if !v.isNum {
		return v.str
	}
	if n, ok := v.Int(); ok {
		return int64(n)
	}
	return v.num
}

// MarshalJSON encodes numbers as JSON numbers and strings as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.native())
}

// valueOf converts a decoded scalar into a Value. The accepted Go types are
// the ones yaml.v3, encoding/json (with UseNumber) and BurntSushi/toml
// produce for scalars.
func valueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return StringValue(x), nil
	case int:
		return IntValue(x), nil
	case int64:
		return NumberValue(float64(x)), nil
	case uint64:
		return NumberValue(float64(x)), nil
	case float64:
		return NumberValue(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %s", x)
		}
		return NumberValue(f), nil
	case bool:
		return StringValue(strconv.FormatBool(x)), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T (want string or number)", raw)
	}
}
