package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the scalar type of a VIF field.
type Kind uint8

const (
	String Kind = iota
	Integer
	Float
	Boolean
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Parse converts wire text into the Go value for the kind: string, int,
// float64 or bool. Booleans are 1/0 on the wire; true/false are accepted.
func (k Kind) Parse(text string) (any, error) {
	switch k {
	case String:
		return text, nil
	case Integer:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", text)
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("invalid float %q", text)
		}
		return f, nil
	case Boolean:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", text)
	}
	return nil, fmt.Errorf("unsupported kind %s", k)
}

// Format renders a Go value as wire text for the kind. Strings are parsed
// first so that the wire form is canonical ("44.80" becomes "44.8" for a
// float field). Numbers decoded from JSON arrive as float64 and are
// accepted for integer fields when they carry no fraction.
func (k Kind) Format(v any) (string, error) {
	switch k {
	case String:
		return formatString(v)
	case Integer:
		n, err := toInt(v)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	case Float:
		f, err := toFloat(v)
		if err != nil {
			return "", err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", fmt.Errorf("invalid float %v", f)
		}
		return FormatFloat(f), nil
	case Boolean:
		b, err := toBool(v)
		if err != nil {
			return "", err
		}
		if b {
			return "1", nil
		}
		return "0", nil
	}
	return "", fmt.Errorf("unsupported kind %s", k)
}

// IsEmpty reports whether wire text holds the zero value of the kind.
// Text that does not parse is not empty.
func (k Kind) IsEmpty(text string) bool {
	if text == "" {
		return true
	}
	switch k {
	case Integer, Float:
		v, err := Float.Parse(text)
		return err == nil && v.(float64) == 0
	case Boolean:
		v, err := k.Parse(text)
		return err == nil && !v.(bool)
	}
	return false
}

// FormatFloat renders f in its shortest decimal form: 15 not 15.0.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case float32:
		return FormatFloat(float64(x)), nil
	case float64:
		return FormatFloat(x), nil
	}
	if n, err := toInt(v); err == nil {
		return strconv.Itoa(n), nil
	}
	return "", fmt.Errorf("cannot use %T as string", v)
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float32:
		return toInt(float64(x))
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("invalid integer %v", x)
		}
		return int(x), nil
	case json.Number:
		return toInt(string(x))
	case string:
		n, err := Integer.Parse(x)
		if err != nil {
			return 0, err
		}
		return n.(int), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot use %T as integer", v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case json.Number:
		return toFloat(string(x))
	case string:
		f, err := Float.Parse(x)
		if err != nil {
			return 0, err
		}
		return f.(float64), nil
	case bool:
		return 0, fmt.Errorf("cannot use bool as float")
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("cannot use %T as float", v)
	}
	return float64(n), nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := Boolean.Parse(x)
		if err != nil {
			return false, err
		}
		return b.(bool), nil
	}
	n, err := toInt(v)
	if err != nil || (n != 0 && n != 1) {
		return false, fmt.Errorf("invalid boolean %v", v)
	}
	return n == 1, nil
}
