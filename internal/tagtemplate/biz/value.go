package biz

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ValueType is the declared type of a tag template's value.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeBoolean ValueType = "boolean"
)

// ParseValueType accepts the canonical names plus the `int` and `bool` aliases.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return TypeString, nil
	case "integer", "int":
		return TypeInteger, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	}
	return "", fmt.Errorf("unknown value type %q", s)
}

// Column is the tags table column holding values of this type.
func (t ValueType) Column() string {
	switch t {
	case TypeInteger:
		return "value_integer"
	case TypeBoolean:
		return "value_boolean"
	default:
		return "value_string"
	}
}

// Value is an untagged string | integer | boolean union. On the wire it is a
// bare JSON scalar; the JSON type decides the variant.
type Value struct {
	typ ValueType
	s   string
	i   int64
	b   bool
}

func StringValue(s string) Value { return Value{typ: TypeString, s: s} }
func IntegerValue(i int64) Value { return Value{typ: TypeInteger, i: i} }
func BooleanValue(b bool) Value  { return Value{typ: TypeBoolean, b: b} }
func (v Value) Type() ValueType  { return v.typ }
func (v Value) String() string   { return v.s }
func (v Value) Integer() int64   { return v.i }
func (v Value) Boolean() bool    { return v.b }

// Any returns the Go value to bind into SQL.
func (v Value) Any() any {
	switch v.typ {
	case TypeInteger:
		return v.i
	case TypeBoolean:
		return v.b
	default:
		return v.s
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid tag value %s", data)
	}
	r := gjson.ParseBytes(data)
	switch r.Type {
	case gjson.String:
		*v = StringValue(r.Str)
	case gjson.True, gjson.False:
		*v = BooleanValue(r.Bool())
	case gjson.Number:
		i, err := strconv.ParseInt(r.Raw, 10, 64)
		if err != nil {
			return fmt.Errorf("tag value %s is not a 64-bit integer", r.Raw)
		}
		*v = IntegerValue(i)
	default:
		return fmt.Errorf("tag value must be a string, integer or boolean, got %s", data)
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}
