package object

import (
	"fmt"
	"strconv"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	None Kind = iota
	Int
	Bool
	String
	Obj
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Obj:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one slot of a command argument stack. The zero Value is
// None.
type Value struct {
	Kind Kind
	Int  int64
	Bool bool
	Str  string
	Obj  any
}

func IntValue(v int64) Value     { return Value{Kind: Int, Int: v} }
func BoolValue(v bool) Value     { return Value{Kind: Bool, Bool: v} }
func StringValue(v string) Value { return Value{Kind: String, Str: v} }
func ObjValue(v any) Value       { return Value{Kind: Obj, Obj: v} }

func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Bool:
		return strconv.FormatBool(v.Bool)
	case String:
		return strconv.Quote(v.Str)
	case Obj:
		return fmt.Sprintf("%v", v.Obj)
	}
	return "none"
}

// Any converts v to a plain Go value for encoding.
func (v Value) Any() any {
	switch v.Kind {
	case Int:
		return v.Int
	case Bool:
		return v.Bool
	case String:
		return v.Str
	case Obj:
		return v.Obj
	}
	return nil
}
