package format

import (
	"fmt"
	"strings"
)

// ComponentType is the client-side type of one attribute component.
type ComponentType uint8

const (
	// Float is a 32-bit IEEE float.
	Float ComponentType = iota
	// HalfFloat is a 16-bit IEEE float.
	HalfFloat
	// Byte is a signed 8-bit integer.
	Byte
	// UnsignedByte is an unsigned 8-bit integer.
	UnsignedByte
	// Short is a signed 16-bit integer.
	Short
	// UnsignedShort is an unsigned 16-bit integer.
	UnsignedShort
	// Int is a signed 32-bit integer.
	Int
	// UnsignedInt is an unsigned 32-bit integer.
	UnsignedInt
	// Fixed is a signed 16.16 fixed point number.
	Fixed
)

var componentTypeNames = [...]string{
	Float:         "float",
	HalfFloat:     "half_float",
	Byte:          "byte",
	UnsignedByte:  "unsigned_byte",
	Short:         "short",
	UnsignedShort: "unsigned_short",
	Int:           "int",
	UnsignedInt:   "unsigned_int",
	Fixed:         "fixed",
}

// String returns the lower-case type name.
func (t ComponentType) String() string {
	if int(t) < len(componentTypeNames) {
		return componentTypeNames[t]
	}
	return fmt.Sprintf("ComponentType(%d)", int(t))
}

// Size returns the size of one component in bytes, 0 for unknown types.
func (t ComponentType) Size() int {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort, HalfFloat:
		return 2
	case Float, Int, UnsignedInt, Fixed:
		return 4
	default:
		return 0
	}
}

// ParseComponentType parses the name returned by String. Matching is case
// insensitive.
func ParseComponentType(s string) (ComponentType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range componentTypeNames {
		if s == name {
			return ComponentType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: component type %q", ErrUnsupportedFormat, s)
}

// ValueType tags the lanes of a current (constant) attribute value.
type ValueType uint8

const (
	// ValueFloat lanes hold float32 bits.
	ValueFloat ValueType = iota
	// ValueInt lanes hold int32 values.
	ValueInt
	// ValueUint lanes hold uint32 values.
	ValueUint
)

// String returns the lower-case value type name.
func (t ValueType) String() string {
	switch t {
	case ValueFloat:
		return "float"
	case ValueInt:
		return "int"
	case ValueUint:
		return "uint"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// ParseValueType parses the name returned by String.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "":
		return ValueFloat, nil
	case "int":
		return ValueInt, nil
	case "uint":
		return ValueUint, nil
	}
	return 0, fmt.Errorf("%w: value type %q", ErrUnsupportedFormat, s)
}

// Key returns the attribute layout of a four-lane current value of this
// type.
func (t ValueType) Key() Key {
	switch t {
	case ValueInt:
		return Key{Type: Int, Components: 4, PureInteger: true}
	case ValueUint:
		return Key{Type: UnsignedInt, Components: 4, PureInteger: true}
	default:
		return Key{Type: Float, Components: 4}
	}
}

// Key identifies a client attribute layout for plan lookup.
type Key struct {
	Type        ComponentType
	Components  int
	Normalized  bool
	PureInteger bool
}

// InputSize returns the number of source bytes one element occupies.
func (k Key) InputSize() int {
	return k.Type.Size() * k.Components
}

// String formats the key as e.g. "unsigned_byte x3 norm".
func (k Key) String() string {
	s := fmt.Sprintf("%s x%d", k.Type, k.Components)
	if k.Normalized {
		s += " norm"
	}
	if k.PureInteger {
		s += " int"
	}
	return s
}
