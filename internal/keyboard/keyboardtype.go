package keyboard

import (
	"fmt"
	"strings"
)

// Casing is the letter casing of an alphabetic keyboard.
type Casing uint8

const (
	Lowercased Casing = iota
	Uppercased
	CapsLocked
)

// String returns the casing name.
func (c Casing) String() string {
	switch c {
	case Lowercased:
		return "lowercased"
	case Uppercased:
		return "uppercased"
	case CapsLocked:
		return "capsLocked"
	default:
		return "unknown"
	}
}

// IsUppercased reports whether characters are typed in upper case.
func (c Casing) IsUppercased() bool {
	return c == Uppercased || c == CapsLocked
}

// ParseCasing parses a casing name.
func ParseCasing(s string) (Casing, error) {
	switch strings.ToLower(s) {
	case "lowercased", "lower":
		return Lowercased, nil
	case "uppercased", "upper":
		return Uppercased, nil
	case "capslocked", "capslock":
		return CapsLocked, nil
	default:
		return Lowercased, fmt.Errorf("unknown casing: %q", s)
	}
}

// TypeKind identifies the variant of a keyboard type.
type TypeKind uint8

const (
	TypeAlphabetic TypeKind = iota
	TypeNumeric
	TypeSymbolic
	TypeEmail
	TypeEmojis
	TypeCustom
)

// String returns the kind name.
func (k TypeKind) String() string {
	switch k {
	case TypeAlphabetic:
		return "alphabetic"
	case TypeNumeric:
		return "numeric"
	case TypeSymbolic:
		return "symbolic"
	case TypeEmail:
		return "email"
	case TypeEmojis:
		return "emojis"
	case TypeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Type is a keyboard type. The zero value is an alphabetic lowercased
// keyboard. Types are comparable with ==.
type Type struct {
	kind   TypeKind
	casing Casing
	name   string
}

// Alphabetic returns an alphabetic keyboard with the given casing.
func Alphabetic(c Casing) Type { return Type{kind: TypeAlphabetic, casing: c} }

// Numeric returns the numeric keyboard type.
func Numeric() Type { return Type{kind: TypeNumeric} }

// Symbolic returns the symbolic keyboard type.
func Symbolic() Type { return Type{kind: TypeSymbolic} }

// Email returns the email keyboard type.
func Email() Type { return Type{kind: TypeEmail} }

// Emojis returns the emoji keyboard type.
func Emojis() Type { return Type{kind: TypeEmojis} }

// CustomType returns a host-defined keyboard type.
func CustomType(name string) Type { return Type{kind: TypeCustom, name: name} }

// Kind returns the variant.
func (t Type) Kind() TypeKind { return t.kind }

// Casing returns the casing of an alphabetic keyboard. It is Lowercased
// for every other kind.
func (t Type) Casing() Casing { return t.casing }

// Name returns the name of a custom keyboard type.
func (t Type) Name() string { return t.name }

// IsAlphabetic reports whether t is an alphabetic keyboard.
func (t Type) IsAlphabetic() bool { return t.kind == TypeAlphabetic }

// IsNumericOrSymbolic reports whether t is the numeric or symbolic keyboard.
func (t Type) IsNumericOrSymbolic() bool {
	return t.kind == TypeNumeric || t.kind == TypeSymbolic
}

// String formats the type in the form accepted by ParseType.
func (t Type) String() string {
	switch t.kind {
	case TypeAlphabetic:
		return "alphabetic:" + t.casing.String()
	case TypeCustom:
		return "custom:" + t.name
	default:
		return t.kind.String()
	}
}

// ParseType parses "alphabetic[:casing]", "numeric", "symbolic", "email",
// "emojis" or "custom:name".
func ParseType(s string) (Type, error) {
	name, arg, hasArg := strings.Cut(s, ":")
	switch strings.ToLower(name) {
	case "alphabetic":
		if !hasArg {
			return Alphabetic(Lowercased), nil
		}
		c, err := ParseCasing(arg)
		if err != nil {
			return Type{}, err
		}
		return Alphabetic(c), nil
	case "numeric":
		return Numeric(), nil
	case "symbolic":
		return Symbolic(), nil
	case "email":
		return Email(), nil
	case "emojis":
		return Emojis(), nil
	case "custom":
		if arg == "" {
			return Type{}, fmt.Errorf("custom keyboard type requires a name")
		}
		return CustomType(arg), nil
	default:
		return Type{}, fmt.Errorf("unknown keyboard type: %q", s)
	}
}
