package dart

// Type is the runtime type of a Value.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeObject
	TypeArray
	TypeString
	TypeInteger
	TypeDecimal
	TypeBoolean
	TypeNull

	typeCount
)

var typeNames = [typeCount]string{
	TypeInvalid: "invalid",
	TypeObject:  "object",
	TypeArray:   "array",
	TypeString:  "string",
	TypeInteger: "integer",
	TypeDecimal: "decimal",
	TypeBoolean: "boolean",
	TypeNull:    "null",
}

func (t Type) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return "unknown"
}

func (t Type) IsAggregate() bool {
	return t == TypeObject || t == TypeArray
}

// IsScalar reports whether values of this type can be unwrapped.
func (t Type) IsScalar() bool {
	return t == TypeString || t == TypeInteger || t == TypeDecimal || t == TypeBoolean
}

func (t Type) valid() bool {
	return t > TypeInvalid && t < typeCount
}

// Tier selects the reference counting discipline of a heap value tree.
//
// Safe trees use atomic reference counts and lock each aggregate node around
// every access, so handles can be shared between goroutines. Unsafe trees use
// plain counters and no locks; they must stay confined to one goroutine, which
// is a precondition that is not checked at runtime.
type Tier uint8

const (
	Safe Tier = iota
	Unsafe
)

func (t Tier) String() string {
	switch t {
	case Safe:
		return "safe"
	case Unsafe:
		return "unsafe"
	default:
		return "unknown"
	}
}
