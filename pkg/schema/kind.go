package schema

// Kind tags the variant a schema Node represents.
type Kind string

const (
	KindString             Kind = "string"
	KindNumber             Kind = "number"
	KindBoolean            Kind = "boolean"
	KindDate               Kind = "date"
	KindLiteral            Kind = "literal"
	KindEnum               Kind = "enum"
	KindArray              Kind = "array"
	KindObject             Kind = "object"
	KindDiscriminatedUnion Kind = "discriminatedUnion"

	KindOptional Kind = "optional"
	KindNullable Kind = "nullable"
	KindDefault  Kind = "default"
	KindEffects  Kind = "effects"
)

// IsWrapper reports whether the kind carries exactly one inner schema.
func (k Kind) IsWrapper() bool {
	switch k {
	case KindOptional, KindNullable, KindDefault, KindEffects:
		return true
	default:
		return false
	}
}

// IsLeaf reports scalar kinds rendered as a single input.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindDate, KindLiteral, KindEnum:
		return true
	default:
		return false
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k.IsWrapper() || k.IsLeaf() ||
		k == KindArray || k == KindObject || k == KindDiscriminatedUnion
}

func (k Kind) String() string {
	return string(k)
}
