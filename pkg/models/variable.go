package models

// VariableKind distinguishes how a variable's bound values are spliced
// into a SQL template.
type VariableKind string

const (
	// KindValue variables are rendered as dialect-correct literals. This is
	// the default kind and the only one eligible for the IS NULL rewrite
	// when the binding is empty.
	KindValue VariableKind = "value"
	// KindFragment variables are spliced verbatim into the template.
	KindFragment VariableKind = "fragment"
	// KindIdentifier variables are rendered as dialect-quoted identifiers
	// (column, table, or schema names).
	KindIdentifier VariableKind = "identifier"
)

// ValueType controls how a bound value string is rendered as a SQL literal.
type ValueType string

const (
	TypeString    ValueType = "string"
	TypeNumeric   ValueType = "numeric"
	TypeBoolean   ValueType = "boolean"
	TypeDate      ValueType = "date"      // calendar date, "2006-01-02"
	TypeTimestamp ValueType = "timestamp" // "2006-01-02 15:04:05"
)

// ScriptVariable is one named variable binding for a substitution call.
// Values are always carried as strings; ValueType governs literal rendering.
// The substitution engine treats a ScriptVariable as read-only.
type ScriptVariable struct {
	Name      string       `json:"name"`
	Kind      VariableKind `json:"kind"`
	ValueType ValueType    `json:"value_type"`
	Values    []string     `json:"values"`
}

// IsEmpty reports whether the variable has no bound values.
func (v *ScriptVariable) IsEmpty() bool {
	return len(v.Values) == 0
}

// Normalize fills in defaults for zero-valued Kind and ValueType fields.
// Callers constructing variables from JSON may omit both.
func (v *ScriptVariable) Normalize() {
	if v.Kind == "" {
		v.Kind = KindValue
	}
	if v.ValueType == "" {
		v.ValueType = TypeString
	}
}

// ValidKind reports whether k is a recognized variable kind.
func ValidKind(k VariableKind) bool {
	switch k {
	case KindValue, KindFragment, KindIdentifier:
		return true
	}
	return false
}

// ValidValueType reports whether t is a recognized value type.
func ValidValueType(t ValueType) bool {
	switch t {
	case TypeString, TypeNumeric, TypeBoolean, TypeDate, TypeTimestamp:
		return true
	}
	return false
}
