package models

import (
	"time"

	"github.com/google/uuid"
)

// VariableDef declares a variable a query template expects, together with
// optional default values used when the caller supplies no binding.
type VariableDef struct {
	Name          string       `json:"name"`
	Kind          VariableKind `json:"kind"`
	ValueType     ValueType    `json:"value_type"`
	DefaultValues []string     `json:"default_values,omitempty"`
	Required      bool         `json:"required"`
	Description   string       `json:"description,omitempty"`
}

// QueryTemplate is a stored SQL template with its declared variables.
// Templates are the unit the substitution engine operates on: the SQL text
// may reference declared variables with ${name} markers.
type QueryTemplate struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	SQLText   string        `json:"sql_text"`
	Dialect   string        `json:"dialect"`
	Variables []VariableDef `json:"variables,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// VariableByName returns the declared variable with the given name, or nil.
func (t *QueryTemplate) VariableByName(name string) *VariableDef {
	for i := range t.Variables {
		if t.Variables[i].Name == name {
			return &t.Variables[i]
		}
	}
	return nil
}
