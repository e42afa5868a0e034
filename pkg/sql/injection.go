package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/vantagebi/vantage-engine/pkg/models"
)

// InjectionCheckResult contains the result of an injection check on a
// variable value.
type InjectionCheckResult struct {
	IsSQLi       bool   // True if SQL injection pattern detected
	Fingerprint  string // libinjection fingerprint of the detected pattern
	VariableName string // Name of the variable that failed the check
	Value        string // The value that was checked
}

// CheckValueForInjection uses libinjection to detect SQL injection patterns
// in a single variable value.
//
// Returns nil if no injection is detected, or an InjectionCheckResult with
// details about the detected pattern.
//
// Example:
//
//	// Safe value - no injection
//	result := CheckValueForInjection("customer_id", "12345")
//	// result == nil
//
//	// Injection attempt detected
//	result := CheckValueForInjection("search", "'; DROP TABLE users--")
//	// result.IsSQLi == true
//	// result.Fingerprint == "s&1c" (or similar)
//	// result.VariableName == "search"
func CheckValueForInjection(variableName, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:       true,
			Fingerprint:  string(fingerprint),
			VariableName: variableName,
			Value:        value,
		}
	}

	return nil
}

// CheckVariablesForInjection screens the values of value-kind variables for
// SQL injection attempts. Fragment and identifier variables are skipped:
// those kinds carry SQL text on purpose and belong to the template author,
// not to request input. Values typed as anything but string are skipped too,
// since they are validated against their declared type during rendering.
//
// Returns one InjectionCheckResult per value that failed the check, or an
// empty slice if everything is clean.
func CheckVariablesForInjection(vars []models.ScriptVariable) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for i := range vars {
		v := vars[i]
		v.Normalize()
		if v.Kind != models.KindValue || v.ValueType != models.TypeString {
			continue
		}
		for _, value := range v.Values {
			if result := CheckValueForInjection(v.Name, value); result != nil {
				results = append(results, result)
			}
		}
	}
	return results
}
