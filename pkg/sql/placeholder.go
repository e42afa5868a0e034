package sql

import (
	"github.com/vantagebi/vantage-engine/pkg/models"
)

// replacementPair couples an exact source span with the text that replaces
// it. Pairs are pure values: computing them never mutates the parse tree or
// the occurrence, so cached occurrences can serve concurrent substitutions.
type replacementPair struct {
	loc  span
	text string
}

// buildReplacement computes the replacement for one occurrence under one
// binding. Fragment and identifier variables always splice at the marker
// itself. Value variables splice at the marker too, except when the binding
// is empty (the enclosing call collapses to an IS NULL predicate) or when a
// multi-value binding promotes an equality to an IN list (the whole call is
// rebuilt).
func buildReplacement(d Dialect, occ *occurrence, v *models.ScriptVariable) (replacementPair, error) {
	switch v.Kind {
	case models.KindFragment:
		if v.IsEmpty() {
			return replacementPair{}, &EmptyBindingError{Name: occ.name, Position: "verbatim fragment"}
		}
		return replacementPair{loc: occ.loc, text: renderFragmentList(v)}, nil

	case models.KindIdentifier:
		if v.IsEmpty() {
			return replacementPair{}, &EmptyBindingError{Name: occ.name, Position: "identifier list"}
		}
		return replacementPair{loc: occ.loc, text: renderIdentifierList(d, v)}, nil
	}

	if v.IsEmpty() {
		return emptyValueReplacement(occ)
	}

	// A multi-value binding under = or <> rewrites the comparison as a
	// membership test over the non-marker side.
	if occ.shape == shapeCompare && len(v.Values) > 1 && (occ.op == "=" || occ.op == "<>") {
		list, err := renderValueList(d, v)
		if err != nil {
			return replacementPair{}, err
		}
		open := " IN ("
		if occ.op == "<>" {
			open = " NOT IN ("
		}
		return replacementPair{loc: occ.callLoc, text: occ.subject + open + list + ")"}, nil
	}

	if occ.scalar {
		text, err := renderValue(d, v, v.Values[0])
		if err != nil {
			return replacementPair{}, err
		}
		return replacementPair{loc: occ.loc, text: text}, nil
	}

	list, err := renderValueList(d, v)
	if err != nil {
		return replacementPair{}, err
	}
	return replacementPair{loc: occ.loc, text: list}, nil
}

// emptyValueReplacement collapses the occurrence's enclosing call into an
// IS NULL (or IS NOT NULL, for negated calls) predicate over the call's
// first operand. Bare markers and markers that are themselves the first
// operand have nothing to predicate over, so an empty binding there is an
// error.
func emptyValueReplacement(occ *occurrence) (replacementPair, error) {
	if occ.shape == shapeBare {
		return replacementPair{}, &EmptyBindingError{Name: occ.name, Position: "outside any comparison, IN list, or function call"}
	}
	if occ.firstIsMarker {
		return replacementPair{}, &EmptyBindingError{Name: occ.name, Position: "first operand of its enclosing expression"}
	}
	pred := " IS NULL"
	if occ.negated {
		pred = " IS NOT NULL"
	}
	return replacementPair{loc: occ.callLoc, text: occ.subject + pred}, nil
}
