// Package sql implements dialect-aware variable substitution for SQL
// templates: parse, locate, render, splice.
package sql

/*
Variable Marker Syntax

# Overview

SQL templates use the ${variable_name} syntax to mark variable references.
Markers are resolved against a set of ScriptVariable bindings at substitution
time and replaced with dialect-correct SQL. The syntax is distinct from
PostgreSQL's positional parameters ($1, $2) and from the {{name}} style used
by simple string templating, and was chosen because it survives SQL parsing
after sanitization without ambiguity.

# Marker Syntax

	${variable_name}

Variable names must start with a letter or underscore, followed by any number
of alphanumeric characters or underscores. Names are case-sensitive and must
match the Name of a supplied ScriptVariable exactly.

Markers inside string literals, backquoted identifiers, or comments (line
comments introduced by "--" or "#", and block comments) are never treated as
variable references. A variable referenced only inside a string literal
counts as unused.

# Substitution semantics

How a marker is replaced depends on the variable's Kind and on the syntactic
position of the marker in the parsed template:

  - A value variable that is the operand of a comparison-like call (IN, =,
    <>, <, <=, >, >=, LIKE, BETWEEN) replaces the whole call. With one or
    more bound values the call is re-rendered with the values as literals:

	WHERE region IN (${region})      + ["east","west"]
	  ->  WHERE region IN ('east', 'west')

    With an empty binding the call collapses to a null test over the
    compared expression, negated when the original operator was negative:

	WHERE region IN (${region})      + []   ->  WHERE region IS NULL
	WHERE region NOT IN (${region})  + []   ->  WHERE region IS NOT NULL

  - A value variable anywhere else (SELECT list, function argument without
    call rewriting, arithmetic) replaces just the marker with the rendered
    literal list. An empty binding is an error in these positions.

  - A fragment variable replaces the marker with its values verbatim,
    joined by ", ". No quoting or escaping is applied; fragment bindings
    must come from trusted callers.

  - An identifier variable replaces the marker with dialect-quoted
    identifiers joined by ", ". Dotted names quote each path segment.

Substitution is per occurrence: a variable referenced three times produces
three independent replacements. The text outside replaced spans is preserved
byte for byte.

# Custom delimiters

The engine's default delimiters are "${" and "}". Engines may be constructed
with different delimiters (for example "$" and "$" for legacy templates) via
WithMarkerDelimiters.
*/
