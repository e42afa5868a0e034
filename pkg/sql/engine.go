package sql

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vantagebi/vantage-engine/pkg/models"
)

// DefaultPlanCacheSize bounds the per-engine cache of parsed template plans.
const DefaultPlanCacheSize = 512

// Engine substitutes variable markers in SQL templates. An Engine is
// immutable after construction and safe for concurrent use: parsed plans are
// cached in a thread-safe LRU, parser instances are pooled, and replacements
// are computed without mutating shared state.
type Engine struct {
	syntax *markerSyntax
	strict bool
	plans  *lru.Cache[string, *plan]
}

// plan is the dialect-independent result of parsing and locating one
// template. Plans are immutable once built, which is what makes them
// shareable across goroutines and dialects.
type plan struct {
	occ   []occurrence
	names []string // distinct variable names, first-appearance order
}

type engineConfig struct {
	prefix    string
	suffix    string
	strict    bool
	cacheSize int
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithMarkerDelimiters overrides the default ${...} marker syntax.
// Delimiters may not contain letters, digits, underscores, or whitespace.
func WithMarkerDelimiters(prefix, suffix string) Option {
	return func(c *engineConfig) {
		c.prefix = prefix
		c.suffix = suffix
	}
}

// WithStrictVariables makes Substitute fail when a supplied variable is not
// referenced by the template. The default is to ignore unused variables.
func WithStrictVariables() Option {
	return func(c *engineConfig) { c.strict = true }
}

// WithPlanCacheSize overrides the default plan cache capacity.
func WithPlanCacheSize(n int) Option {
	return func(c *engineConfig) { c.cacheSize = n }
}

// NewEngine builds a substitution engine.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		prefix:    DefaultMarkerPrefix,
		suffix:    DefaultMarkerSuffix,
		cacheSize: DefaultPlanCacheSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	syntax, err := newMarkerSyntax(cfg.prefix, cfg.suffix)
	if err != nil {
		return nil, err
	}
	if cfg.cacheSize < 1 {
		return nil, fmt.Errorf("plan cache size must be positive, got %d", cfg.cacheSize)
	}
	plans, err := lru.New[string, *plan](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create plan cache: %w", err)
	}

	return &Engine{syntax: syntax, strict: cfg.strict, plans: plans}, nil
}

// Variables returns the distinct variable names referenced by the template,
// in order of first appearance. Markers inside string literals and comments
// are inert and not reported.
func (e *Engine) Variables(template string) []string {
	return e.syntax.names(template)
}

// Substitute rewrites template for the target dialect with every marker
// replaced according to its binding. A template without markers is returned
// byte-identical. The same inputs always produce the same output.
func (e *Engine) Substitute(template string, vars []models.ScriptVariable, d Dialect) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}
	if d == nil {
		return "", fmt.Errorf("%w: nil dialect", ErrUnknownDialect)
	}

	p, err := e.planFor(template)
	if err != nil {
		return "", err
	}
	// Strict mode applies even when the template has no markers at all:
	// every supplied variable must be referenced somewhere.
	if e.strict {
		referenced := make(map[string]bool, len(p.names))
		for _, n := range p.names {
			referenced[n] = true
		}
		for _, v := range vars {
			if !referenced[v.Name] {
				return "", &VariableNotFoundError{Name: v.Name}
			}
		}
	}

	if len(p.occ) == 0 {
		return template, nil
	}

	bindings := make(map[string]models.ScriptVariable, len(vars))
	for _, v := range vars {
		v.Normalize()
		bindings[v.Name] = v
	}

	pairs := make([]replacementPair, 0, len(p.occ))
	for i := range p.occ {
		occ := &p.occ[i]
		binding, ok := bindings[occ.name]
		if !ok {
			return "", &UnboundVariableError{Name: occ.name}
		}
		pair, err := buildReplacement(d, occ, &binding)
		if err != nil {
			return "", err
		}
		pairs = append(pairs, pair)
	}

	return splice(template, pairs)
}

// planFor returns the cached plan for template, building and caching it on a
// miss. Failures are not cached; a bad template costs a parse per attempt.
func (e *Engine) planFor(template string) (*plan, error) {
	if p, ok := e.plans.Get(template); ok {
		return p, nil
	}

	marks := e.syntax.scan(template)
	p := &plan{}
	if len(marks) > 0 {
		san, err := sanitizeMarkers(template, marks)
		if err != nil {
			return nil, err
		}
		stmt, err := parseStatement(san.text)
		if err != nil {
			return nil, err
		}
		occ := locateOccurrences(san, stmt)
		p.occ = occ

		seen := make(map[string]bool, len(occ))
		for _, o := range occ {
			if !seen[o.name] {
				seen[o.name] = true
				p.names = append(p.names, o.name)
			}
		}
	}

	e.plans.Add(template, p)
	return p, nil
}

// splice applies the replacement pairs to the original template in one
// left-to-right pass. Overlapping spans mean two replacements claim the same
// source text, which is never safe to apply, so splicing fails instead.
func splice(template string, pairs []replacementPair) (string, error) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].loc.start < pairs[j].loc.start })

	var b strings.Builder
	b.Grow(len(template) + len(template)/4)

	last := 0
	prev := span{start: -1, end: 0}
	for _, pair := range pairs {
		if pair.loc.start < last {
			return "", &OverlapError{
				StartA: prev.start, EndA: prev.end,
				StartB: pair.loc.start, EndB: pair.loc.end,
			}
		}
		b.WriteString(template[last:pair.loc.start])
		b.WriteString(pair.text)
		last = pair.loc.end
		prev = pair.loc
	}
	b.WriteString(template[last:])

	return b.String(), nil
}
