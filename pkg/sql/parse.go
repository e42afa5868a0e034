package sql

import (
	"fmt"
	"sync"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"

	// Registers the value-expression driver the parser needs.
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// Parser instances are stateful and not safe for concurrent use, so they are
// pooled rather than shared.
var parserPool = sync.Pool{
	New: func() any { return parser.New() },
}

// parseStatement parses exactly one statement from sanitized template text.
// The grammar is MySQL-compatible regardless of target dialect; dialects
// only differ in how literals and identifiers are rendered.
func parseStatement(sqlText string) (ast.StmtNode, error) {
	p := parserPool.Get().(*parser.Parser)
	defer parserPool.Put(p)

	stmts, _, err := p.Parse(sqlText, "", "")
	if err != nil {
		return nil, newSyntaxError(err)
	}
	if len(stmts) == 0 {
		return nil, newSyntaxError(fmt.Errorf("no statement found"))
	}
	if len(stmts) > 1 {
		return nil, fmt.Errorf("%w: found %d", ErrMultipleStatements, len(stmts))
	}
	return stmts[0], nil
}
