package jsast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrevert/deobfuscator/internal/deadcode"
	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/jsparser"
)

// TestCrawlResolvesFunctionLocalVarReference guards against reference
// resolution drifting onto a second scope tree that never learned about a
// function's own var declarations: if it did, "x" here would resolve past
// f's scope to a nonexistent global, leaving the real local binding with no
// references and making it look dead.
func TestCrawlResolvesFunctionLocalVarReference(t *testing.T) {
	prog, err := jsparser.Parse(`function f(){var x=1;return x;} f();`)
	require.NoError(t, err)

	root := jsast.Crawl(prog)

	var funcScope *jsast.Scope
	for _, c := range root.Children {
		if _, ok := c.Bindings["x"]; ok {
			funcScope = c
		}
	}
	require.NotNil(t, funcScope, "x should be registered in f's own scope")

	binding := funcScope.Bindings["x"]
	require.NotNil(t, binding)
	assert.True(t, binding.Referenced(), "the return x; use should resolve to f's local x")
}

// TestDeadCodeKeepsReferencedFunctionLocalVar is the end-to-end regression:
// running the full dead-code pass over a function-local var that is read
// by its own function must not delete it, even though the function is only
// ever called (never itself removed).
func TestDeadCodeKeepsReferencedFunctionLocalVar(t *testing.T) {
	prog, err := jsparser.Parse(`function f(){var x=1;return x;} f();`)
	require.NoError(t, err)

	state := &jsast.TransformState{}
	deadcode.Run(prog, state)

	var sawX bool
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		d := p.Node.(*jsast.VariableDeclarator)
		if d.ID != nil && d.ID.Name == "x" {
			sawX = true
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	assert.True(t, sawX, "var x should survive: it is read by the return statement in its own function")
}

// TestCrawlResolvesArrowFunctionLocalVarReference covers the same local-var
// resolution for arrow function bodies, which get their own scope alongside
// function declarations and function expressions.
func TestCrawlResolvesArrowFunctionLocalVarReference(t *testing.T) {
	prog, err := jsparser.Parse(`var f = () => { var y = 2; return y; }; f();`)
	require.NoError(t, err)

	root := jsast.Crawl(prog)

	var arrowScope *jsast.Scope
	for _, c := range root.Children {
		if _, ok := c.Bindings["y"]; ok {
			arrowScope = c
		}
	}
	require.NotNil(t, arrowScope, "y should be registered in the arrow function's own scope")
	assert.True(t, arrowScope.Bindings["y"].Referenced())
}
