package abba_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/jsparser"
	"github.com/jsrevert/deobfuscator/internal/sandbox"
	"github.com/jsrevert/deobfuscator/internal/target"
	"github.com/jsrevert/deobfuscator/internal/target/abba"
)

func runTarget(t *testing.T, src string) (*jsast.Program, *jsast.TransformState) {
	t.Helper()
	prog, err := jsparser.Parse(src)
	require.NoError(t, err)
	ev, err := sandbox.New()
	require.NoError(t, err)
	state := &jsast.TransformState{}
	ctx := &target.Context{
		Program: prog,
		State:   state,
		Sandbox: ev,
		Info:    func(string, ...any) {},
		Debug:   func(string, ...any) {},
	}
	require.NoError(t, abba.New().Run(ctx))
	return prog, state
}

func stringLiterals(prog *jsast.Program) []string {
	var out []string
	v := jsast.NewVisitor()
	v.Enter[jsast.KindStringLiteral] = func(p *jsast.Path) {
		out = append(out, p.Node.(*jsast.StringLiteral).Value)
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return out
}

func hasFunctionDeclaration(prog *jsast.Program, name string) bool {
	found := false
	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		fd := p.Node.(*jsast.FunctionDeclaration)
		if fd.Name != nil && fd.Name.Name == name {
			found = true
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return found
}

func TestDetectNoSignals(t *testing.T) {
	prog, err := jsparser.Parse(`function plain(a, b) { return a + b; }`)
	require.NoError(t, err)
	result := abba.New().Detect(prog)
	require.NotNil(t, result)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestStringArrayExtractorInlinesResult(t *testing.T) {
	// arr is kept referenced (via console.log) so the pipeline's final
	// §4.7 dead-code pass doesn't sweep it away once its initializer turns
	// pure (an array literal) after extraction.
	src := `var arr = (function(seed) { return ['alpha', 'beta']; })('seed'); console.log(arr);`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)
	assert.Contains(t, stringLiterals(prog), "alpha")
	assert.Contains(t, stringLiterals(prog), "beta")
}

func TestStringArrayRotatorRotatesInPlace(t *testing.T) {
	// arr is kept referenced after the IIFE (via console.log) so the
	// pipeline's final §4.7 dead-code pass doesn't also sweep it away once
	// its only other reference (inside the removed IIFE call) is gone.
	src := `
var arr = ['a', 'b', 'c'];
(function(arr2, count) {
  while (count--) {
    arr2.push(arr2.shift());
  }
})(arr, 2);
console.log(arr);
`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)

	var decl *jsast.VariableDeclarator
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		d := p.Node.(*jsast.VariableDeclarator)
		if d.ID != nil && d.ID.Name == "arr" {
			decl = d
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	require.NotNil(t, decl)
	arr, ok := decl.Init.(*jsast.ArrayExpression)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)
	assert.Equal(t, "c", arr.Elements[0].(*jsast.StringLiteral).Value)
	assert.Equal(t, "a", arr.Elements[1].(*jsast.StringLiteral).Value)
	assert.Equal(t, "b", arr.Elements[2].(*jsast.StringLiteral).Value)
}

// TestStringArrayRotatorDescendsIntoNestedFunctionExpression covers the
// mandatory scenario where the push/shift calls live inside a nested
// function expression local to the rotating IIFE, reachable only by
// descending into *FunctionExpression bodies and *StringLiteral computed
// member properties.
func TestStringArrayRotatorDescendsIntoNestedFunctionExpression(t *testing.T) {
	src := `
var a = ['one', 'two', 'three', 'four'];
(function(e, f) {
  var g = function(h) {
    while (--h) {
      e["push"](e["shift"]());
    }
  };
  g(++f);
})(a, 2);
console.log(a);
`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)

	var decl *jsast.VariableDeclarator
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		d := p.Node.(*jsast.VariableDeclarator)
		if d.ID != nil && d.ID.Name == "a" {
			decl = d
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	require.NotNil(t, decl)
	arr, ok := decl.Init.(*jsast.ArrayExpression)
	require.True(t, ok)
	require.Len(t, arr.Elements, 4)
	assert.Equal(t, "four", arr.Elements[0].(*jsast.StringLiteral).Value)
	assert.Equal(t, "one", arr.Elements[1].(*jsast.StringLiteral).Value)
	assert.Equal(t, "two", arr.Elements[2].(*jsast.StringLiteral).Value)
	assert.Equal(t, "three", arr.Elements[3].(*jsast.StringLiteral).Value)

	found := false
	cv := jsast.NewVisitor()
	cv.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		if _, ok := p.Node.(*jsast.CallExpression).Callee.(*jsast.FunctionExpression); ok {
			found = true
		}
	}
	jsast.Walk(prog, cv, &jsast.TransformState{})
	assert.False(t, found, "rotator IIFE should be removed")
}

// TestStringArrayRotatorEmptyArrayIsNoOpAndRemovesIIFE covers the documented
// boundary: an empty target array still has its rotator IIFE removed, with
// nothing to rotate.
func TestStringArrayRotatorEmptyArrayIsNoOpAndRemovesIIFE(t *testing.T) {
	src := `
var arr = [];
(function(arr2, count) {
  while (count--) {
    arr2.push(arr2.shift());
  }
})(arr, 2);
console.log(arr);
`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)

	var decl *jsast.VariableDeclarator
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		d := p.Node.(*jsast.VariableDeclarator)
		if d.ID != nil && d.ID.Name == "arr" {
			decl = d
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	require.NotNil(t, decl)
	arr, ok := decl.Init.(*jsast.ArrayExpression)
	require.True(t, ok)
	assert.Empty(t, arr.Elements)

	found := false
	cv := jsast.NewVisitor()
	cv.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		if _, ok := p.Node.(*jsast.CallExpression).Callee.(*jsast.FunctionExpression); ok {
			found = true
		}
	}
	jsast.Walk(prog, cv, &jsast.TransformState{})
	assert.False(t, found, "rotator IIFE should be removed even with an empty array")
}

func TestProxyInlinerReplacesCallsAndRemovesDecl(t *testing.T) {
	// a and b are kept referenced (via the console.log call) so the final
	// dead-code pass doesn't also remove them; this isolates the proxy
	// inliner's own effect from §4.7's unrelated cleanup.
	src := `
var words = ['zero', 'one', 'two'];
function px(n) {
  var idx;
  idx = n - 1;
  return words[idx];
}
var a = px(1);
var b = px(2);
console.log(a, b);
`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)
	lits := stringLiterals(prog)
	assert.Contains(t, lits, "zero")
	assert.Contains(t, lits, "one")
	assert.False(t, hasFunctionDeclaration(prog, "px"), "proxy declaration should be removed")
}

// TestProxyInlinerDeadCodeRemovesUnusedResults documents that an inlined
// proxy result feeding nothing alive is swept by the pipeline's own §4.7
// dead-code pass, along with the now-unreferenced source array.
func TestProxyInlinerDeadCodeRemovesUnusedResults(t *testing.T) {
	src := `
var words = ['zero', 'one', 'two'];
function px(n) {
  var idx;
  idx = n - 1;
  return words[idx];
}
var a = px(1);
var b = px(2);
`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)
	assert.Empty(t, stringLiterals(prog))
	assert.False(t, hasFunctionDeclaration(prog, "px"))

	v := jsast.NewVisitor()
	var names []string
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		names = append(names, p.Node.(*jsast.VariableDeclarator).ID.Name)
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	assert.Empty(t, names, "words/a/b all unreferenced and pure, should be swept by dead-code removal")
}

func TestProxyInlinerLeavesOutOfRangeCallIntact(t *testing.T) {
	src := `
var words = ['zero', 'one'];
function px(n) {
  var idx;
  idx = n - 1;
  return words[idx];
}
var a = px(99);
`
	prog, _ := runTarget(t, src)
	found := false
	v := jsast.NewVisitor()
	v.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		call := p.Node.(*jsast.CallExpression)
		if id, ok := call.Callee.(*jsast.Identifier); ok && id.Name == "px" {
			found = true
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	assert.True(t, found, "out-of-range proxy call should be left intact")
}

func TestMemberSimplifierConvertsSimpleKeys(t *testing.T) {
	// x/y/z are kept referenced (via console.log) so the pipeline's final
	// §4.7 dead-code pass doesn't remove them before the assertions below
	// get to inspect their (simplified) member expressions.
	src := `var x = obj["foo"]; var y = obj["if"]; var z = obj["1abc"]; console.log(x, y, z);`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)

	var sawDot, sawReservedComputed, sawDigitComputed bool
	v := jsast.NewVisitor()
	v.Enter[jsast.KindMemberExpression] = func(p *jsast.Path) {
		me := p.Node.(*jsast.MemberExpression)
		if !me.Computed {
			if id, ok := me.Property.(*jsast.Identifier); ok && id.Name == "foo" {
				sawDot = true
			}
			return
		}
		if s, ok := me.Property.(*jsast.StringLiteral); ok {
			if s.Value == "if" {
				sawReservedComputed = true
			}
			if s.Value == "1abc" {
				sawDigitComputed = true
			}
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	assert.True(t, sawDot, "obj[\"foo\"] should become obj.foo")
	assert.True(t, sawReservedComputed, "reserved word key must stay computed")
	assert.True(t, sawDigitComputed, "identifier starting with a digit must stay computed")
}

func TestModuleLoaderResolverRewritesAndRemovesLoader(t *testing.T) {
	src := `
var Registry = {};
function loader(path, factory) {
  var reg = Registry;
  var parts = path.split('.');
  return parts;
}
loader("A.B", function(v) { return v || {}; });
`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)
	assert.False(t, hasFunctionDeclaration(prog, "loader"), "loader declaration should be removed")

	var sawAssign bool
	v := jsast.NewVisitor()
	v.Enter[jsast.KindAssignmentExpression] = func(p *jsast.Path) {
		ae := p.Node.(*jsast.AssignmentExpression)
		outer, ok := ae.Left.(*jsast.MemberExpression)
		if !ok {
			return
		}
		inner, ok := outer.Object.(*jsast.MemberExpression)
		if !ok {
			return
		}
		base, ok := inner.Object.(*jsast.Identifier)
		if !ok || base.Name != "Registry" {
			return
		}
		sawAssign = true
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	assert.True(t, sawAssign, "loader call should become a nested registry assignment")
}

func TestNoSandboxSkipsStringArrayExtractorOnly(t *testing.T) {
	// a is kept referenced (via console.log) so the pipeline's final §4.7
	// dead-code pass doesn't remove it once px(1) inlines to a pure
	// string literal.
	src := `var words = ['a', 'b']; function px(n) { var idx; idx = n - 1; return words[idx]; } var a = px(1); console.log(a);`
	prog, err := jsparser.Parse(src)
	require.NoError(t, err)
	state := &jsast.TransformState{}
	ctx := &target.Context{Program: prog, State: state, Debug: func(string, ...any) {}}
	require.NoError(t, abba.New().Run(ctx))
	assert.Contains(t, stringLiterals(prog), "a")
	assert.False(t, hasFunctionDeclaration(prog, "px"))
}
