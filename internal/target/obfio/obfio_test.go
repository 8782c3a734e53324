package obfio_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/jsparser"
	"github.com/jsrevert/deobfuscator/internal/sandbox"
	"github.com/jsrevert/deobfuscator/internal/target"
	"github.com/jsrevert/deobfuscator/internal/target/obfio"
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
	tg := obfio.New()
	require.NoError(t, tg.Run(ctx))
	return prog, state
}

func TestDetectFindsStringArray(t *testing.T) {
	src := `var _0xabc = ['hello', 'world'];`
	prog, err := jsparser.Parse(src)
	require.NoError(t, err)

	tg := obfio.New()
	result := tg.Detect(prog)
	require.NotNil(t, result)
	assert.InDelta(t, 0.5, result.Confidence, 0.0001)
}

func TestDetectNoStringArray(t *testing.T) {
	src := `function f(x) { return x + 1; }`
	prog, err := jsparser.Parse(src)
	require.NoError(t, err)

	tg := obfio.New()
	result := tg.Detect(prog)
	require.NotNil(t, result)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestHappyPathInlinesDecoderCalls(t *testing.T) {
	src := `
var _0xarr = ['foo', 'bar'];
function _0xdec(i) {
  return _0xarr[i];
}
var greeting = _0xdec(0);
var target = _0xdec(1);
console.log(greeting, target);
`
	prog, state := runTarget(t, src)
	assert.Greater(t, state.Changes, 0)

	var foundFoo, foundBar, foundArrayDecl, foundDecoderDecl bool
	v := jsast.NewVisitor()
	v.Enter[jsast.KindStringLiteral] = func(p *jsast.Path) {
		s := p.Node.(*jsast.StringLiteral)
		if s.Value == "foo" {
			foundFoo = true
		}
		if s.Value == "bar" {
			foundBar = true
		}
	}
	v.Enter[jsast.KindVariableDeclaration] = func(p *jsast.Path) {
		vd := p.Node.(*jsast.VariableDeclaration)
		for _, d := range vd.Declarations {
			if d.ID != nil && d.ID.Name == "_0xarr" {
				foundArrayDecl = true
			}
		}
	}
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		fd := p.Node.(*jsast.FunctionDeclaration)
		if fd.Name != nil && fd.Name.Name == "_0xdec" {
			foundDecoderDecl = true
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})

	assert.True(t, foundFoo, "decoded string 'foo' should appear in the tree")
	assert.True(t, foundBar, "decoded string 'bar' should appear in the tree")
	assert.False(t, foundArrayDecl, "array declaration should be removed once decoders are processed")
	assert.False(t, foundDecoderDecl, "decoder declaration should be removed once processed")
}

func TestNoStringArrayIsNoOp(t *testing.T) {
	src := `function plain(a, b) { return a + b; }`
	_, state := runTarget(t, src)
	assert.Equal(t, 0, state.Changes)
}

func TestNoSandboxIsNoOp(t *testing.T) {
	src := `var _0xarr = ['foo', 'bar']; function _0xdec(i) { return _0xarr[i]; }`
	prog, err := jsparser.Parse(src)
	require.NoError(t, err)
	state := &jsast.TransformState{}
	ctx := &target.Context{Program: prog, State: state}
	tg := obfio.New()
	require.NoError(t, tg.Run(ctx))
	assert.Equal(t, 0, state.Changes)
}

func TestMergeStringsFoldsConcatenation(t *testing.T) {
	// The target only runs its cleanup passes once a string array is found,
	// and s stays referenced so dead-code removal keeps it.
	src := `var _0xarr = ['x']; var s = "foo" + "bar" + "baz"; console.log(s);`
	prog, _ := runTarget(t, src)

	out := strings.Builder{}
	v := jsast.NewVisitor()
	v.Enter[jsast.KindStringLiteral] = func(p *jsast.Path) {
		out.WriteString(p.Node.(*jsast.StringLiteral).Value)
		out.WriteByte(',')
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	assert.Contains(t, out.String(), "foobarbaz")
}
