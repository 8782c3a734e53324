package obfio

import (
	"strconv"

	"github.com/jsrevert/deobfuscator/internal/deadcode"
	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// runCleanupQuartet applies mergeStrings, deadCode, controlFlowObject, and
// controlFlowSwitch in sequence, per §4.5 step 8's "single no-scope pass".
// deadCode still crawls scope internally (it must, to find live references);
// "no-scope" here describes the other three, which operate on local
// syntactic shape alone.
func runCleanupQuartet(prog *jsast.Program, state *jsast.TransformState) {
	mergeStrings(prog, state)
	deadcode.Run(prog, state)
	controlFlowObject(prog, state)
	controlFlowSwitch(prog, state)
}

// mergeStrings folds `"a" + "b"` into `"ab"` bottom-up, so a chain of
// concatenated literals collapses in one pass.
func mergeStrings(prog *jsast.Program, state *jsast.TransformState) {
	v := jsast.NewVisitor()
	v.Leave[jsast.KindBinaryExpression] = func(p *jsast.Path) {
		be := p.Node.(*jsast.BinaryExpression)
		if be.Operator != "+" {
			return
		}
		l, lok := be.Left.(*jsast.StringLiteral)
		r, rok := be.Right.(*jsast.StringLiteral)
		if lok && rok {
			p.ReplaceWith(jsast.Str(l.Value + r.Value))
		}
	}
	jsast.Walk(prog, v, state)
}

// controlFlowObject collapses any remaining constant-object dispatch table
// — obfuscator.io's shape for hiding operators and helper calls behind a
// map of short keys to functions — reusing the same inliner the preamble
// step uses for decoder wrappers, since the object-of-functions shape is
// identical whether it wraps a decoder or a plain operator.
func controlFlowObject(prog *jsast.Program, state *jsast.TransformState) {
	inlineObjectProps(prog, state)
}

// controlFlowSwitch un-flattens the narrow, common obfuscator.io shape:
// `while (true) { switch (x) { case "0": ...; continue; case "1": ...; } }`
// where the case tests are the decimal string sequence "0", "1", "2", ...
// and each case ends in continue/break with no other control transfer. When
// the shape matches exactly, the loop is replaced by its cases' bodies
// concatenated in order. Anything that doesn't match this exact shape is
// left untouched — flattening is an optimization here, not a requirement,
// and a missed case is always safer than a wrong rewrite.
func controlFlowSwitch(prog *jsast.Program, state *jsast.TransformState) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindWhileStatement] = func(p *jsast.Path) {
		ws := p.Node.(*jsast.WhileStatement)
		flat, ok := tryFlattenSwitchLoop(ws.Test, ws.Body)
		if !ok {
			return
		}
		p.ReplaceWith(&jsast.BlockStatement{Body: flat})
	}
	jsast.Walk(prog, v, state)
}

func tryFlattenSwitchLoop(test jsast.Node, body jsast.Node) ([]jsast.Node, bool) {
	b, ok := test.(*jsast.BooleanLiteral)
	if !ok || !b.Value {
		return nil, false
	}
	block, ok := body.(*jsast.BlockStatement)
	if !ok || len(block.Body) != 1 {
		return nil, false
	}
	sw, ok := block.Body[0].(*jsast.SwitchStatement)
	if !ok {
		return nil, false
	}
	var flat []jsast.Node
	for i, c := range sw.Cases {
		if c.Test == nil {
			return nil, false
		}
		s, ok := c.Test.(*jsast.StringLiteral)
		if !ok || s.Value != strconv.Itoa(i) {
			return nil, false
		}
		if len(c.Consequent) == 0 {
			return nil, false
		}
		last := c.Consequent[len(c.Consequent)-1]
		switch last.(type) {
		case *jsast.ContinueStatement, *jsast.BreakStatement:
			flat = append(flat, c.Consequent[:len(c.Consequent)-1]...)
		default:
			return nil, false
		}
	}
	return flat, true
}
