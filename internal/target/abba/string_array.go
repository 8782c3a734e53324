package abba

import (
	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/sandbox"
)

// hasStringArg reports whether args contains at least one string literal,
// the §4.6.1 trigger for treating a declarator's IIFE initializer as a
// string-array candidate.
func hasStringArg(args []jsast.Node) bool {
	for _, a := range args {
		if _, ok := a.(*jsast.StringLiteral); ok {
			return true
		}
	}
	return false
}

func probeExtractorCandidate(prog *jsast.Program) bool {
	found := false
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		d := p.Node.(*jsast.VariableDeclarator)
		call, ok := d.Init.(*jsast.CallExpression)
		if !ok {
			return
		}
		if _, ok := call.Callee.(*jsast.FunctionExpression); !ok {
			return
		}
		if hasStringArg(call.Args) {
			found = true
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return found
}

// stringArrayExtractor implements §4.6.1: every variable declarator whose
// initializer is an IIFE with a string-literal argument is regenerated as
// source, evaluated in a fresh sandbox binding with the declared name bound
// to undefined, and rewritten in place if the result is an array.
func stringArrayExtractor(prog *jsast.Program, ev *sandbox.Evaluator, state *jsast.TransformState, debug func(format string, args ...any)) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		d := p.Node.(*jsast.VariableDeclarator)
		if d.ID == nil || d.Init == nil {
			return
		}
		call, ok := d.Init.(*jsast.CallExpression)
		if !ok {
			return
		}
		if _, ok := call.Callee.(*jsast.FunctionExpression); !ok {
			return
		}
		if !hasStringArg(call.Args) {
			return
		}
		src := exprSource(call)
		val, err := ev.EvalWithBinding(d.ID.Name, ev.Undefined(), src)
		if err != nil {
			if debug != nil {
				debug("abba: string-array extractor eval failed for %s: %v", d.ID.Name, err)
			}
			return
		}
		elems, ok := toStringSlice(val)
		if !ok {
			return
		}
		nodes := make([]jsast.Node, len(elems))
		for i, s := range elems {
			nodes[i] = jsast.Str(s)
		}
		d.Init = &jsast.ArrayExpression{Elements: nodes}
		state.Changes++
	}
	jsast.Walk(prog, v, state)
}

func toStringSlice(val interface{ Export() interface{} }) ([]string, bool) {
	exported := val.Export()
	raw, ok := exported.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, len(raw))
	for i, e := range raw {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func probeRotatorCandidate(prog *jsast.Program) bool {
	found := false
	v := jsast.NewVisitor()
	v.Enter[jsast.KindExpressionStatement] = func(p *jsast.Path) {
		if found {
			return
		}
		es := p.Node.(*jsast.ExpressionStatement)
		call, ok := es.Expression.(*jsast.CallExpression)
		if !ok {
			return
		}
		fn, ok := call.Callee.(*jsast.FunctionExpression)
		if !ok || len(fn.Params) != 2 || len(call.Args) != 2 {
			return
		}
		if _, ok := call.Args[0].(*jsast.Identifier); !ok {
			return
		}
		if _, ok := call.Args[1].(*jsast.NumberLiteral); !ok {
			return
		}
		if bodyMentions(fn.Body, "push") && bodyMentions(fn.Body, "shift") {
			found = true
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return found
}

// stringArrayRotator implements §4.6.2: matches the rotating IIFE, resolves
// its target array through scope, rotates the array's element list in
// place by shift/push, and removes the IIFE.
func stringArrayRotator(prog *jsast.Program, state *jsast.TransformState) {
	root := jsast.Crawl(prog)
	v := jsast.NewVisitor()
	v.Enter[jsast.KindExpressionStatement] = func(p *jsast.Path) {
		es := p.Node.(*jsast.ExpressionStatement)
		call, ok := es.Expression.(*jsast.CallExpression)
		if !ok {
			return
		}
		fn, ok := call.Callee.(*jsast.FunctionExpression)
		if !ok || len(fn.Params) != 2 || len(call.Args) != 2 {
			return
		}
		idArg, ok := call.Args[0].(*jsast.Identifier)
		if !ok {
			return
		}
		numArg, ok := call.Args[1].(*jsast.NumberLiteral)
		if !ok {
			return
		}
		if !bodyMentions(fn.Body, "push") || !bodyMentions(fn.Body, "shift") {
			return
		}
		binding := root.GetBinding(idArg.Name)
		if binding == nil {
			return
		}
		decl, ok := binding.Decl.(*jsast.VariableDeclarator)
		if !ok {
			return
		}
		arr, ok := decl.Init.(*jsast.ArrayExpression)
		if !ok {
			return
		}
		rotation := int(numArg.Value)
		if hasPrefixIncrementFirstArg(fn.Body) {
			rotation++
		}
		// An empty target array still has its IIFE removed per the
		// documented boundary; there's just nothing to rotate.
		if n := len(arr.Elements); n > 0 {
			times := ((rotation % n) + n) % n
			for i := 0; i < times; i++ {
				arr.Elements = append(arr.Elements[1:], arr.Elements[0])
			}
		}
		state.Changes++
		p.Remove()
	}
	jsast.Walk(prog, v, state)
}
