// Package deadcode implements the scope-aware dead-code removal of §4.7:
// a fixpoint loop over the whole tree that removes bindings left with zero
// live references, filtering out ghost references (§9) along the way.
package deadcode

import "github.com/jsrevert/deobfuscator/internal/jsast"

// Run removes unreferenced function declarations and variable declarators
// with pure initializers, iterating to a fixed point because removing one
// binding can make others dead in turn (§4.7's rationale: cascading
// removals leave a tail of declarations that reference only each other).
func Run(prog *jsast.Program, state *jsast.TransformState) {
	for {
		before := state.Changes
		removePass(prog, state)
		if state.Changes == before {
			break
		}
	}
	cleanupPass(prog, state)
}

// removePass crawls scope fresh (so liveness reflects the previous pass's
// removals), then walks the tree once, deleting each dead declaration it
// finds.
func removePass(prog *jsast.Program, state *jsast.TransformState) {
	root := jsast.Crawl(prog)
	bindings := jsast.AllBindings(root)

	deadFuncs := map[*jsast.FunctionDeclaration]bool{}
	deadVars := map[*jsast.VariableDeclarator]bool{}
	for _, b := range bindings {
		if b.Referenced() {
			continue
		}
		switch d := b.Decl.(type) {
		case *jsast.FunctionDeclaration:
			deadFuncs[d] = true
		case *jsast.VariableDeclarator:
			if b.PureInitializer() {
				deadVars[d] = true
			}
		}
	}
	if len(deadFuncs) == 0 && len(deadVars) == 0 {
		return
	}

	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		fd := p.Node.(*jsast.FunctionDeclaration)
		if deadFuncs[fd] {
			p.Remove()
		}
	}
	v.Enter[jsast.KindVariableDeclaration] = func(p *jsast.Path) {
		vd := p.Node.(*jsast.VariableDeclaration)
		kept := vd.Declarations[:0]
		for _, d := range vd.Declarations {
			if deadVars[d] {
				continue
			}
			kept = append(kept, d)
		}
		vd.Declarations = kept
		if len(vd.Declarations) == 0 {
			p.Remove()
		}
	}
	jsast.Walk(prog, v, state)
}

// cleanupPass removes variable declarations whose declarator list has
// already become empty by some other means, and any stray empty
// statements, as the final step §4.7 describes.
func cleanupPass(prog *jsast.Program, state *jsast.TransformState) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclaration] = func(p *jsast.Path) {
		vd := p.Node.(*jsast.VariableDeclaration)
		if len(vd.Declarations) == 0 {
			p.Remove()
		}
	}
	v.Enter[jsast.KindEmptyStatement] = func(p *jsast.Path) {
		p.Remove()
	}
	jsast.Walk(prog, v, state)
}
