package abba

import "github.com/jsrevert/deobfuscator/internal/jsast"

// stringNormalizer implements §4.6.4: clears the verbatim source text
// carried on string and number literals so the printer falls back to
// re-rendering Value, collapsing quote-style and numeric-base obfuscation.
func stringNormalizer(prog *jsast.Program, state *jsast.TransformState) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindStringLiteral] = func(p *jsast.Path) {
		s := p.Node.(*jsast.StringLiteral)
		if s.Raw == "" {
			return
		}
		s.Raw = ""
		state.Changes++
	}
	v.Enter[jsast.KindNumberLiteral] = func(p *jsast.Path) {
		n := p.Node.(*jsast.NumberLiteral)
		if n.Raw == "" {
			return
		}
		n.Raw = ""
		state.Changes++
	}
	jsast.Walk(prog, v, state)
}

// memberSimplifier implements §4.6.5: rewrites `obj["name"]` into `obj.name`
// whenever the key is a legal, non-reserved identifier, undoing a common
// readability-degrading transform that itself changes no runtime behavior.
func memberSimplifier(prog *jsast.Program, state *jsast.TransformState) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindMemberExpression] = func(p *jsast.Path) {
		me := p.Node.(*jsast.MemberExpression)
		if !me.Computed {
			return
		}
		s, ok := me.Property.(*jsast.StringLiteral)
		if !ok {
			return
		}
		if !isSimpleIdentifierName(s.Value) || isReservedWord(s.Value) {
			return
		}
		me.Computed = false
		me.Property = jsast.Ident(s.Value)
		state.Changes++
	}
	jsast.Walk(prog, v, state)
}
