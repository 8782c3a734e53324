package abba

import "github.com/jsrevert/deobfuscator/internal/jsast"

// proxyInfo describes an index-proxy function matched by §4.6.3: a
// function that reads a free array by a parameter-derived index and
// returns the looked-up element.
type proxyInfo struct {
	Name     string
	Offset   float64
	Elements []string

	FuncDecl *jsast.FunctionDeclaration // set when the proxy is a function declaration
	VarDecl  *jsast.VariableDeclarator  // set when the proxy is `var x = function(){...}`
}

// analyzeProxyBody looks for a computed member read of a free identifier
// (the array) and an assignment whose right-hand side is
// `firstParam - numericLiteral` (the offset), per §4.6.3.
func analyzeProxyBody(params []jsast.Node, body *jsast.BlockStatement) (arrName string, offset float64, ok bool) {
	names := paramNames(params)
	var offsetFound bool
	v := jsast.NewVisitor()
	v.Enter[jsast.KindMemberExpression] = func(p *jsast.Path) {
		if arrName != "" {
			return
		}
		me := p.Node.(*jsast.MemberExpression)
		if !me.Computed {
			return
		}
		id, ok := me.Object.(*jsast.Identifier)
		if !ok || contains(names, id.Name) {
			return
		}
		arrName = id.Name
	}
	v.Enter[jsast.KindAssignmentExpression] = func(p *jsast.Path) {
		if offsetFound || len(names) == 0 {
			return
		}
		ae := p.Node.(*jsast.AssignmentExpression)
		be, ok := ae.Right.(*jsast.BinaryExpression)
		if !ok || be.Operator != "-" {
			return
		}
		idL, ok := be.Left.(*jsast.Identifier)
		if !ok || idL.Name != names[0] {
			return
		}
		num, ok := be.Right.(*jsast.NumberLiteral)
		if !ok {
			return
		}
		offset = num.Value
		offsetFound = true
	}
	jsast.Walk(&jsast.Program{Body: body.Body}, v, &jsast.TransformState{})
	if arrName == "" {
		return "", 0, false
	}
	return arrName, offset, true // offset defaults to 0 (its zero value) per §4.6.3
}

func resolveStringArray(root *jsast.Scope, name string) ([]string, bool) {
	binding := root.GetBinding(name)
	if binding == nil {
		return nil, false
	}
	decl, ok := binding.Decl.(*jsast.VariableDeclarator)
	if !ok {
		return nil, false
	}
	arr, ok := decl.Init.(*jsast.ArrayExpression)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr.Elements))
	for _, el := range arr.Elements {
		s, ok := el.(*jsast.StringLiteral)
		if !ok {
			return nil, false
		}
		out = append(out, s.Value)
	}
	return out, true
}

// findProxies scans function declarations and function-expression
// initializers with 1-2 parameters for the index-proxy shape.
func findProxies(prog *jsast.Program, root *jsast.Scope) []*proxyInfo {
	var out []*proxyInfo
	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		fd := p.Node.(*jsast.FunctionDeclaration)
		if fd.Name == nil || fd.Body == nil || len(fd.Params) < 1 || len(fd.Params) > 2 {
			return
		}
		arrName, offset, ok := analyzeProxyBody(fd.Params, fd.Body)
		if !ok {
			return
		}
		elems, ok := resolveStringArray(root, arrName)
		if !ok {
			return
		}
		out = append(out, &proxyInfo{Name: fd.Name.Name, Offset: offset, Elements: elems, FuncDecl: fd})
	}
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		d := p.Node.(*jsast.VariableDeclarator)
		if d.ID == nil {
			return
		}
		fn, ok := d.Init.(*jsast.FunctionExpression)
		if !ok || fn.Body == nil || len(fn.Params) < 1 || len(fn.Params) > 2 {
			return
		}
		arrName, offset, ok := analyzeProxyBody(fn.Params, fn.Body)
		if !ok {
			return
		}
		elems, ok := resolveStringArray(root, arrName)
		if !ok {
			return
		}
		out = append(out, &proxyInfo{Name: d.ID.Name, Offset: offset, Elements: elems, VarDecl: d})
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return out
}

// inlineProxyCalls replaces every call to px with literal first argument by
// the corresponding string, per §4.6.3 phase 2.
func inlineProxyCalls(prog *jsast.Program, px *proxyInfo, state *jsast.TransformState) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		call := p.Node.(*jsast.CallExpression)
		id, ok := call.Callee.(*jsast.Identifier)
		if !ok || id.Name != px.Name || len(call.Args) == 0 {
			return
		}
		value, ok := parseLiteralValue(call.Args[0])
		if !ok {
			return
		}
		idx := int(value - px.Offset)
		if idx < 0 || idx >= len(px.Elements) {
			return
		}
		p.ReplaceWith(jsast.Str(px.Elements[idx]))
	}
	jsast.Walk(prog, v, state)
}

// removeProxyDecls deletes every proxy's own declaration, per §4.6.3's "on
// program exit, the proxy declaration is removed."
func removeProxyDecls(prog *jsast.Program, proxies []*proxyInfo, state *jsast.TransformState) {
	funcDecls := map[*jsast.FunctionDeclaration]bool{}
	varDecls := map[*jsast.VariableDeclarator]bool{}
	for _, px := range proxies {
		if px.FuncDecl != nil {
			funcDecls[px.FuncDecl] = true
		}
		if px.VarDecl != nil {
			varDecls[px.VarDecl] = true
		}
	}
	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		if funcDecls[p.Node.(*jsast.FunctionDeclaration)] {
			p.Remove()
		}
	}
	v.Enter[jsast.KindVariableDeclaration] = func(p *jsast.Path) {
		vd := p.Node.(*jsast.VariableDeclaration)
		kept := vd.Declarations[:0]
		for _, d := range vd.Declarations {
			if varDecls[d] {
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

// runProxyInliner implements §4.6.3 end to end.
func runProxyInliner(prog *jsast.Program, state *jsast.TransformState) {
	root := jsast.Crawl(prog)
	proxies := findProxies(prog, root)
	if len(proxies) == 0 {
		return
	}
	for _, px := range proxies {
		inlineProxyCalls(prog, px, state)
	}
	removeProxyDecls(prog, proxies, state)
}
