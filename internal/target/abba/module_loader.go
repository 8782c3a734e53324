package abba

import (
	"strings"

	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// loaderInfo describes a custom module-loader function matched by §4.6.6.
type loaderInfo struct {
	Name     string
	Registry string
	Decl     *jsast.FunctionDeclaration
}

// findLocalAliasIdentifier looks for a variable declarator inside body whose
// initializer is a bare identifier not among params; that identifier is
// taken as the registry per §4.6.6 phase 1.
func findLocalAliasIdentifier(body *jsast.BlockStatement, params []string) string {
	alias := ""
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclarator] = func(p *jsast.Path) {
		if alias != "" {
			return
		}
		d := p.Node.(*jsast.VariableDeclarator)
		id, ok := d.Init.(*jsast.Identifier)
		if !ok || contains(params, id.Name) {
			return
		}
		alias = id.Name
	}
	jsast.Walk(&jsast.Program{Body: body.Body}, v, &jsast.TransformState{})
	return alias
}

// findLoader implements §4.6.6 phase 1.
func findLoader(prog *jsast.Program) *loaderInfo {
	var found *loaderInfo
	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		if found != nil {
			return
		}
		fd := p.Node.(*jsast.FunctionDeclaration)
		if fd.Name == nil || fd.Body == nil || len(fd.Params) != 2 {
			return
		}
		if !bodyMentions(fd.Body, "split") {
			return
		}
		params := paramNames(fd.Params)
		registry := findLocalAliasIdentifier(fd.Body, params)
		if registry == "" {
			return
		}
		found = &loaderInfo{Name: fd.Name.Name, Registry: registry, Decl: fd}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return found
}

// buildRegistryAccess builds the chained `registry["a"]["b"]…` member
// expression for the given dot-separated path segments.
func buildRegistryAccess(registry string, segments []string) jsast.Node {
	var node jsast.Node = jsast.Ident(registry)
	for _, seg := range segments {
		node = jsast.IndexInto(node, jsast.Str(seg))
	}
	return node
}

// rewriteLoaderCalls implements §4.6.6 phase 2: every call
// `loader(path, factory)` with a string-literal path and a function/arrow
// factory becomes `registry[a][b] = (factory)(registry[a][b])`.
func rewriteLoaderCalls(prog *jsast.Program, ld *loaderInfo, state *jsast.TransformState) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		call := p.Node.(*jsast.CallExpression)
		id, ok := call.Callee.(*jsast.Identifier)
		if !ok || id.Name != ld.Name || len(call.Args) != 2 {
			return
		}
		pathLit, ok := call.Args[0].(*jsast.StringLiteral)
		if !ok {
			return
		}
		switch call.Args[1].(type) {
		case *jsast.FunctionExpression, *jsast.ArrowFunctionExpression:
		default:
			return
		}
		segments := strings.Split(pathLit.Value, ".")
		left := buildRegistryAccess(ld.Registry, segments)
		existing := buildRegistryAccess(ld.Registry, segments)
		replacement := jsast.Assign(left, jsast.Call(call.Args[1], existing))
		p.ReplaceWith(replacement)
	}
	jsast.Walk(prog, v, state)
}

// runModuleLoaderResolver implements §4.6.6 end to end.
func runModuleLoaderResolver(prog *jsast.Program, state *jsast.TransformState) {
	ld := findLoader(prog)
	if ld == nil {
		return
	}
	rewriteLoaderCalls(prog, ld, state)

	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		if p.Node.(*jsast.FunctionDeclaration) == ld.Decl {
			p.Remove()
		}
	}
	jsast.Walk(prog, v, state)
}
