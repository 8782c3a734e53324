package obfio

import (
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/jsrevert/deobfuscator/internal/codegen"
	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/sandbox"
)

// decoderInfo is a function declaration that indexes the string array,
// directly or through an intermediate offset, to translate a numeric
// argument into a decoded string.
type decoderInfo struct {
	Name string
	Decl *jsast.FunctionDeclaration
}

// findDecoders returns every function declaration whose body reads the
// string array through a computed member expression, per §4.5 step 3.
func findDecoders(prog *jsast.Program, arr *stringArrayInfo) []*decoderInfo {
	var out []*decoderInfo
	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		fd := p.Node.(*jsast.FunctionDeclaration)
		if fd.Name == nil || fd.Body == nil {
			return
		}
		if referencesArray(fd.Body, arr.Name) {
			out = append(out, &decoderInfo{Name: fd.Name.Name, Decl: fd})
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return out
}

func referencesArray(body *jsast.BlockStatement, arrName string) bool {
	found := false
	v := jsast.NewVisitor()
	v.Enter[jsast.KindMemberExpression] = func(p *jsast.Path) {
		me := p.Node.(*jsast.MemberExpression)
		if !me.Computed {
			return
		}
		if id, ok := me.Object.(*jsast.Identifier); ok && id.Name == arrName {
			found = true
		}
	}
	jsast.Walk(&jsast.Program{Body: body.Body}, v, &jsast.TransformState{})
	return found
}

// collectObjectProxies finds every variable declarator whose initializer is
// an object literal made entirely of function-valued properties — the
// "constant-object proxy" §4.5 step 4 describes — keyed by the declared
// name and then by property key.
func collectObjectProxies(prog *jsast.Program) map[string]map[string]*jsast.FunctionExpression {
	objects := map[string]map[string]*jsast.FunctionExpression{}
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclaration] = func(p *jsast.Path) {
		vd := p.Node.(*jsast.VariableDeclaration)
		for _, d := range vd.Declarations {
			obj, ok := d.Init.(*jsast.ObjectExpression)
			if !ok || d.ID == nil || len(obj.Properties) == 0 {
				continue
			}
			props := map[string]*jsast.FunctionExpression{}
			allFuncs := true
			for _, prop := range obj.Properties {
				fn, ok := prop.Value.(*jsast.FunctionExpression)
				if !ok {
					allFuncs = false
					break
				}
				key := propertyKeyLiteral(prop.Key)
				if key == "" {
					allFuncs = false
					break
				}
				props[key] = fn
			}
			if allFuncs {
				objects[d.ID.Name] = props
			}
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return objects
}

func propertyKeyLiteral(key jsast.Node) string {
	switch k := key.(type) {
	case *jsast.Identifier:
		return k.Name
	case *jsast.StringLiteral:
		return k.Value
	default:
		return ""
	}
}

func memberKeyLiteral(me *jsast.MemberExpression) string {
	if me.Computed {
		if s, ok := me.Property.(*jsast.StringLiteral); ok {
			return s.Value
		}
		return ""
	}
	if id, ok := me.Property.(*jsast.Identifier); ok {
		return id.Name
	}
	return ""
}

// inlineObjectProps collapses every call through a constant-object proxy
// into a direct call of the function value it dispatches to, per §4.5
// step 4.
func inlineObjectProps(prog *jsast.Program, state *jsast.TransformState) {
	objects := collectObjectProxies(prog)
	if len(objects) == 0 {
		return
	}
	v := jsast.NewVisitor()
	v.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		call := p.Node.(*jsast.CallExpression)
		me, ok := call.Callee.(*jsast.MemberExpression)
		if !ok {
			return
		}
		objID, ok := me.Object.(*jsast.Identifier)
		if !ok {
			return
		}
		props, ok := objects[objID.Name]
		if !ok {
			return
		}
		key := memberKeyLiteral(me)
		fn, ok := props[key]
		if !ok {
			return
		}
		call.Callee = fn
		state.Changes++
	}
	jsast.Walk(prog, v, state)
}

// findWrapperNames returns the set of function names that do nothing but
// forward their call to decoder, per §4.5 step 5's "wrapper" shape: a
// single return statement calling the decoder directly.
func findWrapperNames(prog *jsast.Program, decoder *decoderInfo) map[string]bool {
	names := map[string]bool{}
	v := jsast.NewVisitor()
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		fd := p.Node.(*jsast.FunctionDeclaration)
		if fd.Name == nil || fd.Name.Name == decoder.Name || fd.Body == nil || len(fd.Body.Body) != 1 {
			return
		}
		ret, ok := fd.Body.Body[0].(*jsast.ReturnStatement)
		if !ok || ret.Argument == nil {
			return
		}
		call, ok := ret.Argument.(*jsast.CallExpression)
		if !ok {
			return
		}
		id, ok := call.Callee.(*jsast.Identifier)
		if !ok || id.Name != decoder.Name {
			return
		}
		names[fd.Name.Name] = true
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return names
}

// inlineDecoderWrappers retargets every call to a forwarding wrapper so it
// reaches decoder directly, per §4.5 step 5.
func inlineDecoderWrappers(prog *jsast.Program, decoder *decoderInfo, state *jsast.TransformState) {
	wrappers := findWrapperNames(prog, decoder)
	if len(wrappers) == 0 {
		return
	}
	v := jsast.NewVisitor()
	v.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		call := p.Node.(*jsast.CallExpression)
		id, ok := call.Callee.(*jsast.Identifier)
		if ok && wrappers[id.Name] {
			id.Name = decoder.Name
			state.Changes++
		}
	}
	jsast.Walk(prog, v, state)
}

// VMDecoder evaluates decoder calls in the bounded sandbox against a
// self-contained reconstruction of the array and decoder declarations, per
// §4.5 step 6.
type VMDecoder struct {
	sandbox  *sandbox.Evaluator
	arr      *stringArrayInfo
	decoders map[string]*decoderInfo
}

func newVMDecoder(sb *sandbox.Evaluator, arr *stringArrayInfo, decoders []*decoderInfo) *VMDecoder {
	m := make(map[string]*decoderInfo, len(decoders))
	for _, d := range decoders {
		m[d.Name] = d
	}
	return &VMDecoder{sandbox: sb, arr: arr, decoders: m}
}

func (d *VMDecoder) arrayLiteralSource() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, s := range d.arr.Elements {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(s))
	}
	sb.WriteByte(']')
	return sb.String()
}

func (d *VMDecoder) decoderSource() string {
	var sb strings.Builder
	for _, dec := range d.decoders {
		sb.WriteString(codegen.Generate(&jsast.Program{Body: []jsast.Node{dec.Decl}}))
	}
	return sb.String()
}

// exprSource renders n as a bare expression (no trailing statement
// terminator), for splicing into a hand-built evaluation wrapper.
func exprSource(n jsast.Node) string {
	s := codegen.Generate(&jsast.Program{Body: []jsast.Node{jsast.ExprStmt(n)}})
	return strings.TrimSuffix(s, ";\n")
}

// Eval reconstructs call's evaluation context (the array, every known
// decoder) as a self-invoking function and runs it in the sandbox,
// returning the decoded string on success.
func (d *VMDecoder) Eval(call *jsast.CallExpression) (string, bool) {
	src := "(function(){\nvar " + d.arr.Name + " = " + d.arrayLiteralSource() + ";\n" +
		d.decoderSource() + "\nreturn (" + exprSource(call) + ");\n})()"
	val, err := d.sandbox.Eval(src)
	if err != nil {
		return "", false
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "", false
	}
	return val.String(), true
}

// inlineDecodedStrings replaces every call to a known decoder with the
// string literal it evaluates to, leaving failures untouched, per §4.5
// step 6's final sentence.
func inlineDecodedStrings(prog *jsast.Program, vmd *VMDecoder, state *jsast.TransformState, debug func(format string, args ...any)) {
	v := jsast.NewVisitor()
	v.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		call := p.Node.(*jsast.CallExpression)
		id, ok := call.Callee.(*jsast.Identifier)
		if !ok {
			return
		}
		if _, isDecoder := vmd.decoders[id.Name]; !isDecoder {
			return
		}
		if result, ok := vmd.Eval(call); ok {
			p.ReplaceWith(jsast.Str(result))
		} else if debug != nil {
			debug("obfio: decoder call to %s failed to evaluate, left unchanged", id.Name)
		}
	}
	jsast.Walk(prog, v, state)
}

// removePreamble deletes the array declaration, the rotator IIFE (if any),
// and every decoder declaration, then credits exactly 2+|decoders| changes
// per §4.5 step 7 regardless of how many individual nodes were spliced out.
func removePreamble(prog *jsast.Program, arr *stringArrayInfo, rotator *rotatorInfo, decoders []*decoderInfo, state *jsast.TransformState) {
	decoderSet := make(map[*jsast.FunctionDeclaration]bool, len(decoders))
	for _, d := range decoders {
		decoderSet[d.Decl] = true
	}
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclaration] = func(p *jsast.Path) {
		vd := p.Node.(*jsast.VariableDeclaration)
		if vd != arr.DeclStmt {
			return
		}
		kept := vd.Declarations[:0]
		for _, d := range vd.Declarations {
			if d == arr.Decl {
				continue
			}
			kept = append(kept, d)
		}
		vd.Declarations = kept
		if len(vd.Declarations) == 0 {
			p.Remove()
		}
	}
	v.Enter[jsast.KindExpressionStatement] = func(p *jsast.Path) {
		if rotator != nil && p.Node.(*jsast.ExpressionStatement) == rotator.Stmt {
			p.Remove()
		}
	}
	v.Enter[jsast.KindFunctionDeclaration] = func(p *jsast.Path) {
		fd := p.Node.(*jsast.FunctionDeclaration)
		if decoderSet[fd] {
			p.Remove()
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	state.Changes += 2 + len(decoders)
}
