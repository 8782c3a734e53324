package obfio

import (
	"strings"

	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// stringArrayInfo describes the canonical string array a decoder function
// indexes into.
type stringArrayInfo struct {
	Name     string
	Decl     *jsast.VariableDeclarator
	DeclStmt *jsast.VariableDeclaration // the statement Decl lives in
	Array    *jsast.ArrayExpression
	Elements []string // decoded copies, kept in sync by applyRotation
}

// findStringArray locates the canonical array declaration: the
// var/let/const declarator, anywhere in the tree, whose initializer is an
// array expression made entirely of string literals, preferring the
// largest candidate found.
func findStringArray(prog *jsast.Program) *stringArrayInfo {
	var best *stringArrayInfo
	v := jsast.NewVisitor()
	v.Enter[jsast.KindVariableDeclaration] = func(p *jsast.Path) {
		vd := p.Node.(*jsast.VariableDeclaration)
		for _, d := range vd.Declarations {
			arr, ok := d.Init.(*jsast.ArrayExpression)
			if !ok || d.ID == nil || len(arr.Elements) == 0 {
				continue
			}
			elems := make([]string, 0, len(arr.Elements))
			allStrings := true
			for _, el := range arr.Elements {
				s, ok := el.(*jsast.StringLiteral)
				if !ok {
					allStrings = false
					break
				}
				elems = append(elems, s.Value)
			}
			if !allStrings {
				continue
			}
			if best == nil || len(elems) > len(best.Elements) {
				best = &stringArrayInfo{
					Name:     d.ID.Name,
					Decl:     d,
					DeclStmt: vd,
					Array:    arr,
					Elements: elems,
				}
			}
		}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return best
}

// rotatorInfo describes the IIFE that pre-rotates the string array before
// any decoder reads from it.
type rotatorInfo struct {
	Stmt     *jsast.ExpressionStatement
	Rotation int
}

// findArrayRotator matches an IIFE statement shaped like obfuscator.io's
// self-invoking rotator: a called function expression of two parameters
// whose body textually mentions both push and shift and which references
// arr.Name as its first argument.
func findArrayRotator(prog *jsast.Program, arr *stringArrayInfo) *rotatorInfo {
	var found *rotatorInfo
	v := jsast.NewVisitor()
	v.Enter[jsast.KindExpressionStatement] = func(p *jsast.Path) {
		if found != nil {
			return
		}
		es := p.Node.(*jsast.ExpressionStatement)
		call, ok := es.Expression.(*jsast.CallExpression)
		if !ok {
			return
		}
		fn, ok := call.Callee.(*jsast.FunctionExpression)
		if !ok || len(fn.Params) != 2 || len(call.Args) < 1 {
			return
		}
		firstArgIdent, ok := call.Args[0].(*jsast.Identifier)
		if !ok || firstArgIdent.Name != arr.Name {
			return
		}
		src := bodySource(fn.Body)
		if !strings.Contains(src, "push") || !strings.Contains(src, "shift") {
			return
		}
		rotation := 0
		if len(call.Args) >= 2 {
			if n, ok := call.Args[1].(*jsast.NumberLiteral); ok {
				rotation = int(n.Value)
			}
		}
		if hasPrefixIncrementFirstArg(fn.Body) {
			rotation++
		}
		found = &rotatorInfo{Stmt: es, Rotation: rotation}
	}
	jsast.Walk(prog, v, &jsast.TransformState{})
	return found
}

// hasPrefixIncrementFirstArg reports whether any call inside body passes a
// prefix ++ update expression as its first argument, per §4.6.2's rotation
// bump rule (shared idiom with the Abba rotator).
func hasPrefixIncrementFirstArg(body *jsast.BlockStatement) bool {
	found := false
	v := jsast.NewVisitor()
	v.Enter[jsast.KindCallExpression] = func(p *jsast.Path) {
		call := p.Node.(*jsast.CallExpression)
		if len(call.Args) == 0 {
			return
		}
		u, ok := call.Args[0].(*jsast.UpdateExpression)
		if ok && u.Operator == "++" && u.Prefix {
			found = true
		}
	}
	jsast.Walk(&jsast.Program{Body: body.Body}, v, &jsast.TransformState{})
	return found
}

// applyRotation mutates arr's backing array expression and cached Elements
// by performing shift/push rotation mod len(Elements) times, matching
// §4.6.2's "rotation is shift/push repeated rotation mod length times".
func applyRotation(arr *stringArrayInfo, r *rotatorInfo) {
	n := len(arr.Elements)
	if n == 0 {
		return
	}
	times := r.Rotation % n
	if times < 0 {
		times += n
	}
	for i := 0; i < times; i++ {
		arr.Elements = append(arr.Elements[1:], arr.Elements[0])
		arr.Array.Elements = append(arr.Array.Elements[1:], arr.Array.Elements[0])
	}
}

func bodySource(body *jsast.BlockStatement) string {
	var sb strings.Builder
	for _, stmt := range body.Body {
		textualize(&sb, stmt)
	}
	return sb.String()
}

// textualize is a cheap approximation of source text good enough for
// substring probes ("does this body mention push/shift"); it does not need
// to be valid JavaScript, only to contain the right identifiers.
func textualize(sb *strings.Builder, n jsast.Node) {
	switch t := n.(type) {
	case nil:
		return
	case *jsast.Identifier:
		sb.WriteString(t.Name)
		sb.WriteByte(' ')
	case *jsast.MemberExpression:
		textualize(sb, t.Object)
		textualize(sb, t.Property)
	case *jsast.CallExpression:
		textualize(sb, t.Callee)
		for _, a := range t.Args {
			textualize(sb, a)
		}
	case *jsast.ExpressionStatement:
		textualize(sb, t.Expression)
	case *jsast.BlockStatement:
		for _, s := range t.Body {
			textualize(sb, s)
		}
	case *jsast.ReturnStatement:
		textualize(sb, t.Argument)
	case *jsast.IfStatement:
		textualize(sb, t.Test)
		textualize(sb, t.Consequent)
		textualize(sb, t.Alternate)
	case *jsast.WhileStatement:
		textualize(sb, t.Test)
		textualize(sb, t.Body)
	case *jsast.DoWhileStatement:
		textualize(sb, t.Body)
		textualize(sb, t.Test)
	case *jsast.ForStatement:
		textualize(sb, t.Init)
		textualize(sb, t.Test)
		textualize(sb, t.Update)
		textualize(sb, t.Body)
	case *jsast.AssignmentExpression:
		textualize(sb, t.Left)
		textualize(sb, t.Right)
	case *jsast.BinaryExpression:
		textualize(sb, t.Left)
		textualize(sb, t.Right)
	case *jsast.UnaryExpression:
		textualize(sb, t.Argument)
	case *jsast.UpdateExpression:
		textualize(sb, t.Argument)
	case *jsast.VariableDeclaration:
		for _, d := range t.Declarations {
			sb.WriteString(d.ID.Name)
			sb.WriteByte(' ')
			textualize(sb, d.Init)
		}
	}
}
