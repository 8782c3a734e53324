package abba

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// bodyMentions is a cheap textual-approximation probe: it renders every
// identifier and property name reachable in body and reports whether text
// appears among them. Good enough for "does this body call push/shift" or
// "does this body reference split" without needing a full printer pass.
func bodyMentions(body *jsast.BlockStatement, text string) bool {
	var sb strings.Builder
	textualize(&sb, &jsast.BlockStatement{Body: body.Body})
	return strings.Contains(sb.String(), text)
}

func textualize(sb *strings.Builder, n jsast.Node) {
	switch t := n.(type) {
	case nil:
		return
	case *jsast.Identifier:
		sb.WriteString(t.Name)
		sb.WriteByte(' ')
	case *jsast.StringLiteral:
		sb.WriteString(t.Value)
		sb.WriteByte(' ')
	case *jsast.FunctionExpression:
		if t.Body != nil {
			textualize(sb, t.Body)
		}
	case *jsast.ArrowFunctionExpression:
		textualize(sb, t.Body)
	case *jsast.MemberExpression:
		textualize(sb, t.Object)
		textualize(sb, t.Property)
	case *jsast.CallExpression:
		textualize(sb, t.Callee)
		for _, a := range t.Args {
			textualize(sb, a)
		}
	case *jsast.NewExpression:
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
	case *jsast.TryStatement:
		if t.Block != nil {
			textualize(sb, t.Block)
		}
		if t.Handler != nil && t.Handler.Body != nil {
			textualize(sb, t.Handler.Body)
		}
		if t.Finalizer != nil {
			textualize(sb, t.Finalizer)
		}
	case *jsast.SwitchStatement:
		textualize(sb, t.Discriminant)
		for _, c := range t.Cases {
			for _, s := range c.Consequent {
				textualize(sb, s)
			}
		}
	}
}

// hasPrefixIncrementFirstArg reports whether any call inside body passes a
// prefix ++ update expression as its first argument, per §4.6.2's rotation
// bump rule.
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

func paramNames(params []jsast.Node) []string {
	var out []string
	for _, p := range params {
		if id, ok := p.(*jsast.Identifier); ok {
			out = append(out, id.Name)
		}
	}
	return out
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

// parseLiteralValue implements §4.6.3's "decimal or hexadecimal strings are
// parsed, numeric literals taken as-is" rule for a proxy call's first
// argument.
func parseLiteralValue(arg jsast.Node) (float64, bool) {
	switch a := arg.(type) {
	case *jsast.NumberLiteral:
		return a.Value, true
	case *jsast.StringLiteral:
		s := a.Value
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			n, err := strconv.ParseInt(s[2:], 16, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

var identifierNameRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func isSimpleIdentifierName(s string) bool {
	return identifierNameRe.MatchString(s)
}

// reservedWords is the ECMAScript keyword set the member simplifier (§4.6.5)
// must not fold a property access into, since `obj.class` etc. would be a
// syntax error even though `obj["class"]` is not.
var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "enum": true, "await": true, "implements": true,
	"package": true, "protected": true, "interface": true, "private": true,
	"public": true, "null": true, "true": true, "false": true,
}

func isReservedWord(s string) bool { return reservedWords[s] }
