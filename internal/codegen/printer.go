// Package codegen turns a internal/jsast tree back into JavaScript source
// text, then runs it through a beautifier pass. Writing a bespoke printer
// here follows the same precedent as the teacher's custom_printer.go, which
// replaces the parser library's own printer for a use case it didn't cover
// (see DESIGN.md).
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// Generate renders prog as compact JavaScript source. It favors always
// parenthesizing nested expressions over precomputing precedence: an extra
// pair of parens never changes meaning, and the Beautify pass that follows
// is expected to reformat whitespace, not remove them.
func Generate(prog *jsast.Program) string {
	var sb strings.Builder
	for _, stmt := range prog.Body {
		printStmt(&sb, stmt)
	}
	return sb.String()
}

func printStmt(sb *strings.Builder, n jsast.Node) {
	switch t := n.(type) {
	case nil:
		return
	case *jsast.EmptyStatement:
		sb.WriteString(";\n")
	case *jsast.ExpressionStatement:
		printExpr(sb, t.Expression)
		sb.WriteString(";\n")
	case *jsast.VariableDeclaration:
		sb.WriteString(t.Kind)
		sb.WriteString(" ")
		for i, d := range t.Declarations {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.ID.Name)
			if d.Init != nil {
				sb.WriteString("=")
				printExpr(sb, d.Init)
			}
		}
		sb.WriteString(";\n")
	case *jsast.FunctionDeclaration:
		sb.WriteString("function ")
		if t.Name != nil {
			sb.WriteString(t.Name.Name)
		}
		printParams(sb, t.Params)
		printBlock(sb, t.Body)
	case *jsast.BlockStatement:
		printBlock(sb, t)
	case *jsast.IfStatement:
		sb.WriteString("if(")
		printExpr(sb, t.Test)
		sb.WriteString(")")
		printStmtAsBody(sb, t.Consequent)
		if t.Alternate != nil {
			sb.WriteString("else ")
			printStmtAsBody(sb, t.Alternate)
		}
	case *jsast.ForStatement:
		sb.WriteString("for(")
		printForClause(sb, t.Init)
		sb.WriteString(";")
		if t.Test != nil {
			printExpr(sb, t.Test)
		}
		sb.WriteString(";")
		if t.Update != nil {
			printExpr(sb, t.Update)
		}
		sb.WriteString(")")
		printStmtAsBody(sb, t.Body)
	case *jsast.WhileStatement:
		sb.WriteString("while(")
		printExpr(sb, t.Test)
		sb.WriteString(")")
		printStmtAsBody(sb, t.Body)
	case *jsast.DoWhileStatement:
		sb.WriteString("do")
		printStmtAsBody(sb, t.Body)
		sb.WriteString("while(")
		printExpr(sb, t.Test)
		sb.WriteString(");\n")
	case *jsast.ReturnStatement:
		sb.WriteString("return")
		if t.Argument != nil {
			sb.WriteString(" ")
			printExpr(sb, t.Argument)
		}
		sb.WriteString(";\n")
	case *jsast.BreakStatement:
		sb.WriteString("break")
		if t.Label != "" {
			sb.WriteString(" " + t.Label)
		}
		sb.WriteString(";\n")
	case *jsast.ContinueStatement:
		sb.WriteString("continue")
		if t.Label != "" {
			sb.WriteString(" " + t.Label)
		}
		sb.WriteString(";\n")
	case *jsast.ThrowStatement:
		sb.WriteString("throw ")
		printExpr(sb, t.Argument)
		sb.WriteString(";\n")
	case *jsast.TryStatement:
		sb.WriteString("try")
		printBlock(sb, t.Block)
		if t.Handler != nil {
			sb.WriteString("catch")
			if t.Handler.Param != nil {
				sb.WriteString("(" + t.Handler.Param.Name + ")")
			}
			printBlock(sb, t.Handler.Body)
		}
		if t.Finalizer != nil {
			sb.WriteString("finally")
			printBlock(sb, t.Finalizer)
		}
	case *jsast.SwitchStatement:
		sb.WriteString("switch(")
		printExpr(sb, t.Discriminant)
		sb.WriteString("){\n")
		for _, c := range t.Cases {
			if c.Test != nil {
				sb.WriteString("case ")
				printExpr(sb, c.Test)
				sb.WriteString(":\n")
			} else {
				sb.WriteString("default:\n")
			}
			for _, s := range c.Consequent {
				printStmt(sb, s)
			}
		}
		sb.WriteString("}\n")
	case *jsast.LabeledStatement:
		sb.WriteString(t.Label + ":")
		printStmt(sb, t.Body)
	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", n))
	}
}

func printForClause(sb *strings.Builder, n jsast.Node) {
	switch t := n.(type) {
	case nil:
		return
	case *jsast.VariableDeclaration:
		sb.WriteString(t.Kind + " ")
		for i, d := range t.Declarations {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(d.ID.Name)
			if d.Init != nil {
				sb.WriteString("=")
				printExpr(sb, d.Init)
			}
		}
	default:
		printExpr(sb, n)
	}
}

func printStmtAsBody(sb *strings.Builder, n jsast.Node) {
	if _, ok := n.(*jsast.BlockStatement); ok {
		printStmt(sb, n)
		return
	}
	sb.WriteString("{\n")
	printStmt(sb, n)
	sb.WriteString("}\n")
}

func printBlock(sb *strings.Builder, b *jsast.BlockStatement) {
	sb.WriteString("{\n")
	if b != nil {
		for _, s := range b.Body {
			printStmt(sb, s)
		}
	}
	sb.WriteString("}\n")
}

func printParams(sb *strings.Builder, params []jsast.Node) {
	sb.WriteString("(")
	for i, p := range params {
		if i > 0 {
			sb.WriteString(",")
		}
		if se, ok := p.(*jsast.SpreadElement); ok {
			sb.WriteString("...")
			printExpr(sb, se.Argument)
			continue
		}
		printExpr(sb, p)
	}
	sb.WriteString(")")
}

func printExpr(sb *strings.Builder, n jsast.Node) {
	switch t := n.(type) {
	case nil:
		return
	case *jsast.Identifier:
		sb.WriteString(t.Name)
	case *jsast.NumberLiteral:
		if t.Raw != "" {
			sb.WriteString(t.Raw)
		} else {
			sb.WriteString(formatNumber(t.Value))
		}
	case *jsast.StringLiteral:
		if t.Raw != "" {
			sb.WriteString(t.Raw)
		} else {
			sb.WriteString(quoteString(t.Value))
		}
	case *jsast.BooleanLiteral:
		sb.WriteString(strconv.FormatBool(t.Value))
	case *jsast.NullLiteral:
		sb.WriteString("null")
	case *jsast.TemplateLiteral:
		sb.WriteString(strings.Join(t.Quasis, ""))
	case *jsast.ArrayExpression:
		sb.WriteString("[")
		for i, e := range t.Elements {
			if i > 0 {
				sb.WriteString(",")
			}
			printExpr(sb, e)
		}
		sb.WriteString("]")
	case *jsast.ObjectExpression:
		sb.WriteString("{")
		for i, p := range t.Properties {
			if i > 0 {
				sb.WriteString(",")
			}
			printPropertyKey(sb, p.Key, p.Computed)
			sb.WriteString(":")
			printExpr(sb, p.Value)
		}
		sb.WriteString("}")
	case *jsast.FunctionExpression:
		sb.WriteString("function ")
		if t.Name != nil {
			sb.WriteString(t.Name.Name)
		}
		printParams(sb, t.Params)
		printBlock(sb, t.Body)
	case *jsast.ArrowFunctionExpression:
		printParams(sb, t.Params)
		sb.WriteString("=>")
		if t.ExprBody {
			printExpr(sb, t.Body)
		} else if bs, ok := t.Body.(*jsast.BlockStatement); ok {
			printBlock(sb, bs)
		}
	case *jsast.CallExpression:
		printCallee(sb, t.Callee)
		sb.WriteString("(")
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(",")
			}
			if sp, ok := a.(*jsast.SpreadElement); ok {
				sb.WriteString("...")
				printExpr(sb, sp.Argument)
				continue
			}
			printExpr(sb, a)
		}
		sb.WriteString(")")
	case *jsast.NewExpression:
		sb.WriteString("new ")
		printCallee(sb, t.Callee)
		sb.WriteString("(")
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(",")
			}
			printExpr(sb, a)
		}
		sb.WriteString(")")
	case *jsast.MemberExpression:
		printCallee(sb, t.Object)
		if t.Computed {
			sb.WriteString("[")
			printExpr(sb, t.Property)
			sb.WriteString("]")
		} else {
			sb.WriteString(".")
			printExpr(sb, t.Property)
		}
	case *jsast.AssignmentExpression:
		sb.WriteString("(")
		printExpr(sb, t.Left)
		sb.WriteString(t.Operator)
		printExpr(sb, t.Right)
		sb.WriteString(")")
	case *jsast.BinaryExpression:
		sb.WriteString("(")
		printExpr(sb, t.Left)
		sb.WriteString(t.Operator)
		printExpr(sb, t.Right)
		sb.WriteString(")")
	case *jsast.LogicalExpression:
		sb.WriteString("(")
		printExpr(sb, t.Left)
		sb.WriteString(t.Operator)
		printExpr(sb, t.Right)
		sb.WriteString(")")
	case *jsast.UnaryExpression:
		if isWordOperator(t.Operator) {
			sb.WriteString(t.Operator + " ")
		} else {
			sb.WriteString(t.Operator)
		}
		switch t.Argument.(type) {
		case *jsast.UnaryExpression, *jsast.UpdateExpression:
			sb.WriteString("(")
			printExpr(sb, t.Argument)
			sb.WriteString(")")
		default:
			printExpr(sb, t.Argument)
		}
	case *jsast.UpdateExpression:
		if t.Prefix {
			sb.WriteString(t.Operator)
			printExpr(sb, t.Argument)
		} else {
			printExpr(sb, t.Argument)
			sb.WriteString(t.Operator)
		}
	case *jsast.ConditionalExpression:
		sb.WriteString("(")
		printExpr(sb, t.Test)
		sb.WriteString("?")
		printExpr(sb, t.Consequent)
		sb.WriteString(":")
		printExpr(sb, t.Alternate)
		sb.WriteString(")")
	case *jsast.SequenceExpression:
		sb.WriteString("(")
		for i, e := range t.Expressions {
			if i > 0 {
				sb.WriteString(",")
			}
			printExpr(sb, e)
		}
		sb.WriteString(")")
	case *jsast.SpreadElement:
		sb.WriteString("...")
		printExpr(sb, t.Argument)
	default:
		panic(fmt.Sprintf("codegen: unhandled expression %T", n))
	}
}

// printCallee wraps function expressions and other non-atomic callees in
// parens, as required for an IIFE to remain syntactically a call rather
// than a function declaration.
func printCallee(sb *strings.Builder, n jsast.Node) {
	switch n.(type) {
	case *jsast.FunctionExpression, *jsast.ArrowFunctionExpression, *jsast.ConditionalExpression,
		*jsast.BinaryExpression, *jsast.LogicalExpression, *jsast.AssignmentExpression:
		sb.WriteString("(")
		printExpr(sb, n)
		sb.WriteString(")")
	default:
		printExpr(sb, n)
	}
}

func printPropertyKey(sb *strings.Builder, key jsast.Node, computed bool) {
	if computed {
		sb.WriteString("[")
		printExpr(sb, key)
		sb.WriteString("]")
		return
	}
	printExpr(sb, key)
}

func isWordOperator(op string) bool {
	return op == "typeof" || op == "void" || op == "delete"
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteString("\"")
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString("\\\"")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteString("\"")
	return sb.String()
}
