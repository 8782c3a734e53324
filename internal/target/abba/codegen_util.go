package abba

import (
	"strings"

	"github.com/jsrevert/deobfuscator/internal/codegen"
	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// exprSource renders n as a bare expression, for splicing into a
// hand-built sandbox evaluation wrapper.
func exprSource(n jsast.Node) string {
	s := codegen.Generate(&jsast.Program{Body: []jsast.Node{jsast.ExprStmt(n)}})
	return strings.TrimSuffix(s, ";\n")
}
