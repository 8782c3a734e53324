package codegen

import (
	"github.com/ditashi/jsbeautifier-go/jsbeautifier"
	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// GenerateAndBeautify is the facade's "generate source from a node"
// operation (§4.1): print prog to compact JavaScript and run it through
// jsbeautifier-go so the caller gets readable output, the same final step
// the teacher's printer.NewPrinter + custom_printer.go pair performs for
// PHP (see DESIGN.md).
func GenerateAndBeautify(prog *jsast.Program) (string, error) {
	src := Generate(prog)
	opts := jsbeautifier.DefaultOptions()
	return jsbeautifier.Beautify(&src, opts)
}
