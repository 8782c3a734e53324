// Package obfio implements the obfuscator.io target of §4.5: detection and
// an eight-step pipeline that locates the canonical string array, the
// decoder functions built around it, and a call-site-by-call-site inliner
// that replaces every decoder call with its decoded string literal.
//
// Grounded on the teacher's internal/obfuscator package, which runs a fixed
// ordered pipeline of named passes over a tree and reports a change count
// per run (internal/obfuscator/obfuscator.go); the registry/Target split
// generalizes that single pipeline into one of several pluggable ones.
package obfio

import (
	"strconv"

	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/target"
)

// Target implements the obfuscator.io deobfuscation pipeline.
type Target struct{}

// New returns a ready-to-register obfuscator.io Target.
func New() *Target { return &Target{} }

func (t *Target) Meta() target.Meta {
	return target.Meta{
		ID:          "obfuscator-io",
		Name:        "obfuscator.io",
		Description: "reverses javascript-obfuscator's string-array and decoder-function scheme",
		Tags:        []string{"string-array", "decoder"},
	}
}

// Detect scores purely on whether a canonical string array is present,
// per §4.5: 0 base, +0.5 on a successful findStringArray, clamped to [0,1].
func (t *Target) Detect(prog *jsast.Program) *target.DetectResult {
	arr := findStringArray(prog)
	if arr == nil {
		return &target.DetectResult{Confidence: 0}
	}
	confidence := 0.5
	if confidence > 1 {
		confidence = 1
	}
	return &target.DetectResult{
		Confidence: confidence,
		Details:    "string array " + arr.Name + " with " + strconv.Itoa(len(arr.Elements)) + " elements",
	}
}

// Run executes the pipeline of §4.5 in order. No evaluator or no string
// array both make the target a no-op, matching the failure semantics the
// section specifies.
func (t *Target) Run(ctx *target.Context) error {
	if ctx.Sandbox == nil {
		return nil
	}
	arr := findStringArray(ctx.Program)
	if arr == nil {
		return nil
	}
	if ctx.Info != nil {
		ctx.Info("obfio: found string array %s (%d elements)", arr.Name, len(arr.Elements))
	}

	rotator := findArrayRotator(ctx.Program, arr)
	if rotator != nil {
		applyRotation(arr, rotator)
		if ctx.Info != nil {
			ctx.Info("obfio: applied array rotation (rotation=%d)", rotator.Rotation)
		}
	}

	decoders := findDecoders(ctx.Program, arr)
	if ctx.Info != nil {
		ctx.Info("obfio: found %d decoder function(s)", len(decoders))
	}

	inlineObjectProps(ctx.Program, ctx.State)

	for _, d := range decoders {
		inlineDecoderWrappers(ctx.Program, d, ctx.State)
	}

	vmd := newVMDecoder(ctx.Sandbox, arr, decoders)
	inlineDecodedStrings(ctx.Program, vmd, ctx.State, ctx.Debug)

	if len(decoders) > 0 {
		removePreamble(ctx.Program, arr, rotator, decoders, ctx.State)
	}

	runCleanupQuartet(ctx.Program, ctx.State)
	return nil
}
