// Package abba implements the Abba target of §4.6: seven ordered,
// independently-reporting transforms that undo a family of obfuscation
// built from a rotating self-invoking string array, index-proxy functions,
// and a split-path module loader, rather than javascript-obfuscator's own
// decoder/array scheme (see internal/target/obfio for that one).
//
// Grounded on the teacher's internal/obfuscator package's fixed pipeline of
// named passes (internal/obfuscator/obfuscator.go) and its
// parent-tracker-plus-replacer idiom for the two unsafe, tree-mutating
// transforms (internal/transformer/parent_tracker.go,
// internal/transformer/node_replacer.go).
package abba

import (
	"github.com/jsrevert/deobfuscator/internal/deadcode"
	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/target"
)

// Target implements the Abba deobfuscation pipeline.
type Target struct{}

// New returns a ready-to-register Abba Target.
func New() *Target { return &Target{} }

func (t *Target) Meta() target.Meta {
	return target.Meta{
		ID:          "abba",
		Name:        "Abba",
		Description: "reverses the rotating-array/proxy/module-loader obfuscation family",
		Tags:        []string{"string-array", "proxy", "module-loader"},
	}
}

// Detect sums weighted evidence for each of the four structural shapes this
// target knows how to undo, clamped to [0,1]. The specification leaves
// Abba's own detection weights unspecified (unlike obfuscator.io's explicit
// 0/+0.5 rule in §4.5); this additive scheme follows the same shape for
// consistency between the two targets.
func (t *Target) Detect(prog *jsast.Program) *target.DetectResult {
	confidence := 0.0
	var details []string

	if probeExtractorCandidate(prog) {
		confidence += 0.4
		details = append(details, "string-array IIFE")
	}
	if probeRotatorCandidate(prog) {
		confidence += 0.2
		details = append(details, "array rotator")
	}
	root := jsast.Crawl(prog)
	if len(findProxies(prog, root)) > 0 {
		confidence += 0.25
		details = append(details, "index proxy")
	}
	if findLoader(prog) != nil {
		confidence += 0.15
		details = append(details, "module loader")
	}
	if confidence > 1 {
		confidence = 1
	}
	return &target.DetectResult{Confidence: confidence, Details: joinDetails(details)}
}

func joinDetails(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Run executes the seven transforms of §4.6 in order. Each reports its own
// change count into ctx.State and logs a one-line summary through ctx.Info,
// per the section's header sentence.
func (t *Target) Run(ctx *target.Context) error {
	if ctx.Sandbox != nil {
		before := ctx.State.Changes
		stringArrayExtractor(ctx.Program, ctx.Sandbox, ctx.State, ctx.Debug)
		if ctx.Info != nil {
			ctx.Info("abba: string-array extractor made %d change(s)", ctx.State.Changes-before)
		}
	} else if ctx.Debug != nil {
		ctx.Debug("abba: no sandbox provided, skipping string-array extractor")
	}

	before := ctx.State.Changes
	stringArrayRotator(ctx.Program, ctx.State)
	if ctx.Info != nil {
		ctx.Info("abba: string-array rotator made %d change(s)", ctx.State.Changes-before)
	}

	before = ctx.State.Changes
	runProxyInliner(ctx.Program, ctx.State)
	if ctx.Info != nil {
		ctx.Info("abba: proxy inliner made %d change(s)", ctx.State.Changes-before)
	}

	before = ctx.State.Changes
	stringNormalizer(ctx.Program, ctx.State)
	if ctx.Info != nil {
		ctx.Info("abba: string normalizer made %d change(s)", ctx.State.Changes-before)
	}

	before = ctx.State.Changes
	memberSimplifier(ctx.Program, ctx.State)
	if ctx.Info != nil {
		ctx.Info("abba: member-expression simplifier made %d change(s)", ctx.State.Changes-before)
	}

	before = ctx.State.Changes
	runModuleLoaderResolver(ctx.Program, ctx.State)
	if ctx.Info != nil {
		ctx.Info("abba: module-loader resolver made %d change(s)", ctx.State.Changes-before)
	}

	before = ctx.State.Changes
	deadcode.Run(ctx.Program, ctx.State)
	if ctx.Info != nil {
		ctx.Info("abba: dead-code removal made %d change(s)", ctx.State.Changes-before)
	}
	return nil
}
