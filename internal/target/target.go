// Package target defines the target contract and registry of §4.4 and §6:
// the pluggable obfuscation-family handlers the deobfuscation entry point
// dispatches to, and the errors each can raise.
package target

import (
	"fmt"

	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/sandbox"
)

// LogFunc implements the §6 "Log contract": two levels, info for per-step
// summaries, debug for per-node traces (only emitted when DebugLogging is
// on).
type LogFunc func(level, message string)

// Meta is a target's identifying metadata (§6 "Target contract").
type Meta struct {
	ID          string
	Name        string
	Description string
	Tags        []string
}

// DetectResult is what a target's Detect returns: a confidence in [0,1]
// plus free-form details for logging.
type DetectResult struct {
	Confidence float64
	Details    string
}

// Context is the bundle handed to a running target (§3
// DeobfuscatorContext): the tree, its TransformState, an optional evaluator
// handle, and the two log sinks.
type Context struct {
	Program   *jsast.Program
	State     *jsast.TransformState
	Sandbox   *sandbox.Evaluator // nil if none was supplied
	Info      func(format string, args ...any)
	Debug     func(format string, args ...any)
	Threshold float64
}

// Target is the contract every obfuscation family implements (§6).
type Target interface {
	Meta() Meta
	// Detect returns nil if this target has no opinion about tree.
	Detect(prog *jsast.Program) *DetectResult
	// Run executes the target's pipeline against ctx.
	Run(ctx *Context) error
}

// UnknownTargetError is returned when the caller names a target id the
// registry doesn't have (§7, fatal to the run).
type UnknownTargetError struct{ ID string }

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("target: unknown target %q", e.ID)
}

// PatternMismatch is returned by a probe that expected one syntactic shape
// and found another (§7, local: the candidate is skipped).
type PatternMismatch struct{ Detail string }

func (e *PatternMismatch) Error() string { return "target: pattern mismatch: " + e.Detail }

// DetectionError wraps a panic/error recovered from a target's Detect
// (§7, local to the registry: the target is omitted from the detection
// list).
type DetectionError struct {
	TargetID string
	Err      error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("target: detection failed for %q: %v", e.TargetID, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }
