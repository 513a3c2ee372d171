package diag

import "fmt"

// Fatal is returned by a pass that cannot usefully continue past a
// single diagnostic (malformed input, an I/O failure reading the AST):
// an ordinary Go error, propagated up through normal error returns,
// rather than a panic. Most diagnostics are collected into a Bag and
// do not use Fatal; Fatal is for the small set of conditions where
// collecting more diagnostics from the same unit is meaningless.
type Fatal struct {
	Diagnostic Diagnostic
}

func (f *Fatal) Error() string {
	return fmt.Sprintf("%s: %s", f.Diagnostic.Code, f.Diagnostic.Message)
}

func NewFatal(d Diagnostic) *Fatal { return &Fatal{Diagnostic: d} }

// internalPanic is raised only for conditions that indicate a bug in
// the compiler itself, never a problem with the input program: an IR
// generator that left a jump unpatched, or a node-kind switch that
// fell through its default case. These can never be triggered by a
// well-formed AST and so are not diagnostics; they are unreachable in
// a correct compiler, and are reported as such if they ever fire.
func internalPanic(reason string) {
	panic("nanocc: internal invariant violation (unreachable): " + reason)
}

// UnresolvedJumpTarget panics: an IR jump/cond node's target index was
// never patched to a concrete instr_idx before CFG construction.
func UnresolvedJumpTarget(nodeIdx int) {
	internalPanic(fmt.Sprintf("UNRESOLVED-JUMP-TARGET at instr_idx=%d", nodeIdx))
}

// UnknownNodeKind panics: a type switch over an IR or AST node kind
// reached a case it has no branch for.
func UnknownNodeKind(kind any) {
	internalPanic(fmt.Sprintf("UNKNOWN-NODE-KIND: %v", kind))
}
