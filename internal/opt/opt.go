// Package opt implements the local optimization passes: constant
// folding/simplification of arithmetic, and hoisting loop-invariant
// allocas out of loop bodies. Both run after CFG construction, dominator
// computation, and SSA renaming.
package opt

import "nanocc/internal/ir"

// Pass is one optimization transformation over a function's instruction
// list.
type Pass interface {
	Name() string
	Description() string
	Apply(head *ir.Node) (newHead *ir.Node, changed bool)
}

// Pipeline runs a fixed sequence of passes in order.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds the default pipeline: constant folding, then
// loop-invariant alloca reordering.
func NewPipeline() *Pipeline {
	return &Pipeline{passes: []Pass{&ConstantFold{}, &Reorder{}}}
}

// Run applies every pass in sequence, threading the (possibly updated)
// head through each, and reports whether any pass changed the function.
func (p *Pipeline) Run(head *ir.Node) (*ir.Node, bool) {
	changedAny := false
	for _, pass := range p.passes {
		var changed bool
		head, changed = pass.Apply(head)
		changedAny = changedAny || changed
	}
	return head, changedAny
}

func listNodes(head *ir.Node) []*ir.Node {
	var out []*ir.Node
	for n := head; n != nil; n = n.Next {
		out = append(out, n)
	}
	return out
}

// renumber reassigns dense, zero-based InstrIdx values starting at head,
// an invariant both passes must preserve, then resyncs every jump/cond
// target from its cached node so a shifted target's index is reflected
// back into Jump.TargetIdx/Cond.GotoIdx.
func renumber(head *ir.Node) {
	i := 0
	for n := head; n != nil; n = n.Next {
		n.InstrIdx = i
		i++
	}
	ir.ResyncJumpTargets(head)
}
