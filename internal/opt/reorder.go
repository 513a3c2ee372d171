package opt

import "nanocc/internal/ir"

// Reorder hoists loop-invariant allocas out of their enclosing loop
// body. An alloca is hoisted only when (a) its loop has a single exit
// block, and (b) no store to the alloca's variable inside the loop body
// reads a variable that is stored to elsewhere in the loop body — i.e.
// its value does not depend on the loop's
// induction variable or any other loop-variant value. This is a
// conservative predicate: no dependence on loop induction variables,
// no aliasing.
type Reorder struct{}

func (*Reorder) Name() string { return "reorder-loop-invariant-allocas" }

func (*Reorder) Description() string {
	return "hoists loop-invariant allocas above their loop header"
}

func (r *Reorder) Apply(head *ir.Node) (*ir.Node, bool) {
	changed := false
	for _, loop := range findNaturalLoops(head) {
		if !loop.singleExit() {
			continue
		}
		for _, n := range listNodes(head) {
			if n.Kind != ir.KindAlloca || !loop.body[n] {
				continue
			}
			if !r.isInvariant(n, loop) {
				continue
			}
			if hoist(&head, n, loop.header) {
				changed = true
			}
		}
	}
	if changed {
		renumber(head)
	}
	return head, changed
}

// isInvariant checks whether any store to allocaNode's variable inside
// the loop body reads a symbol that is stored to elsewhere in the loop
// body.
func (r *Reorder) isInvariant(allocaNode *ir.Node, loop *naturalLoop) bool {
	bodyDefs := map[int]bool{}
	for n := range loop.body {
		if n.Kind == ir.KindStore && n.Store.Dest != nil && n.Store.Dest.Kind == ir.KindSym {
			if n.Store.Dest.Sym.Idx != allocaNode.Alloca.Idx {
				bodyDefs[n.Store.Dest.Sym.Idx] = true
			}
		}
	}

	for n := range loop.body {
		if n.Kind != ir.KindStore || n.Store.Dest == nil || n.Store.Dest.Kind != ir.KindSym {
			continue
		}
		if n.Store.Dest.Sym.Idx != allocaNode.Alloca.Idx {
			continue
		}
		if dependsOn(n.Store.Body, bodyDefs) {
			return false
		}
	}
	return true
}

func dependsOn(node *ir.Node, bodyDefs map[int]bool) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case ir.KindSym:
		return bodyDefs[node.Sym.Idx]
	case ir.KindBin:
		return dependsOn(node.Bin.Lhs, bodyDefs) || dependsOn(node.Bin.Rhs, bodyDefs)
	case ir.KindMember:
		return dependsOn(node.Member.Target, bodyDefs)
	}
	return false
}

// hoist detaches n from its current position and splices it immediately
// before header, updating head if n was (or becomes) the list's first
// node. Returns true if the move actually changed position.
func hoist(head **ir.Node, n, header *ir.Node) bool {
	if n == header || n.Next == header {
		return false
	}

	prev, next := n.Prev, n.Next
	if prev != nil {
		prev.Next = next
	} else {
		*head = next
	}
	if next != nil {
		next.Prev = prev
	}

	beforeHeader := header.Prev
	n.Prev = beforeHeader
	n.Next = header
	header.Prev = n
	if beforeHeader != nil {
		beforeHeader.Next = n
	} else {
		*head = n
	}
	return true
}

// naturalLoop is the set of nodes reachable from a back edge's source
// without passing through the header, per the standard natural-loop
// construction.
type naturalLoop struct {
	header *ir.Node
	body   map[*ir.Node]bool
}

func (l *naturalLoop) singleExit() bool {
	exits := map[*ir.Node]bool{}
	for n := range l.body {
		for _, s := range n.CFG.Succs {
			if !l.body[s] {
				exits[s] = true
			}
		}
	}
	return len(exits) == 1
}

// findNaturalLoops locates every back edge (n -> h where h dominates n)
// and builds the corresponding natural loop.
func findNaturalLoops(head *ir.Node) []*naturalLoop {
	var loops []*naturalLoop
	for _, n := range listNodes(head) {
		for _, h := range n.CFG.Succs {
			if dominates(h, n) {
				loops = append(loops, buildNaturalLoop(h, n))
			}
		}
	}
	return loops
}

func dominates(h, n *ir.Node) bool {
	for cur := n; cur != nil; cur = cur.Idom {
		if cur == h {
			return true
		}
		if cur.Idom == cur {
			break
		}
	}
	return false
}

func buildNaturalLoop(header, latch *ir.Node) *naturalLoop {
	body := map[*ir.Node]bool{header: true, latch: true}
	worklist := []*ir.Node{latch}
	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]
		for _, p := range n.CFG.Preds {
			if !body[p] {
				body[p] = true
				worklist = append(worklist, p)
			}
		}
	}
	return &naturalLoop{header: header, body: body}
}
