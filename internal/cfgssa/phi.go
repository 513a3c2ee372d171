package cfgssa

import "nanocc/internal/ir"

// InsertPhis runs the standard worklist φ-insertion algorithm over
// head's function body, for the scalar variable indices named in
// vars. It returns the (possibly new) head of the list, since
// inserting before the first node replaces it.
func InsertPhis(head *ir.Node, vars []int) *ir.Node {
	assignments := collectAssignments(head, vars)

	for _, v := range vars {
		worklist := append([]*ir.Node{}, assignments[v]...)
		placed := map[*ir.Node]bool{}

		for len(worklist) > 0 {
			x := worklist[0]
			worklist = worklist[1:]

			for _, y := range x.DF {
				if placed[y] {
					continue
				}
				head = insertPhiBefore(head, y, v)
				placed[y] = true
				if !containsAssignment(assignments[v], y) {
					worklist = append(worklist, y)
				}
			}
		}
	}
	return head
}

// collectAssignments builds A(v), the set of nodes containing a store
// to variable v, for every v in vars.
func collectAssignments(head *ir.Node, vars []int) map[int][]*ir.Node {
	want := make(map[int]bool, len(vars))
	for _, v := range vars {
		want[v] = true
	}
	out := make(map[int][]*ir.Node, len(vars))
	for n := head; n != nil; n = n.Next {
		if n.Kind != ir.KindStore || n.Store.Dest == nil || n.Store.Dest.Kind != ir.KindSym {
			continue
		}
		idx := n.Store.Dest.Sym.Idx
		if want[idx] {
			out[idx] = append(out[idx], n)
		}
	}
	return out
}

func containsAssignment(set []*ir.Node, n *ir.Node) bool {
	for _, x := range set {
		if x == n {
			return true
		}
	}
	return false
}

// insertPhiBefore splices a φ node for variable v immediately before
// y, rewiring prev/next, y's predecessor list (the φ becomes y's sole
// fall-through predecessor, taking over y's existing preds as its
// own), and y's idom-back set.
func insertPhiBefore(head, y *ir.Node, v int) *ir.Node {
	phi := ir.NewPhiNode(v, len(y.CFG.Preds))
	phi.CFG.Preds = y.CFG.Preds
	phi.CFG.Succs = []*ir.Node{y}
	for _, p := range phi.CFG.Preds {
		replaceSucc(p, y, phi)
		retargetJump(p, y, phi)
	}
	y.CFG.Preds = []*ir.Node{phi}

	if y.Idom != nil {
		y.Idom.IdomBack = appendUnique(y.Idom.IdomBack, phi)
	}
	phi.Idom = y.Idom
	y.Idom = phi
	phi.IdomBack = []*ir.Node{y}

	wasHead := y.Prev == nil
	ir.InsertNodeBefore(y, phi)
	if wasHead {
		head = phi
	}
	return head
}

func replaceSucc(n, old, new_ *ir.Node) {
	for i, s := range n.CFG.Succs {
		if s == old {
			n.CFG.Succs[i] = new_
		}
	}
}

// retargetJump repoints n's jump/cond TargetPtr from old to new_ when
// n actually branches there, so a φ spliced in ahead of a block's
// former leader becomes the new destination (TargetIdx is brought
// back in sync by the InsertNodeBefore call that follows).
func retargetJump(n, old, new_ *ir.Node) {
	switch n.Kind {
	case ir.KindJump:
		if n.Jump.TargetPtr == old {
			n.Jump.TargetPtr = new_
		}
	case ir.KindCond:
		if n.Cond.TargetPtr == old {
			n.Cond.TargetPtr = new_
		}
	}
}
