// Package cfgssa is the middle end: CFG construction from a function's
// linear IR, Cooper/Harvey/Kennedy iterative dominator computation and
// dominance frontier, φ-insertion by the standard worklist algorithm,
// and SSA renaming by a dominator-tree walk.
package cfgssa

import "nanocc/internal/ir"

// BuildCFG partitions a function's instruction list into basic blocks
// and populates every node's CFG succs/preds. A block boundary occurs
// before a jump target or immediately after a jump/cond/ret; nodes
// that are neither a leader nor a terminator simply chain to their
// one predecessor/successor, so dominator computation below operates
// directly over instruction nodes rather than a coarser block graph:
// dominance is defined over CFG nodes, and instructions inside one
// block trivially dominate each other in a straight chain, so no
// block-merging step is needed for correctness.
func BuildCFG(head *ir.Node) {
	if head == nil {
		return
	}

	nodes := listNodes(head)
	byIdx := make(map[int]*ir.Node, len(nodes))
	for _, n := range nodes {
		byIdx[n.InstrIdx] = n
	}

	leaders := map[int]bool{head.InstrIdx: true}
	for _, n := range nodes {
		switch n.Kind {
		case ir.KindJump:
			leaders[n.Jump.TargetIdx] = true
			if n.Next != nil {
				leaders[n.Next.InstrIdx] = true
			}
		case ir.KindCond:
			leaders[n.Cond.GotoIdx] = true
			if n.Next != nil {
				leaders[n.Next.InstrIdx] = true
			}
		case ir.KindRet:
			if n.Next != nil {
				leaders[n.Next.InstrIdx] = true
			}
		}
	}

	blockNo := -1
	for _, n := range nodes {
		if leaders[n.InstrIdx] {
			blockNo++
		}
		n.BlockNo = blockNo
		n.CFG = ir.CFG{}
	}

	for _, n := range nodes {
		switch n.Kind {
		case ir.KindJump:
			target := byIdx[n.Jump.TargetIdx]
			n.Jump.TargetPtr = target
			addEdge(n, target)
		case ir.KindCond:
			target := byIdx[n.Cond.GotoIdx]
			n.Cond.TargetPtr = target
			addEdge(n, target)
			if n.Next != nil {
				addEdge(n, n.Next)
			}
		case ir.KindRet:
			// no successors
		default:
			if n.Next != nil {
				addEdge(n, n.Next)
			}
		}
	}
}

func addEdge(from, to *ir.Node) {
	if to == nil {
		return
	}
	from.CFG.Succs = append(from.CFG.Succs, to)
	to.CFG.Preds = append(to.CFG.Preds, from)
}

// listNodes returns every node of the function's list in instr_idx order.
func listNodes(head *ir.Node) []*ir.Node {
	var out []*ir.Node
	for n := head; n != nil; n = n.Next {
		out = append(out, n)
	}
	return out
}
