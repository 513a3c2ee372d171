package cfgssa

import "nanocc/internal/ir"

// ComputeDominators runs the standard iterative Cooper/Harvey/Kennedy
// algorithm over the reverse postorder of the CFG rooted at entry:
// the entry's immediate dominator is itself, and every other
// reachable node's idom is the intersection of its processed
// predecessors' idoms, iterated to a fixpoint. It also populates each
// node's IdomBack (dominator-tree children), for the tree walk SSA
// renaming needs.
func ComputeDominators(entry *ir.Node) {
	if entry == nil {
		return
	}

	postorder := dfsPostorder(entry)
	postNum := make(map[*ir.Node]int, len(postorder))
	for i, n := range postorder {
		postNum[n] = i
	}

	// Reverse postorder, entry first.
	rpo := make([]*ir.Node, len(postorder))
	for i, n := range postorder {
		rpo[len(postorder)-1-i] = n
	}

	idom := make(map[*ir.Node]*ir.Node, len(rpo))
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			var newIdom *ir.Node
			for _, p := range b.CFG.Preds {
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, postNum)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	for _, n := range rpo {
		n.Idom = nil
		n.IdomBack = nil
	}
	for _, n := range rpo {
		if n == entry {
			n.Idom = entry
			continue
		}
		n.Idom = idom[n]
	}
	for _, n := range rpo {
		if n == entry || n.Idom == nil {
			continue
		}
		n.Idom.IdomBack = append(n.Idom.IdomBack, n)
	}
}

func intersect(a, b *ir.Node, idom map[*ir.Node]*ir.Node, postNum map[*ir.Node]int) *ir.Node {
	for a != b {
		for postNum[a] < postNum[b] {
			a = idom[a]
		}
		for postNum[b] < postNum[a] {
			b = idom[b]
		}
	}
	return a
}

func dfsPostorder(entry *ir.Node) []*ir.Node {
	visited := make(map[*ir.Node]bool)
	var order []*ir.Node
	var visit func(n *ir.Node)
	visit = func(n *ir.Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		for _, s := range n.CFG.Succs {
			visit(s)
		}
		order = append(order, n)
	}
	visit(entry)
	return order
}

// ComputeDominanceFrontier computes DF(b) = { y | some predecessor p
// of y has b dominating p, and b does not strictly dominate y } by
// walking each join point's predecessors up their dominator chain
// until reaching the join's own idom.
func ComputeDominanceFrontier(entry *ir.Node) {
	nodes := listFromCFG(entry)
	for _, n := range nodes {
		n.DF = nil
	}
	for _, b := range nodes {
		if len(b.CFG.Preds) < 2 {
			continue
		}
		for _, p := range b.CFG.Preds {
			runner := p
			for runner != nil && runner != b.Idom {
				runner.DF = appendUnique(runner.DF, b)
				runner = runner.Idom
			}
		}
	}
}

func appendUnique(list []*ir.Node, n *ir.Node) []*ir.Node {
	for _, x := range list {
		if x == n {
			return list
		}
	}
	return append(list, n)
}

// listFromCFG returns every node reachable from entry in CFG order
// (BFS), used by passes that need "all nodes" without relying on the
// instr_idx list traversal.
func listFromCFG(entry *ir.Node) []*ir.Node {
	visited := map[*ir.Node]bool{}
	queue := []*ir.Node{entry}
	var out []*ir.Node
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == nil || visited[n] {
			continue
		}
		visited[n] = true
		out = append(out, n)
		queue = append(queue, n.CFG.Succs...)
	}
	return out
}
