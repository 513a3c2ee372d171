package cfgssa

import "nanocc/internal/ir"

// undefinedSSA tags a use that no store or φ for its variable
// dominates: a use of a function parameter (parameters are never the
// destination of a store) or a read of a local before its first
// assignment, which this language does not reject. The renamer
// tolerates such uses rather than panicking, tagging them with the
// sentinel 0 "no definition yet".
const undefinedSSA = 0

// RenameSSA runs dominator-tree-walk SSA renaming independently for
// each variable index in vars, rooted at entry. Each
// variable gets its own stack of live SSA indices; entering a node
// that defines v pushes a fresh index, entering a use tags the sym
// with the current top of stack, and leaving a node pops exactly what
// it pushed. Before descending into a node's dominator-tree children,
// every CFG successor holding a φ for v has its matching operand
// slot filled with the current top of stack.
func RenameSSA(entry *ir.Node, vars []int) {
	for _, v := range vars {
		counter := 0
		var stack []int
		renameWalk(entry, v, &counter, &stack)
	}
}

func renameWalk(n *ir.Node, v int, counter *int, stack *[]int) {
	pushed := false

	switch n.Kind {
	case ir.KindStore:
		if n.Store.Body != nil {
			renameUses(n.Store.Body, v, top(*stack))
		}
		if dest := n.Store.Dest; dest != nil && dest.Kind == ir.KindSym && dest.Sym.Idx == v {
			*counter++
			*stack = append(*stack, *counter)
			dest.Sym.SSAIdx = *counter
			pushed = true
		}
	case ir.KindPhi:
		if n.Phi.SymIdx == v {
			*counter++
			*stack = append(*stack, *counter)
			n.Phi.SSAIdx = *counter
			pushed = true
		}
	case ir.KindCond:
		if n.Cond.Cond != nil {
			renameUses(n.Cond.Cond, v, top(*stack))
		}
	case ir.KindRet:
		if n.Ret.Body != nil {
			renameUses(n.Ret.Body, v, top(*stack))
		}
	case ir.KindFnCall:
		for _, arg := range n.FnCall.Args {
			renameUses(arg, v, top(*stack))
		}
	}

	for _, succ := range n.CFG.Succs {
		if succ.Kind == ir.KindPhi && succ.Phi.SymIdx == v {
			pos := predPosition(succ, n)
			if pos >= 0 {
				succ.Phi.Operands[pos] = top(*stack)
			}
		}
	}

	for _, child := range n.IdomBack {
		renameWalk(child, v, counter, stack)
	}

	if pushed {
		*stack = (*stack)[:len(*stack)-1]
	}
}

// renameUses tags every Sym node for variable v reachable from root
// (which is never itself list-linked — it is a Bin/Sym/Imm payload
// embedded in a Store/Cond/Ret) with ssaIdx.
func renameUses(root *ir.Node, v int, ssaIdx int) {
	if root == nil {
		return
	}
	switch root.Kind {
	case ir.KindSym:
		if root.Sym.Idx == v {
			root.Sym.SSAIdx = ssaIdx
		}
	case ir.KindBin:
		renameUses(root.Bin.Lhs, v, ssaIdx)
		renameUses(root.Bin.Rhs, v, ssaIdx)
	case ir.KindMember:
		renameUses(root.Member.Target, v, ssaIdx)
	}
}

func top(stack []int) int {
	if len(stack) == 0 {
		return undefinedSSA
	}
	return stack[len(stack)-1]
}

func predPosition(n, pred *ir.Node) int {
	for i, p := range n.CFG.Preds {
		if p == pred {
			return i
		}
	}
	return -1
}
