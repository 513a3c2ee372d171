package opt

import (
	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

// ConstantFold evaluates immediate-on-immediate binary expressions at
// compile time and simplifies the x+0/x*1/x*0/x-x identities,
// rewriting the store's Body in place. It never removes or
// inserts nodes, so InstrIdx monotonicity holds automatically, but
// renumber is still called for symmetry with Reorder and in case a
// future pass here starts splicing nodes.
type ConstantFold struct{}

func (*ConstantFold) Name() string { return "constant-fold" }

func (*ConstantFold) Description() string {
	return "folds immediate arithmetic and simplifies x+0, x*1, x*0, x-x"
}

func (c *ConstantFold) Apply(head *ir.Node) (*ir.Node, bool) {
	changed := false
	for n := head; n != nil; n = n.Next {
		if n.Kind != ir.KindStore || n.Store == nil || n.Store.Body == nil {
			continue
		}
		if simplified, ok := c.simplify(n.Store.Body); ok {
			n.Store.Body = simplified
			changed = true
		}
	}
	if changed {
		renumber(head)
	}
	return head, changed
}

// simplify returns a replacement node for node if it can be folded or
// simplified, and whether anything changed. When only node's operands
// were folded or simplified, node itself is returned with true.
func (c *ConstantFold) simplify(node *ir.Node) (*ir.Node, bool) {
	if node.Kind != ir.KindBin {
		return nil, false
	}
	bin := node.Bin

	operandsChanged := false
	if bin.Lhs != nil && bin.Rhs != nil {
		if lhs, ok := c.simplify(bin.Lhs); ok {
			bin.Lhs = lhs
			operandsChanged = true
		}
		if rhs, ok := c.simplify(bin.Rhs); ok {
			bin.Rhs = rhs
			operandsChanged = true
		}
	}

	if bin.Lhs.Kind == ir.KindImm && bin.Rhs.Kind == ir.KindImm {
		if folded := foldImmImm(bin.Op, bin.Lhs.Imm, bin.Rhs.Imm); folded != nil {
			return folded, true
		}
	}

	if simplified, ok := simplifyIdentity(bin); ok {
		return simplified, true
	}

	return node, operandsChanged
}

func foldImmImm(op ast.BinOp, lhs, rhs *ir.Imm) *ir.Node {
	if lhs.Kind != ir.ImmInt || rhs.Kind != ir.ImmInt {
		return nil
	}
	var result int64
	switch op {
	case ast.OpAdd:
		result = lhs.Int + rhs.Int
	case ast.OpSub:
		result = lhs.Int - rhs.Int
	case ast.OpMul:
		result = lhs.Int * rhs.Int
	case ast.OpDiv:
		if rhs.Int == 0 {
			return nil
		}
		result = lhs.Int / rhs.Int
	default:
		return nil
	}
	return ir.NewImmInt(result)
}

// simplifyIdentity recognizes x+0, 0+x, x-0, x*1, 1*x, x*0 and 0*x for
// any operand x, and x-x when both sides are Syms with the same index
// and SSA version.
func simplifyIdentity(bin *ir.Bin) (*ir.Node, bool) {
	switch bin.Op {
	case ast.OpAdd:
		if isZero(bin.Rhs) {
			return bin.Lhs, true
		}
		if isZero(bin.Lhs) {
			return bin.Rhs, true
		}
	case ast.OpSub:
		if isZero(bin.Rhs) {
			return bin.Lhs, true
		}
		if sameSym(bin.Lhs, bin.Rhs) {
			return ir.NewImmInt(0), true
		}
	case ast.OpMul:
		if isOne(bin.Rhs) {
			return bin.Lhs, true
		}
		if isOne(bin.Lhs) {
			return bin.Rhs, true
		}
		if isZero(bin.Rhs) || isZero(bin.Lhs) {
			return ir.NewImmInt(0), true
		}
	}
	return nil, false
}

func isZero(n *ir.Node) bool {
	return n != nil && n.Kind == ir.KindImm && n.Imm.Kind == ir.ImmInt && n.Imm.Int == 0
}

func isOne(n *ir.Node) bool {
	return n != nil && n.Kind == ir.KindImm && n.Imm.Kind == ir.ImmInt && n.Imm.Int == 1
}

func sameSym(a, b *ir.Node) bool {
	return a != nil && b != nil && a.Kind == ir.KindSym && b.Kind == ir.KindSym &&
		a.Sym.Idx == b.Sym.Idx && a.Sym.SSAIdx == b.Sym.SSAIdx
}
