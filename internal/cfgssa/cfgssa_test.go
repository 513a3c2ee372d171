package cfgssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

// buildLoop constructs the canonical "sum 0..n" loop: a header that
// tests i < n, a body that does s = s + i; i = i + 1, and a jump back
// to the header, i.e. the classic single-back-edge loop used to
// exercise φ-insertion and renaming.
//
//	0: alloca s
//	1: alloca i
//	2: alloca n
//	3: store s = 0
//	4: store i = 0
//	5: cond (i < n) goto 9      [header]
//	6: store s = s + i          [body]
//	7: store i = i + 1
//	8: jump 5
//	9: ret s                    [exit]
func buildLoop(t *testing.T) (head *ir.Node, sIdx, iIdx, nIdx int) {
	t.Helper()
	i32 := &ast.TypeInfo{Prim: ast.PrimInt}

	b := ir.NewBuilder()
	sAlloca := b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 0))
	iAlloca := b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 1))
	nAlloca := b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 2))
	_ = sAlloca
	_ = iAlloca
	_ = nAlloca

	b.Append(ir.NewStoreNode(ir.NewSymNode(0, i32), ir.NewImmInt(0)))
	b.Append(ir.NewStoreNode(ir.NewSymNode(1, i32), ir.NewImmInt(0)))

	condBin := ir.NewBinNode(ast.OpLt, ir.NewSymNode(1, i32), ir.NewSymNode(2, i32))
	header := b.Append(ir.NewCondNode(condBin))

	sumBin := ir.NewBinNode(ast.OpAdd, ir.NewSymNode(0, i32), ir.NewSymNode(1, i32))
	b.Append(ir.NewStoreNode(ir.NewSymNode(0, i32), sumBin))

	incBin := ir.NewBinNode(ast.OpAdd, ir.NewSymNode(1, i32), ir.NewImmInt(1))
	b.Append(ir.NewStoreNode(ir.NewSymNode(1, i32), incBin))

	backJump := b.Append(ir.NewJumpNode())
	backJump.Jump.TargetIdx = header.InstrIdx

	exit := b.Append(ir.NewRetNode(ir.NewSymNode(0, i32)))
	header.Cond.GotoIdx = exit.InstrIdx

	return b.Head(), 0, 1, 2
}

func TestBuildCFGSuccPredSymmetry(t *testing.T) {
	head, _, _, _ := buildLoop(t)
	BuildCFG(head)

	for n := head; n != nil; n = n.Next {
		for _, s := range n.CFG.Succs {
			assert.Contains(t, s.CFG.Preds, n, "node %d -> %d missing reverse pred edge", n.InstrIdx, s.InstrIdx)
		}
		for _, p := range n.CFG.Preds {
			assert.Contains(t, p.CFG.Succs, n, "node %d <- %d missing forward succ edge", n.InstrIdx, p.InstrIdx)
		}
	}
}

func TestBuildCFGCondHasTwoSuccessors(t *testing.T) {
	head, _, _, _ := buildLoop(t)
	BuildCFG(head)

	var cond *ir.Node
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindCond {
			cond = n
		}
	}
	require.NotNil(t, cond)
	assert.Len(t, cond.CFG.Succs, 2)
}

func TestBuildCFGRetHasNoSuccessors(t *testing.T) {
	head, _, _, _ := buildLoop(t)
	BuildCFG(head)

	var ret *ir.Node
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindRet {
			ret = n
		}
	}
	require.NotNil(t, ret)
	assert.Empty(t, ret.CFG.Succs)
}

func TestComputeDominatorsEntryDominatesItself(t *testing.T) {
	head, _, _, _ := buildLoop(t)
	BuildCFG(head)
	ComputeDominators(head)

	assert.Equal(t, head, head.Idom)
}

func TestComputeDominatorsLoopBodyDominatedByHeader(t *testing.T) {
	head, _, _, _ := buildLoop(t)
	BuildCFG(head)
	ComputeDominators(head)

	var header, body *ir.Node
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindCond {
			header = n
		}
		if n.Kind == ir.KindStore && n.Store.Dest.Sym.Idx == 0 && n.InstrIdx > header0(header) {
			body = n
			break
		}
	}
	require.NotNil(t, header)
	require.NotNil(t, body)

	cur := body
	found := false
	for cur != nil {
		if cur == header {
			found = true
			break
		}
		if cur == cur.Idom {
			break
		}
		cur = cur.Idom
	}
	assert.True(t, found, "loop body should be dominated by the header")
}

func header0(n *ir.Node) int {
	if n == nil {
		return -1
	}
	return n.InstrIdx
}

func TestComputeDominanceFrontierHeaderIsOwnFrontier(t *testing.T) {
	head, _, _, _ := buildLoop(t)
	BuildCFG(head)
	ComputeDominators(head)
	ComputeDominanceFrontier(head)

	var header *ir.Node
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindCond {
			header = n
		}
	}
	require.NotNil(t, header)

	// The header has two predecessors (the entry fallthrough and the
	// back edge) and dominates the back-edge path, so it lies in its own
	// dominance frontier.
	assert.Contains(t, header.DF, header)

	// The back-edge jump's dominance frontier includes the loop header,
	// since the jump's successor (header) has another predecessor
	// (fallthrough from outside the loop) that the jump does not dominate.
	var backJump *ir.Node
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindJump {
			backJump = n
		}
	}
	require.NotNil(t, backJump)
	assert.Contains(t, backJump.DF, header)
}

func TestInsertPhisPlacesPhiAtLoopHeaderForSAndI(t *testing.T) {
	head, sIdx, iIdx, _ := buildLoop(t)
	BuildCFG(head)
	ComputeDominators(head)
	ComputeDominanceFrontier(head)

	head = InsertPhis(head, []int{sIdx, iIdx})

	var phiCount int
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindPhi {
			phiCount++
		}
	}
	assert.Equal(t, 2, phiCount, "expected one phi each for s and i at the loop header")
}

func TestInsertPhisPreservesDenseInstrIdx(t *testing.T) {
	head, sIdx, iIdx, _ := buildLoop(t)
	BuildCFG(head)
	ComputeDominators(head)
	ComputeDominanceFrontier(head)
	head = InsertPhis(head, []int{sIdx, iIdx})

	want := 0
	for n := head; n != nil; n = n.Next {
		assert.Equal(t, want, n.InstrIdx)
		want++
	}
}

func TestRenameSSATagsDistinctIndicesAcrossLoopIterations(t *testing.T) {
	head, sIdx, iIdx, nIdx := buildLoop(t)
	BuildCFG(head)
	ComputeDominators(head)
	ComputeDominanceFrontier(head)
	head = InsertPhis(head, []int{sIdx, iIdx})
	BuildCFG(head)
	ComputeDominators(head)

	RenameSSA(head, []int{sIdx, iIdx, nIdx})

	var phis []*ir.Node
	for n := head; n != nil; n = n.Next {
		if n.Kind == ir.KindPhi {
			phis = append(phis, n)
			assert.NotZero(t, n.Phi.SSAIdx)
		}
	}
	assert.Len(t, phis, 2)

	// Every store's dest sym must have received a distinct, non-zero
	// SSA index (fresh per definition).
	seen := map[int]bool{}
	for n := head; n != nil; n = n.Next {
		if n.Kind != ir.KindStore {
			continue
		}
		dest := n.Store.Dest
		require.NotNil(t, dest)
		assert.NotZero(t, dest.Sym.SSAIdx)
		key := dest.Sym.Idx*1000 + dest.Sym.SSAIdx
		assert.False(t, seen[key], "duplicate SSA index assigned to var %d", dest.Sym.Idx)
		seen[key] = true
	}
}

func TestRenameSSAFillsPhiOperandsForEveryPredecessor(t *testing.T) {
	head, sIdx, iIdx, _ := buildLoop(t)
	BuildCFG(head)
	ComputeDominators(head)
	ComputeDominanceFrontier(head)
	head = InsertPhis(head, []int{sIdx, iIdx})
	BuildCFG(head)
	ComputeDominators(head)

	RenameSSA(head, []int{sIdx, iIdx})

	for n := head; n != nil; n = n.Next {
		if n.Kind != ir.KindPhi {
			continue
		}
		require.Len(t, n.Phi.Operands, len(n.CFG.Preds))
		for _, op := range n.Phi.Operands {
			assert.NotZero(t, op, "phi operand left unfilled")
		}
	}
}
