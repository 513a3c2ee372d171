package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nanocc/internal/ast"
	"nanocc/internal/cfgssa"
	"nanocc/internal/ir"
)

func i32() *ast.TypeInfo { return &ast.TypeInfo{Prim: ast.PrimInt} }

func TestConstantFoldFoldsImmImm(t *testing.T) {
	b := ir.NewBuilder()
	bin := ir.NewBinNode(ast.OpAdd, ir.NewImmInt(2), ir.NewImmInt(3))
	store := b.Append(ir.NewStoreNode(ir.NewSymNode(0, i32()), bin))

	cf := &ConstantFold{}
	head, changed := cf.Apply(b.Head())
	require.True(t, changed)

	assert.Equal(t, ir.KindImm, head.Store.Body.Kind)
	assert.Equal(t, int64(5), head.Store.Body.Imm.Int)
	_ = store
}

func TestConstantFoldSimplifiesAddZero(t *testing.T) {
	b := ir.NewBuilder()
	sym := ir.NewSymNode(1, i32())
	bin := ir.NewBinNode(ast.OpAdd, sym, ir.NewImmInt(0))
	b.Append(ir.NewStoreNode(ir.NewSymNode(0, i32()), bin))

	cf := &ConstantFold{}
	head, changed := cf.Apply(b.Head())
	require.True(t, changed)
	assert.Equal(t, ir.KindSym, head.Store.Body.Kind)
	assert.Equal(t, 1, head.Store.Body.Sym.Idx)
}

func TestConstantFoldSimplifiesMulZero(t *testing.T) {
	b := ir.NewBuilder()
	sym := ir.NewSymNode(1, i32())
	bin := ir.NewBinNode(ast.OpMul, sym, ir.NewImmInt(0))
	b.Append(ir.NewStoreNode(ir.NewSymNode(0, i32()), bin))

	cf := &ConstantFold{}
	head, changed := cf.Apply(b.Head())
	require.True(t, changed)
	assert.Equal(t, ir.KindImm, head.Store.Body.Kind)
	assert.Equal(t, int64(0), head.Store.Body.Imm.Int)
}

func TestConstantFoldSimplifiesSubSelf(t *testing.T) {
	b := ir.NewBuilder()
	lhs := ir.NewSymNode(1, i32())
	rhs := ir.NewSymNode(1, i32())
	bin := ir.NewBinNode(ast.OpSub, lhs, rhs)
	b.Append(ir.NewStoreNode(ir.NewSymNode(0, i32()), bin))

	cf := &ConstantFold{}
	head, changed := cf.Apply(b.Head())
	require.True(t, changed)
	assert.Equal(t, ir.KindImm, head.Store.Body.Kind)
	assert.Equal(t, int64(0), head.Store.Body.Imm.Int)
}

func TestConstantFoldLeavesNonTrivialExprAlone(t *testing.T) {
	b := ir.NewBuilder()
	lhs := ir.NewSymNode(1, i32())
	rhs := ir.NewSymNode(2, i32())
	bin := ir.NewBinNode(ast.OpAdd, lhs, rhs)
	b.Append(ir.NewStoreNode(ir.NewSymNode(0, i32()), bin))

	cf := &ConstantFold{}
	head, changed := cf.Apply(b.Head())
	assert.False(t, changed)
	assert.Equal(t, ir.KindBin, head.Store.Body.Kind)
}

// buildLoopWithInvariantAlloca builds:
//
//	0: alloca n
//	1: store n = 10
//	2: alloca i
//	3: store i = 0
//	4: cond (i < n) goto 8     [header]
//	5: alloca tmp              [loop-invariant: init reads only n]
//	6: store tmp = n
//	7: jump 4
//	8: ret
func buildLoopWithInvariantAlloca(t *testing.T) (head *ir.Node, header *ir.Node, tmpAllocaIdx int) {
	t.Helper()
	typ := i32()
	b := ir.NewBuilder()
	b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 0)) // n
	b.Append(ir.NewStoreNode(ir.NewSymNode(0, typ), ir.NewImmInt(10)))
	b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 1)) // i
	b.Append(ir.NewStoreNode(ir.NewSymNode(1, typ), ir.NewImmInt(0)))

	condBin := ir.NewBinNode(ast.OpLt, ir.NewSymNode(1, typ), ir.NewSymNode(0, typ))
	headerNode := b.Append(ir.NewCondNode(condBin))

	tmpAlloca := b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 2))
	b.Append(ir.NewStoreNode(ir.NewSymNode(2, typ), ir.NewSymNode(0, typ)))

	backJump := b.Append(ir.NewJumpNode())
	backJump.Jump.TargetIdx = headerNode.InstrIdx

	exit := b.Append(ir.NewRetNode(nil))
	headerNode.Cond.GotoIdx = exit.InstrIdx

	return b.Head(), headerNode, tmpAlloca.Alloca.Idx
}

func setupCFGAndDom(head *ir.Node) {
	cfgssa.BuildCFG(head)
	cfgssa.ComputeDominators(head)
}

func TestReorderHoistsLoopInvariantAlloca(t *testing.T) {
	head, header, tmpIdx := buildLoopWithInvariantAlloca(t)
	setupCFGAndDom(head)

	r := &Reorder{}
	newHead, changed := r.Apply(head)
	require.True(t, changed)

	// The alloca for tmp should now appear before the loop header.
	var sawAlloca, sawHeader bool
	for n := newHead; n != nil; n = n.Next {
		if n.Kind == ir.KindAlloca && n.Alloca.Idx == tmpIdx {
			sawAlloca = true
			assert.False(t, sawHeader, "alloca should be hoisted before the header")
		}
		if n == header {
			sawHeader = true
		}
	}
	assert.True(t, sawAlloca)
	assert.True(t, sawHeader)
}

func TestReorderPreservesDenseInstrIdx(t *testing.T) {
	head, _, _ := buildLoopWithInvariantAlloca(t)
	setupCFGAndDom(head)

	r := &Reorder{}
	newHead, _ := r.Apply(head)

	want := 0
	for n := newHead; n != nil; n = n.Next {
		assert.Equal(t, want, n.InstrIdx)
		want++
	}
}

func TestReorderDoesNotHoistLoopVariantAlloca(t *testing.T) {
	typ := i32()
	b := ir.NewBuilder()
	b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 0)) // n
	b.Append(ir.NewStoreNode(ir.NewSymNode(0, typ), ir.NewImmInt(10)))
	b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 1)) // i
	b.Append(ir.NewStoreNode(ir.NewSymNode(1, typ), ir.NewImmInt(0)))

	condBin := ir.NewBinNode(ast.OpLt, ir.NewSymNode(1, typ), ir.NewSymNode(0, typ))
	header := b.Append(ir.NewCondNode(condBin))

	// tmp depends on i, the induction variable defined in the loop body.
	b.Append(ir.NewAllocaNode(ast.PrimInt, 0, 2))
	b.Append(ir.NewStoreNode(ir.NewSymNode(2, typ), ir.NewSymNode(1, typ)))

	incBin := ir.NewBinNode(ast.OpAdd, ir.NewSymNode(1, typ), ir.NewImmInt(1))
	b.Append(ir.NewStoreNode(ir.NewSymNode(1, typ), incBin))

	backJump := b.Append(ir.NewJumpNode())
	backJump.Jump.TargetIdx = header.InstrIdx

	exit := b.Append(ir.NewRetNode(nil))
	header.Cond.GotoIdx = exit.InstrIdx

	head := b.Head()
	setupCFGAndDom(head)

	r := &Reorder{}
	_, changed := r.Apply(head)
	assert.False(t, changed)
}

