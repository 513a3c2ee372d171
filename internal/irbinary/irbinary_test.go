package irbinary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nanocc/internal/ast"
	"nanocc/internal/ir"
)

// buildAddFunction constructs the IR for:
//
//	int add(int a, int b) { return a + b; }
func buildAddFunction() *ir.Node {
	b := ir.NewBuilder()
	aArg := ir.NewAllocaNode(ast.PrimInt, 0, 0)
	bArg := ir.NewAllocaNode(ast.PrimInt, 0, 1)

	bin := ir.NewBinNode(ast.OpAdd,
		ir.NewSymNode(0, &ast.TypeInfo{Prim: ast.PrimInt}),
		ir.NewSymNode(1, &ast.TypeInfo{Prim: ast.PrimInt}))
	b.Append(bin)
	b.Append(ir.NewRetNode(bin))

	return ir.NewFnDeclNode("add", ast.PrimInt, 0, []*ir.Node{aArg, bArg}, b.Head())
}

func TestWriteUnitThenReadUnitRoundTripsSingleFunction(t *testing.T) {
	unit := &ir.Unit{FnDecls: []*ir.Node{buildAddFunction()}}

	var buf bytes.Buffer
	require.NoError(t, WriteUnit(&buf, unit))

	got, err := ReadUnit(&buf)
	require.NoError(t, err)
	require.Len(t, got.FnDecls, 1)

	fn := got.FnDecls[0]
	assert.Equal(t, ir.KindFnDecl, fn.Kind)
	assert.Equal(t, "add", fn.FnDecl.Name)
	assert.Equal(t, ast.PrimInt, fn.FnDecl.ReturnPrim)
	require.Len(t, fn.FnDecl.Args, 2)
	assert.Equal(t, 0, fn.FnDecl.Args[0].Alloca.Idx)
	assert.Equal(t, 1, fn.FnDecl.Args[1].Alloca.Idx)

	bin := fn.FnDecl.Body
	require.Equal(t, ir.KindBin, bin.Kind)
	assert.Equal(t, ast.OpAdd, bin.Bin.Op)
	assert.Equal(t, 0, bin.Bin.Lhs.Sym.Idx)
	assert.Equal(t, 1, bin.Bin.Rhs.Sym.Idx)
	require.NotNil(t, bin.Bin.Lhs.Sym.Type)
	assert.Equal(t, ast.PrimInt, bin.Bin.Lhs.Sym.Type.Prim)

	ret := bin.Next
	require.Equal(t, ir.KindRet, ret.Kind)
	assert.False(t, ret.Ret.IsVoid)
	assert.Equal(t, 0, bin.InstrIdx)
	assert.Equal(t, 1, ret.InstrIdx)
}

func TestWriteUnitThenReadUnitRoundTripsImmediatesAndPhi(t *testing.T) {
	b := ir.NewBuilder()
	s := ir.NewAllocaNode(ast.PrimInt, 0, 0)
	store := ir.NewStoreNode(ir.NewSymNode(0, nil), ir.NewImmInt(42))
	b.Append(store)
	phi := ir.NewPhiNode(0, 2)
	phi.Phi.Operands[0] = 1
	phi.Phi.Operands[1] = 2
	b.Append(phi)
	b.Append(ir.NewRetNode(ir.NewImmBool(true)))

	fn := ir.NewFnDeclNode("f", ast.PrimBool, 0, []*ir.Node{s}, b.Head())
	unit := &ir.Unit{FnDecls: []*ir.Node{fn}}

	var buf bytes.Buffer
	require.NoError(t, WriteUnit(&buf, unit))

	got, err := ReadUnit(&buf)
	require.NoError(t, err)

	body := got.FnDecls[0].FnDecl.Body
	require.Equal(t, ir.KindStore, body.Kind)
	assert.Equal(t, int64(42), body.Store.Body.Imm.Int)

	phiOut := body.Next
	require.Equal(t, ir.KindPhi, phiOut.Kind)
	assert.Equal(t, []int{1, 2}, phiOut.Phi.Operands)

	retOut := phiOut.Next
	require.Equal(t, ir.KindRet, retOut.Kind)
	assert.True(t, retOut.Ret.Body.Imm.Bool)
}

func TestReadUnitRejectsTruncatedStream(t *testing.T) {
	unit := &ir.Unit{FnDecls: []*ir.Node{buildAddFunction()}}
	var buf bytes.Buffer
	require.NoError(t, WriteUnit(&buf, unit))

	truncated := buf.Bytes()[:buf.Len()-2]
	_, err := ReadUnit(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestDebugLabelRendersSnakeCase(t *testing.T) {
	assert.Equal(t, "pointer_depth", DebugLabel("PointerDepth"))
	assert.Equal(t, "ssa_idx", DebugLabel("SSAIdx"))
}
