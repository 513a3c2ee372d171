package ir

import (
	"nanocc/internal/ast"
	"nanocc/internal/diag"
)

// fnState is the per-function generator state: the
// growing instruction list (b), the var_idx counter (reset every
// function), and the name → var_idx mapping (IR indices are
// function-unique; there are no nested IR scopes, only AST ones).
type fnState struct {
	b      *Builder
	varIdx int
	names  map[string]int
	types  map[string]*ast.TypeInfo

	// breakTargets/continueTargets hold, per enclosing loop (innermost
	// last), the jump node whose target is patched once the loop's
	// exit/continuation point is known.
	breakTargets    []*Node
	continueTargets []int // instr_idx loop tests start at, for `continue`
}

func newFnState() *fnState {
	return &fnState{b: NewBuilder(), names: make(map[string]int), types: make(map[string]*ast.TypeInfo)}
}

func (s *fnState) declareVar(name string, typ *ast.TypeInfo) int {
	idx := s.varIdx
	s.varIdx++
	s.names[name] = idx
	s.types[name] = typ
	return idx
}

// Generate lowers an analyzed translation unit (usage/function/type
// checked, range-for already desugared by semantic.Lower) into a
// Unit. Generation assumes the AST already satisfies every invariant
// semantic analysis enforces; a malformed AST panics via
// diag.UnknownNodeKind rather than returning an error, since reaching
// an unhandled node kind here means a pass upstream let something
// through it shouldn't have.
func Generate(decls []ast.Node) (*Unit, error) {
	unit := &Unit{}
	for _, d := range decls {
		fn, ok := d.(*ast.FnDecl)
		if !ok {
			continue
		}
		node, err := genFnDecl(fn)
		if err != nil {
			return nil, err
		}
		unit.FnDecls = append(unit.FnDecls, node)
	}
	return unit, nil
}

func genFnDecl(fn *ast.FnDecl) (*Node, error) {
	s := newFnState()

	var argNodes []*Node
	for _, a := range fn.Args {
		switch v := a.(type) {
		case *ast.VarDecl:
			typ := &ast.TypeInfo{Prim: v.Prim, StructName: v.TypeName, PointerDepth: v.PointerDepth}
			idx := s.declareVar(v.Name, typ)
			argNodes = append(argNodes, NewAllocaNode(v.Prim, v.PointerDepth, idx))
		case *ast.ArrayDecl:
			typ := &ast.TypeInfo{Prim: v.Prim, StructName: v.TypeName, PointerDepth: v.PointerDepth}
			idx := s.declareVar(v.Name, typ)
			dims := make([]int, len(v.Dimensions))
			for i, d := range v.Dimensions {
				dims[i] = int(d.Value)
			}
			argNodes = append(argNodes, NewAllocaArrayNode(v.Prim, dims, idx))
		}
	}

	var body *Node
	if fn.Body != nil {
		if err := genCompound(s, fn.Body); err != nil {
			return nil, err
		}
		body = s.b.Head()
	}

	return NewFnDeclNode(fn.Name, fn.ReturnPrim, fn.PointerDepth, argNodes, body), nil
}

func genCompound(s *fnState, c *ast.Compound) error {
	for _, stmt := range c.Stmts {
		if err := genStmt(s, stmt); err != nil {
			return err
		}
	}
	return nil
}

func genStmt(s *fnState, n ast.Node) error {
	switch stmt := n.(type) {
	case *ast.VarDecl:
		return genVarDecl(s, stmt)
	case *ast.ArrayDecl:
		typ := &ast.TypeInfo{Prim: stmt.Prim, StructName: stmt.TypeName, PointerDepth: stmt.PointerDepth}
		idx := s.declareVar(stmt.Name, typ)
		dims := make([]int, len(stmt.Dimensions))
		for i, d := range stmt.Dimensions {
			dims[i] = int(d.Value)
		}
		s.b.Append(NewAllocaArrayNode(stmt.Prim, dims, idx))
		return nil
	case *ast.Compound:
		return genCompound(s, stmt)
	case *ast.IfStmt:
		return genIf(s, stmt)
	case *ast.WhileStmt:
		return genWhile(s, stmt)
	case *ast.ForStmt:
		return genFor(s, stmt)
	case *ast.DoWhileStmt:
		return genDoWhile(s, stmt)
	case *ast.ReturnStmt:
		return genReturn(s, stmt)
	case *ast.BreakStmt:
		j := NewJumpNode()
		s.b.Append(j)
		s.breakTargets = append(s.breakTargets, j)
		return nil
	case *ast.ContinueStmt:
		if len(s.continueTargets) == 0 {
			diag.UnknownNodeKind("continue outside loop")
		}
		j := NewJumpNode()
		j.Jump.TargetIdx = s.continueTargets[len(s.continueTargets)-1]
		s.b.Append(j)
		return nil
	default:
		if e, ok := n.(ast.Expr); ok {
			_, err := genExpr(s, e)
			return err
		}
		diag.UnknownNodeKind(n)
		return nil
	}
}

func genVarDecl(s *fnState, v *ast.VarDecl) error {
	typ := &ast.TypeInfo{Prim: v.Prim, StructName: v.TypeName, PointerDepth: v.PointerDepth}
	idx := s.declareVar(v.Name, typ)
	alloca := s.b.Append(NewAllocaNode(v.Prim, v.PointerDepth, idx))

	if v.Init == nil {
		return nil
	}
	if str, ok := unwrapCast(v.Init).(*ast.StringLit); ok {
		s.b.Append(NewStoreNode(NewSymNode(idx, typ), NewStringNode(str.Value)))
		return nil
	}
	val, err := genExpr(s, v.Init)
	if err != nil {
		return err
	}
	s.b.Append(NewStoreNode(NewSymNode(idx, typ), val))
	return nil
}

func unwrapCast(e ast.Expr) ast.Expr {
	if c, ok := e.(*ast.ImplicitCastExpr); ok {
		return unwrapCast(c.Sub)
	}
	return e
}

func genReturn(s *fnState, r *ast.ReturnStmt) error {
	if r.Value == nil {
		s.b.Append(NewRetNode(nil))
		return nil
	}
	val, err := genExpr(s, r.Value)
	if err != nil {
		return err
	}
	s.b.Append(NewRetNode(val))
	return nil
}

// genExpr lowers e and returns the node representing its value (an
// Imm or Sym node for leaves, or the Sym wrapping a freshly stored
// temporary for compound expressions). Literal and symbol-reference
// nodes are never appended to the
// instruction list themselves; only allocas/stores/jumps/conds/rets/
// calls are.
func genExpr(s *fnState, e ast.Expr) (*Node, error) {
	switch x := e.(type) {
	case *ast.IntLit:
		return NewImmInt(x.Value), nil
	case *ast.FloatLit:
		return NewImmFloat(x.Value), nil
	case *ast.CharLit:
		return NewImmChar(x.Value), nil
	case *ast.BoolLit:
		return NewImmBool(x.Value), nil
	case *ast.StringLit:
		// The string node is only a value: a consuming context (store,
		// ret, call argument) embeds it, while a bare expression
		// statement discards it and so contributes nothing.
		return NewStringNode(x.Value), nil
	case *ast.SymbolExpr:
		idx, ok := s.names[x.Name]
		if !ok {
			diag.UnknownNodeKind("undeclared symbol reached IR generation: " + x.Name)
		}
		return NewSymNode(idx, s.types[x.Name]), nil
	case *ast.ImplicitCastExpr:
		return genExpr(s, x.Sub)
	case *ast.BinaryExpr:
		return genBinary(s, x)
	case *ast.PrefixUnaryExpr:
		return genUnary(s, x.Op, x.Operand, true)
	case *ast.PostfixUnaryExpr:
		return genUnary(s, x.Op, x.Operand, false)
	case *ast.MemberExpr:
		target, err := genExpr(s, x.Target)
		if err != nil {
			return nil, err
		}
		return NewMemberNode(target, x.Field, x.ResolvedType()), nil
	case *ast.ArrayAccessExpr:
		return genArrayAccess(s, x)
	case *ast.FnCallExpr:
		return genCall(s, x)
	default:
		diag.UnknownNodeKind(e)
		return nil, nil
	}
}

func genBinary(s *fnState, b *ast.BinaryExpr) (*Node, error) {
	if b.Op.IsAssignment() {
		return genAssignment(s, b)
	}

	lhs, err := genExpr(s, b.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := genExpr(s, b.Rhs)
	if err != nil {
		return nil, err
	}

	destTyp := b.ResolvedType()
	destIdx := s.varIdx
	s.varIdx++
	dest := s.b.Append(NewAllocaNode(destTyp.Prim, destTyp.PointerDepth, destIdx))
	bin := NewBinNode(b.Op, lhs, rhs)
	store := NewStoreNode(NewSymNode(dest.Alloca.Idx, destTyp), bin)
	bin.Bin.Parent = store
	s.b.Append(store)
	return NewSymNode(destIdx, destTyp), nil
}

// genAssignment handles `=` and the compound `op=` family: the latter
// first reads the destination (desugared here to lhs = lhs op rhs,
// rather than a distinct compound-assign IR kind, since the core IR
// has no compound-assign primitive of its own).
func genAssignment(s *fnState, b *ast.BinaryExpr) (*Node, error) {
	sym, ok := unwrapCast(b.Lhs).(*ast.SymbolExpr)
	if !ok {
		diag.UnknownNodeKind("non-symbol assignment target reached IR generation")
	}
	idx := s.names[sym.Name]
	typ := s.types[sym.Name]

	rhs, err := genExpr(s, b.Rhs)
	if err != nil {
		return nil, err
	}

	if b.Op == ast.OpAssign {
		s.b.Append(NewStoreNode(NewSymNode(idx, typ), rhs))
		return NewSymNode(idx, typ), nil
	}

	bin := NewBinNode(compoundBaseOp(b.Op), NewSymNode(idx, typ), rhs)
	s.b.Append(NewStoreNode(NewSymNode(idx, typ), bin))
	return NewSymNode(idx, typ), nil
}

func compoundBaseOp(op ast.BinOp) ast.BinOp {
	switch op {
	case ast.OpAddAssign:
		return ast.OpAdd
	case ast.OpSubAssign:
		return ast.OpSub
	case ast.OpMulAssign:
		return ast.OpMul
	case ast.OpDivAssign:
		return ast.OpDiv
	case ast.OpBitAndAssign:
		return ast.OpBitAnd
	case ast.OpBitOrAssign:
		return ast.OpBitOr
	case ast.OpBitXorAssign:
		return ast.OpBitXor
	case ast.OpShlAssign:
		return ast.OpShl
	case ast.OpShrAssign:
		return ast.OpShr
	case ast.OpModAssign:
		return ast.OpMod
	default:
		return op
	}
}

// genUnary implements the post/pre-increment lowering rule: both
// materialize `store sym ← bin(op, sym, imm 1)`, but postfix first
// copies the pre-increment value into a fresh
// temporary (capturing the value "before" the store), while prefix
// emits the store and then reuses the symbol itself as the value
// (the value is read "after").
func genUnary(s *fnState, op ast.UnOp, operand ast.Expr, prefix bool) (*Node, error) {
	sym, ok := unwrapCast(operand).(*ast.SymbolExpr)
	if !ok {
		// &x, *x, -x, !x: not a store target, just a value-producing bin.
		return genUnaryValue(s, op, operand)
	}
	idx := s.names[sym.Name]
	typ := s.types[sym.Name]

	baseOp := ast.OpAdd
	if op == ast.OpDecr {
		baseOp = ast.OpSub
	}

	if prefix {
		bin := NewBinNode(baseOp, NewSymNode(idx, typ), NewImmInt(1))
		s.b.Append(NewStoreNode(NewSymNode(idx, typ), bin))
		return NewSymNode(idx, typ), nil
	}

	tmpIdx := s.varIdx
	s.varIdx++
	tmp := s.b.Append(NewAllocaNode(typ.Prim, typ.PointerDepth, tmpIdx))
	s.b.Append(NewStoreNode(NewSymNode(tmp.Alloca.Idx, typ), NewSymNode(idx, typ)))

	bin := NewBinNode(baseOp, NewSymNode(idx, typ), NewImmInt(1))
	s.b.Append(NewStoreNode(NewSymNode(idx, typ), bin))
	return NewSymNode(tmpIdx, typ), nil
}

func genUnaryValue(s *fnState, op ast.UnOp, operand ast.Expr) (*Node, error) {
	val, err := genExpr(s, operand)
	if err != nil {
		return nil, err
	}
	switch op {
	case ast.OpAddrOf:
		if val.Kind == KindSym {
			val.Sym.AddrOf = true
		}
		return val, nil
	case ast.OpDeref:
		if val.Kind == KindSym {
			val.Sym.Deref = true
		}
		return val, nil
	default:
		destTyp := &ast.TypeInfo{Prim: ast.PrimInt}
		destIdx := s.varIdx
		s.varIdx++
		dest := s.b.Append(NewAllocaNode(destTyp.Prim, 0, destIdx))
		zero := NewImmInt(0)
		var bin *Node
		if op == ast.OpLogNot {
			bin = NewBinNode(ast.OpEq, val, zero)
		} else {
			bin = NewBinNode(ast.OpSub, zero, val)
		}
		s.b.Append(NewStoreNode(NewSymNode(dest.Alloca.Idx, destTyp), bin))
		return NewSymNode(destIdx, destTyp), nil
	}
}

// genArrayAccess lowers `target[i0][i1]...` to pointer arithmetic: each
// index folds left-to-right into `bin(+, addr, index)`, and the final
// address is read through a dereferencing sym. The IR's kind set has
// no dedicated array-index node (only `member` covers aggregate
// access), so indexing rides on the same alloca/bin/sym machinery
// unary `*`/`&` use; the code generator resolves strides from the
// target alloca-array's declared dimensions.
func genArrayAccess(s *fnState, a *ast.ArrayAccessExpr) (*Node, error) {
	addr, err := genExpr(s, a.Target)
	if err != nil {
		return nil, err
	}
	elemType := a.ResolvedType()

	for _, idx := range a.Indices {
		idxNode, err := genExpr(s, idx)
		if err != nil {
			return nil, err
		}
		bin := NewBinNode(ast.OpAdd, addr, idxNode)
		destIdx := s.varIdx
		s.varIdx++
		dest := s.b.Append(NewAllocaNode(elemType.Prim, elemType.PointerDepth+1, destIdx))
		s.b.Append(NewStoreNode(NewSymNode(dest.Alloca.Idx, elemType), bin))
		addr = NewSymNode(destIdx, elemType)
	}

	if addr.Kind == KindSym {
		addr.Sym.Deref = true
	}
	return addr, nil
}

func genCall(s *fnState, call *ast.FnCallExpr) (*Node, error) {
	var args []*Node
	for _, a := range call.Args {
		v, err := genExpr(s, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	fnCall := NewFnCallNode(call.Name, args, call.ResolvedType())
	s.b.Append(fnCall)
	return fnCall, nil
}

func genIf(s *fnState, stmt *ast.IfStmt) error {
	condVal, err := genExpr(s, stmt.Cond)
	if err != nil {
		return err
	}
	condBin := NewBinNode(ast.OpNeq, condVal, NewImmInt(0))
	condNode := NewCondNode(condBin)
	s.b.Append(condNode)

	elseJump := NewJumpNode()
	s.b.Append(elseJump)

	condNode.Cond.GotoIdx = elseJump.InstrIdx + 1

	if err := genCompound(s, stmt.Then); err != nil {
		return err
	}

	if stmt.Else == nil {
		elseJump.Jump.TargetIdx = s.b.Last().InstrIdx + 1
		return nil
	}

	endJump := NewJumpNode()
	s.b.Append(endJump)
	elseJump.Jump.TargetIdx = endJump.InstrIdx + 1

	if err := genStmt(s, stmt.Else); err != nil {
		return err
	}
	endJump.Jump.TargetIdx = s.b.Last().InstrIdx + 1
	return nil
}

func genWhile(s *fnState, stmt *ast.WhileStmt) error {
	loopStart := s.next()
	condVal, err := genExpr(s, stmt.Cond)
	if err != nil {
		return err
	}
	condBin := NewBinNode(ast.OpNeq, condVal, NewImmInt(0))
	condNode := NewCondNode(condBin)
	s.b.Append(condNode)

	exitJump := NewJumpNode()
	s.b.Append(exitJump)
	condNode.Cond.GotoIdx = exitJump.InstrIdx + 1

	s.continueTargets = append(s.continueTargets, loopStart)
	s.breakTargets = append(s.breakTargets, nil) // sentinel marking this loop's frame
	frame := len(s.breakTargets) - 1

	if err := genCompound(s, stmt.Body); err != nil {
		return err
	}

	back := NewJumpNode()
	back.Jump.TargetIdx = loopStart
	s.b.Append(back)

	exitJump.Jump.TargetIdx = back.InstrIdx + 1
	s.patchBreaks(frame, back.InstrIdx+1)
	s.continueTargets = s.continueTargets[:len(s.continueTargets)-1]
	return nil
}

func genFor(s *fnState, stmt *ast.ForStmt) error {
	if stmt.Init != nil {
		if err := genStmt(s, stmt.Init); err != nil {
			return err
		}
	}

	loopStart := s.next()
	var condNode *Node
	var exitJump *Node
	if stmt.Cond != nil {
		condVal, err := genExpr(s, stmt.Cond)
		if err != nil {
			return err
		}
		condBin := NewBinNode(ast.OpNeq, condVal, NewImmInt(0))
		condNode = NewCondNode(condBin)
		s.b.Append(condNode)
		exitJump = NewJumpNode()
		s.b.Append(exitJump)
		condNode.Cond.GotoIdx = exitJump.InstrIdx + 1
	}

	s.breakTargets = append(s.breakTargets, nil)
	frame := len(s.breakTargets) - 1
	// continue in a classic for jumps to the post-expression, not the
	// condition test; record its position once emitted below. Since the
	// post hasn't been generated yet, continue targets are patched
	// retroactively via a second pass over breakTargets-style bookkeeping.
	continueIdx := -1
	s.continueTargets = append(s.continueTargets, -1)
	contFrame := len(s.continueTargets) - 1

	beforeBody := s.b.Last()
	if err := genCompound(s, stmt.Body); err != nil {
		return err
	}

	continueIdx = s.next()
	s.continueTargets[contFrame] = continueIdx

	// Every jump in the body still holding the -1 placeholder is either
	// a pending break of this loop or one of its continues.
	pendingBreak := map[*Node]bool{}
	for _, j := range s.breakTargets[frame:] {
		pendingBreak[j] = true
	}
	bodyNode := s.b.Head()
	if beforeBody != nil {
		bodyNode = beforeBody.Next
	}
	for ; bodyNode != nil; bodyNode = bodyNode.Next {
		if bodyNode.Kind == KindJump && bodyNode.Jump.TargetIdx == -1 && !pendingBreak[bodyNode] {
			bodyNode.Jump.TargetIdx = continueIdx
		}
	}
	if stmt.Post != nil {
		if _, err := genExpr(s, stmt.Post); err != nil {
			return err
		}
	}

	back := NewJumpNode()
	back.Jump.TargetIdx = loopStart
	s.b.Append(back)

	if exitJump != nil {
		exitJump.Jump.TargetIdx = back.InstrIdx + 1
	}
	s.patchBreaks(frame, back.InstrIdx+1)
	s.continueTargets = s.continueTargets[:contFrame]
	_ = continueIdx
	return nil
}

func genDoWhile(s *fnState, stmt *ast.DoWhileStmt) error {
	bodyStart := s.next()
	s.breakTargets = append(s.breakTargets, nil)
	frame := len(s.breakTargets) - 1
	s.continueTargets = append(s.continueTargets, bodyStart)

	if err := genCompound(s, stmt.Body); err != nil {
		return err
	}

	condVal, err := genExpr(s, stmt.Cond)
	if err != nil {
		return err
	}
	condBin := NewBinNode(ast.OpNeq, condVal, NewImmInt(0))
	condNode := NewCondNode(condBin)
	condNode.Cond.GotoIdx = bodyStart
	s.b.Append(condNode)

	fallThrough := NewJumpNode()
	s.b.Append(fallThrough)
	fallThrough.Jump.TargetIdx = fallThrough.InstrIdx + 1

	s.patchBreaks(frame, fallThrough.InstrIdx+1)
	s.continueTargets = s.continueTargets[:len(s.continueTargets)-1]
	return nil
}

// next reports the instr_idx the next Append call will assign,
// without assigning it — used to record loop_start before the loop
// test is emitted.
func (s *fnState) next() int {
	if s.b.Last() == nil {
		return 0
	}
	return s.b.Last().InstrIdx + 1
}

// patchBreaks resolves every break jump recorded for the loop frame
// starting at index frame to target, then truncates breakTargets back
// to that frame (a nested loop's own frame is popped the same way by
// its own generator before this call, so frame always refers to the
// still-open outermost remaining entry).
func (s *fnState) patchBreaks(frame int, target int) {
	for i := frame; i < len(s.breakTargets); i++ {
		if s.breakTargets[i] != nil {
			s.breakTargets[i].Jump.TargetIdx = target
		}
	}
	s.breakTargets = s.breakTargets[:frame]
}
