package semantic

import (
	"nanocc/internal/ast"
	"nanocc/internal/diag"
	"nanocc/internal/symtab"
)

// operator families: which BinOps are legal for a pair of scalar
// operands of a given primitive, and what each family's result type
// is.
var comparisonOps = map[ast.BinOp]bool{
	ast.OpLt: true, ast.OpLe: true, ast.OpGt: true, ast.OpGe: true,
	ast.OpEq: true, ast.OpNeq: true, ast.OpAnd: true, ast.OpOr: true,
}

var arithmeticOps = map[ast.BinOp]bool{
	ast.OpAdd: true, ast.OpSub: true, ast.OpMul: true, ast.OpDiv: true,
	ast.OpAddAssign: true, ast.OpSubAssign: true, ast.OpMulAssign: true, ast.OpDivAssign: true,
}

var bitwiseOps = map[ast.BinOp]bool{
	ast.OpBitAnd: true, ast.OpBitOr: true, ast.OpBitXor: true, ast.OpShl: true, ast.OpShr: true, ast.OpMod: true,
	ast.OpBitAndAssign: true, ast.OpBitOrAssign: true, ast.OpBitXorAssign: true,
	ast.OpShlAssign: true, ast.OpShrAssign: true, ast.OpModAssign: true,
}

func isNumeric(p ast.Primitive) bool {
	switch p {
	case ast.PrimInt, ast.PrimChar, ast.PrimFloat, ast.PrimBool:
		return true
	default:
		return false
	}
}

// TypeChecker is the type-checking tree walk. An expression's type and
// pointer depth travel as the *ast.TypeInfo that checkExpr returns; the
// only per-function state is lastReturnType, the type of the last
// return statement checked.
type TypeChecker struct {
	bag            *diag.Bag
	fns            map[string]*ast.FnDecl
	structs        map[string]*ast.StructDecl
	lastReturnType *ast.TypeInfo
}

func NewTypeChecker(bag *diag.Bag) *TypeChecker {
	return &TypeChecker{
		bag:     bag,
		fns:     make(map[string]*ast.FnDecl),
		structs: make(map[string]*ast.StructDecl),
	}
}

// Check type-checks every declaration in decls, annotating each
// expression node's ResolvedType in place and wrapping nodes that need
// an implicit conversion in an ImplicitCastExpr. decls may include
// struct declarations, which are registered and have the dimensions of
// their array fields checked.
func (c *TypeChecker) Check(decls []ast.Node) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.FnDecl:
			c.fns[n.Name] = n
		case *ast.StructDecl:
			c.structs[n.Name] = n
			for _, f := range n.Fields {
				if arr, ok := f.(*ast.ArrayDecl); ok {
					c.checkArrayDims(arr)
				}
			}
		}
	}
	for _, d := range decls {
		if fn, ok := d.(*ast.FnDecl); ok {
			c.checkFnDecl(fn)
		}
	}
}

func (c *TypeChecker) checkFnDecl(fn *ast.FnDecl) {
	if fn.Body == nil {
		return
	}
	scope := symtab.NewScope(nil)
	for _, arg := range fn.Args {
		switch a := arg.(type) {
		case *ast.VarDecl:
			scope.Declare(a.Name, symtab.KindParameter, a, a.Pos, primType(a.Prim, a.TypeName, a.PointerDepth))
		case *ast.ArrayDecl:
			scope.Declare(a.Name, symtab.KindParameter, a, a.Pos, primType(a.Prim, a.TypeName, a.PointerDepth))
			c.checkArrayDims(a)
		}
	}
	c.lastReturnType = &ast.TypeInfo{Prim: ast.PrimUnknown}
	c.checkCompound(fn.Body, scope)

	want := primType(fn.ReturnPrim, fn.ReturnTypeName, fn.PointerDepth)
	if fn.ReturnPrim != ast.PrimVoid && !c.lastReturnType.Equal(want) && c.lastReturnType.Prim != ast.PrimUnknown {
		c.bag.Errorf(diag.ErrInvalidReturnType, fn.Pos,
			"function %q returns %s but a %s value was returned", fn.Name, want, c.lastReturnType)
	}
}

func primType(p ast.Primitive, structName string, depth int) *ast.TypeInfo {
	return &ast.TypeInfo{Prim: p, StructName: structName, PointerDepth: depth}
}

func (c *TypeChecker) checkCompound(comp *ast.Compound, parent *symtab.Scope) {
	scope := symtab.NewScope(parent)
	for _, stmt := range comp.Stmts {
		c.checkStmt(stmt, scope)
	}
}

func (c *TypeChecker) checkStmt(n ast.Node, scope *symtab.Scope) {
	switch s := n.(type) {
	case *ast.VarDecl:
		declType := primType(s.Prim, s.TypeName, s.PointerDepth)
		if prev := scope.LookupLocal(s.Name); prev != nil {
			c.bag.Errorf(diag.ErrDuplicateInScope, s.Pos,
				"%q is already declared in this scope at line %d", s.Name, prev.Position.Line)
		}
		scope.Declare(s.Name, symtab.KindVariable, s, s.Pos, declType)
		if s.Init != nil {
			initType := c.checkExpr(s.Init, scope)
			if _, isStr := s.Init.(*ast.StringLit); isStr && declType.PointerDepth >= 1 {
				// string-literal-to-pointer exception
				break
			}
			if !initType.Equal(declType) {
				if c.tryImplicitCast(&s.Init, initType, declType) {
					break
				}
				c.bag.Errorf(diag.ErrTypeMismatch, s.Pos,
					"cannot initialize %q of type %s with value of type %s", s.Name, declType, initType)
			}
		}
	case *ast.ArrayDecl:
		if prev := scope.LookupLocal(s.Name); prev != nil {
			c.bag.Errorf(diag.ErrDuplicateInScope, s.Pos,
				"%q is already declared in this scope at line %d", s.Name, prev.Position.Line)
		}
		scope.Declare(s.Name, symtab.KindVariable, s, s.Pos, primType(s.Prim, s.TypeName, s.PointerDepth))
		c.checkArrayDims(s)
	case *ast.StructDecl:
		// nested struct declarations are not part of this language; ignore defensively
	case *ast.IfStmt:
		c.checkCondition(s.Cond, scope, s.Pos)
		c.checkCompound(s.Then, scope)
		if s.Else != nil {
			c.checkStmt(s.Else, scope)
		}
	case *ast.Compound:
		c.checkCompound(s, scope)
	case *ast.ForStmt:
		loop := symtab.NewScope(scope)
		if s.Init != nil {
			c.checkStmt(s.Init, loop)
		}
		if s.Cond != nil {
			c.checkCondition(s.Cond, loop, s.Pos)
		}
		if s.Post != nil {
			c.checkExpr(s.Post, loop)
		}
		c.checkCompound(s.Body, loop)
	case *ast.ForRangeStmt:
		loop := symtab.NewScope(scope)
		c.checkExpr(s.Range, loop)
		loop.Declare(s.Var, symtab.KindVariable, s, s.Pos, &ast.TypeInfo{Prim: ast.PrimInt})
		c.checkCompound(s.Body, loop)
	case *ast.WhileStmt:
		c.checkCondition(s.Cond, scope, s.Pos)
		c.checkCompound(s.Body, scope)
	case *ast.DoWhileStmt:
		c.checkCompound(s.Body, scope)
		c.checkCondition(s.Cond, scope, s.Pos)
	case *ast.ReturnStmt:
		if s.Value == nil {
			c.lastReturnType = &ast.TypeInfo{Prim: ast.PrimVoid}
			return
		}
		c.lastReturnType = c.checkExpr(s.Value, scope)
	case *ast.BreakStmt, *ast.ContinueStmt:
		// no type work
	default:
		if e, ok := n.(ast.Expr); ok {
			c.checkExpr(e, scope)
		}
	}
}

func (c *TypeChecker) checkCondition(e ast.Expr, scope *symtab.Scope, pos ast.Position) {
	t := c.checkExpr(e, scope)
	if t.Prim != ast.PrimInt && t.Prim != ast.PrimBool {
		c.bag.Errorf(diag.ErrTypeMismatch, pos, "condition must be convertible to bool, got %s", t)
	}
}

// checkExpr annotates e.ResolvedType and returns it.
func (c *TypeChecker) checkExpr(e ast.Expr, scope *symtab.Scope) *ast.TypeInfo {
	var t *ast.TypeInfo
	switch x := e.(type) {
	case *ast.CharLit:
		t = &ast.TypeInfo{Prim: ast.PrimChar}
	case *ast.IntLit:
		t = &ast.TypeInfo{Prim: ast.PrimInt}
	case *ast.FloatLit:
		t = &ast.TypeInfo{Prim: ast.PrimFloat}
	case *ast.BoolLit:
		t = &ast.TypeInfo{Prim: ast.PrimBool}
	case *ast.StringLit:
		t = &ast.TypeInfo{Prim: ast.PrimChar, PointerDepth: 1}
	case *ast.SymbolExpr:
		sym := scope.Lookup(x.Name)
		if sym == nil {
			c.bag.Errorf(diag.ErrUndefinedSymbol, x.Pos, "undefined symbol %q", x.Name)
			t = &ast.TypeInfo{Prim: ast.PrimUnknown}
		} else {
			scope.MarkUsed(x.Name)
			t = sym.Type
		}
	case *ast.BinaryExpr:
		t = c.checkBinary(x, scope)
	case *ast.PrefixUnaryExpr:
		t = c.checkUnary(x.Op, x.Operand, x.Pos, scope)
	case *ast.PostfixUnaryExpr:
		t = c.checkUnary(x.Op, x.Operand, x.Pos, scope)
	case *ast.MemberExpr:
		t = c.checkMember(x, scope)
	case *ast.ArrayAccessExpr:
		t = c.checkArrayAccess(x, scope)
	case *ast.FnCallExpr:
		t = c.checkCall(x, scope)
	case *ast.ImplicitCastExpr:
		c.checkExpr(x.Sub, scope)
		t = x.ResolvedType()
	default:
		t = &ast.TypeInfo{Prim: ast.PrimUnknown}
	}
	e.SetResolvedType(t)
	return t
}

func (c *TypeChecker) checkBinary(b *ast.BinaryExpr, scope *symtab.Scope) *ast.TypeInfo {
	if b.Op.IsAssignment() {
		if sym, ok := b.Lhs.(*ast.SymbolExpr); ok {
			scope.MarkAssigned(sym.Name)
		}
	}
	lt := c.checkExpr(b.Lhs, scope)
	rt := c.checkExpr(b.Rhs, scope)

	if lt.PointerDepth > 0 || rt.PointerDepth > 0 {
		if lt.PointerDepth != rt.PointerDepth {
			c.bag.Errorf(diag.ErrTypeMismatch, b.Pos,
				"indirection mismatch: %s vs %s", lt, rt)
			return lt
		}
		return lt
	}

	if !lt.Equal(rt) {
		if c.tryImplicitCast(&b.Rhs, rt, lt) {
			rt = lt
		} else if c.tryImplicitCast(&b.Lhs, lt, rt) {
			lt = rt
		} else {
			c.bag.Errorf(diag.ErrTypeMismatch, b.Pos, "operand types differ: %s vs %s", lt, rt)
			return lt
		}
	}

	switch {
	case b.Op.IsAssignment():
		return lt
	case comparisonOps[b.Op]:
		if !isNumeric(lt.Prim) {
			c.bag.Errorf(diag.ErrTypeMismatch, b.Pos, "operator %s not valid for type %s", b.Op, lt)
		}
		return &ast.TypeInfo{Prim: ast.PrimInt}
	case arithmeticOps[b.Op]:
		if lt.Prim != ast.PrimInt && lt.Prim != ast.PrimChar && lt.Prim != ast.PrimBool && lt.Prim != ast.PrimFloat {
			c.bag.Errorf(diag.ErrTypeMismatch, b.Pos, "operator %s not valid for type %s", b.Op, lt)
		}
		return lt
	case bitwiseOps[b.Op]:
		if lt.Prim != ast.PrimInt && lt.Prim != ast.PrimChar && lt.Prim != ast.PrimBool {
			c.bag.Errorf(diag.ErrTypeMismatch, b.Pos, "operator %s requires int/char/bool, got %s", b.Op, lt)
		}
		return lt
	default:
		return lt
	}
}

func (c *TypeChecker) checkUnary(op ast.UnOp, operand ast.Expr, pos ast.Position, scope *symtab.Scope) *ast.TypeInfo {
	t := c.checkExpr(operand, scope)
	switch op {
	case ast.OpIncr, ast.OpDecr:
		if t.Prim != ast.PrimInt && t.Prim != ast.PrimChar {
			c.bag.Errorf(diag.ErrTypeMismatch, pos, "operator %s requires int or char, got %s", op, t)
		}
		if sym, ok := operand.(*ast.SymbolExpr); ok {
			scope.MarkAssigned(sym.Name)
		}
		return t
	case ast.OpAddrOf:
		return t.AddrOf()
	case ast.OpDeref:
		deref, err := t.Deref()
		if err != nil {
			c.bag.Errorf(diag.ErrNotAPointer, pos, "cannot dereference non-pointer type %s", t)
			return t
		}
		return deref
	default:
		return t
	}
}

func (c *TypeChecker) checkMember(m *ast.MemberExpr, scope *symtab.Scope) *ast.TypeInfo {
	target := c.checkExpr(m.Target, scope)
	if target.Prim != ast.PrimStruct {
		c.bag.Errorf(diag.ErrFieldNotFound, m.Pos, "member access on non-struct type %s", target)
		return &ast.TypeInfo{Prim: ast.PrimUnknown}
	}
	decl, ok := c.structs[target.StructName]
	if !ok {
		c.bag.Errorf(diag.ErrFieldNotFound, m.Pos, "unknown struct type %s", target.StructName)
		return &ast.TypeInfo{Prim: ast.PrimUnknown}
	}
	for _, f := range decl.Fields {
		switch fd := f.(type) {
		case *ast.VarDecl:
			if fd.Name == m.Field {
				return primType(fd.Prim, fd.TypeName, fd.PointerDepth)
			}
		case *ast.ArrayDecl:
			if fd.Name == m.Field {
				return primType(fd.Prim, fd.TypeName, fd.PointerDepth)
			}
		}
	}
	c.bag.Errorf(diag.ErrFieldNotFound, m.Pos, "struct %s has no field %q", target.StructName, m.Field)
	return &ast.TypeInfo{Prim: ast.PrimUnknown}
}

// arrayDeclFor returns the *ast.ArrayDecl target resolves to, when target
// is a plain reference to a name declared as an array, or nil otherwise
// (a pointer variable, a struct member, an arbitrary expression).
func arrayDeclFor(target ast.Expr, scope *symtab.Scope) *ast.ArrayDecl {
	sym, ok := target.(*ast.SymbolExpr)
	if !ok {
		return nil
	}
	s := scope.Lookup(sym.Name)
	if s == nil {
		return nil
	}
	decl, _ := s.Node.(*ast.ArrayDecl)
	return decl
}

// checkArrayDims reports a declared array dimension that is not a
// positive size.
func (c *TypeChecker) checkArrayDims(decl *ast.ArrayDecl) {
	for _, d := range decl.Dimensions {
		if d.Value <= 0 {
			c.bag.Errorf(diag.ErrInvalidArraySize, d.NodePos(),
				"array %q has a dimension of size %d; array dimensions must be positive", decl.Name, d.Value)
		}
	}
}

func (c *TypeChecker) checkArrayAccess(a *ast.ArrayAccessExpr, scope *symtab.Scope) *ast.TypeInfo {
	target := c.checkExpr(a.Target, scope)
	decl := arrayDeclFor(a.Target, scope)

	if decl == nil && target.PointerDepth == 0 {
		c.bag.Errorf(diag.ErrNotIndexable, a.Pos, "indexing target is not an array or pointer")
		return target
	}

	if decl != nil && len(a.Indices) > len(decl.Dimensions) {
		c.bag.Errorf(diag.ErrDimensionMismatch, a.Pos,
			"cannot take a %d dimensional index of %q, a %d dimensional array",
			len(a.Indices), decl.Name, len(decl.Dimensions))
	}

	result := &ast.TypeInfo{Prim: target.Prim, StructName: target.StructName, PointerDepth: target.PointerDepth - len(a.Indices)}
	if result.PointerDepth < 0 {
		result.PointerDepth = 0
	}
	for i, idx := range a.Indices {
		it := c.checkExpr(idx, scope)
		if it.Prim != ast.PrimInt {
			c.bag.Errorf(diag.ErrTypeMismatch, idx.NodePos(), "array index must be int, got %s", it)
		}
		lit, ok := idx.(*ast.IntLit)
		if !ok {
			continue
		}
		if lit.Value < 0 {
			c.bag.Errorf(diag.ErrIndexOutOfRange, idx.NodePos(), "array index %d is out of range", lit.Value)
			continue
		}
		if decl != nil && i < len(decl.Dimensions) {
			if bound := decl.Dimensions[i].Value; lit.Value >= bound {
				c.bag.Errorf(diag.ErrIndexOutOfRange, idx.NodePos(),
					"array index %d is out of range for dimension of size %d", lit.Value, bound)
			}
		}
	}
	return result
}

func (c *TypeChecker) checkCall(call *ast.FnCallExpr, scope *symtab.Scope) *ast.TypeInfo {
	decl, ok := c.fns[call.Name]
	if !ok {
		c.bag.Errorf(diag.ErrUndefinedSymbol, call.Pos, "call to undeclared function %q", call.Name)
		for _, arg := range call.Args {
			c.checkExpr(arg, scope)
		}
		return &ast.TypeInfo{Prim: ast.PrimUnknown}
	}
	for i, arg := range call.Args {
		argType := c.checkExpr(arg, scope)
		if i >= len(decl.Args) {
			continue // arity mismatch already reported by FunctionAnalyzer
		}
		var paramType *ast.TypeInfo
		switch p := decl.Args[i].(type) {
		case *ast.VarDecl:
			paramType = primType(p.Prim, p.TypeName, p.PointerDepth)
		case *ast.ArrayDecl:
			paramType = primType(p.Prim, p.TypeName, p.PointerDepth)
		}
		if paramType != nil && !argType.Equal(paramType) {
			if !c.tryImplicitCast(&call.Args[i], argType, paramType) {
				c.bag.Errorf(diag.ErrTypeMismatch, arg.NodePos(),
					"argument %d to %q has type %s, expected %s", i+1, call.Name, argType, paramType)
			}
		}
	}
	return primType(decl.ReturnPrim, decl.ReturnTypeName, decl.PointerDepth)
}

// tryImplicitCast wraps *slot in an ImplicitCastExpr targeting want when
// from and want are both scalar numeric and differ only in primitive
// (never in pointer depth: an indirection mismatch is never an
// implicit cast). It reports whether a cast was inserted.
func (c *TypeChecker) tryImplicitCast(slot *ast.Expr, from, want *ast.TypeInfo) bool {
	if from.PointerDepth != 0 || want.PointerDepth != 0 {
		return false
	}
	if !from.IsScalarNumeric() || !want.IsScalarNumeric() {
		return false
	}
	cast := &ast.ImplicitCastExpr{Sub: *slot}
	cast.SetResolvedType(want)
	*slot = cast
	return true
}
