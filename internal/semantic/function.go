package semantic

import (
	"nanocc/internal/ast"
	"nanocc/internal/diag"
)

// FunctionAnalyzer verifies call-site validity (the callee names a
// visible function, and the argument count matches) and the
// structural missing-return check: a non-void function must have a
// returning path reaching every fall-through exit of its body.
type FunctionAnalyzer struct {
	bag  *diag.Bag
	fns  map[string]*ast.FnDecl
}

func NewFunctionAnalyzer(bag *diag.Bag) *FunctionAnalyzer {
	return &FunctionAnalyzer{bag: bag, fns: make(map[string]*ast.FnDecl)}
}

// Analyze registers every declaration's signature first (so forward
// and mutual calls resolve regardless of declaration order), then
// walks each function with a body.
func (f *FunctionAnalyzer) Analyze(decls []*ast.FnDecl) {
	for _, fn := range decls {
		f.fns[fn.Name] = fn
	}
	for _, fn := range decls {
		if fn.Body == nil {
			continue
		}
		f.checkCalls(fn.Body)
		if fn.ReturnPrim != ast.PrimVoid && !f.compoundAlwaysReturns(fn.Body) {
			f.bag.Errorf(diag.ErrMissingReturn, fn.Pos,
				"function %q declares a non-void return type but may fall off its end without returning a value", fn.Name)
		}
	}
}

func (f *FunctionAnalyzer) checkCalls(n ast.Node) {
	switch s := n.(type) {
	case *ast.Compound:
		for _, stmt := range s.Stmts {
			f.checkCalls(stmt)
		}
	case *ast.IfStmt:
		f.checkCallsExpr(s.Cond)
		f.checkCalls(s.Then)
		if s.Else != nil {
			f.checkCalls(s.Else)
		}
	case *ast.ForStmt:
		if s.Init != nil {
			f.checkCalls(s.Init)
		}
		if s.Cond != nil {
			f.checkCallsExpr(s.Cond)
		}
		if s.Post != nil {
			f.checkCallsExpr(s.Post)
		}
		f.checkCalls(s.Body)
	case *ast.ForRangeStmt:
		f.checkCallsExpr(s.Range)
		f.checkCalls(s.Body)
	case *ast.WhileStmt:
		f.checkCallsExpr(s.Cond)
		f.checkCalls(s.Body)
	case *ast.DoWhileStmt:
		f.checkCalls(s.Body)
		f.checkCallsExpr(s.Cond)
	case *ast.ReturnStmt:
		if s.Value != nil {
			f.checkCallsExpr(s.Value)
		}
	case *ast.VarDecl:
		if s.Init != nil {
			f.checkCallsExpr(s.Init)
		}
	default:
		if e, ok := n.(ast.Expr); ok {
			f.checkCallsExpr(e)
		}
	}
}

func (f *FunctionAnalyzer) checkCallsExpr(e ast.Expr) {
	switch x := e.(type) {
	case *ast.FnCallExpr:
		decl, ok := f.fns[x.Name]
		if !ok {
			f.bag.Errorf(diag.ErrUndefinedSymbol, x.NodePos(), "call to undeclared function %q", x.Name)
			break
		}
		if len(x.Args) != len(decl.Args) {
			f.bag.Errorf(diag.ErrArityMismatch, x.NodePos(),
				"function %q expects %d argument(s), got %d", x.Name, len(decl.Args), len(x.Args))
		}
		for _, arg := range x.Args {
			f.checkCallsExpr(arg)
		}
	case *ast.BinaryExpr:
		f.checkCallsExpr(x.Lhs)
		f.checkCallsExpr(x.Rhs)
	case *ast.PrefixUnaryExpr:
		f.checkCallsExpr(x.Operand)
	case *ast.PostfixUnaryExpr:
		f.checkCallsExpr(x.Operand)
	case *ast.MemberExpr:
		f.checkCallsExpr(x.Target)
	case *ast.ArrayAccessExpr:
		f.checkCallsExpr(x.Target)
		for _, idx := range x.Indices {
			f.checkCallsExpr(idx)
		}
	case *ast.ImplicitCastExpr:
		f.checkCallsExpr(x.Sub)
	}
}

// compoundAlwaysReturns is the structural missing-return check: a
// terminal return in linear fall-through, or a return on both
// branches of a terminal if/else, makes every exit of the compound a
// returning one.
func (f *FunctionAnalyzer) compoundAlwaysReturns(c *ast.Compound) bool {
	if len(c.Stmts) == 0 {
		return false
	}
	last := c.Stmts[len(c.Stmts)-1]
	return f.stmtAlwaysReturns(last)
}

func (f *FunctionAnalyzer) stmtAlwaysReturns(n ast.Node) bool {
	switch s := n.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.Compound:
		return f.compoundAlwaysReturns(s)
	case *ast.IfStmt:
		if s.Else == nil {
			return false
		}
		return f.stmtAlwaysReturns(s.Then) && f.stmtAlwaysReturns(s.Else)
	default:
		return false
	}
}
