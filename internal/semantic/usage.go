// Package semantic is the family of AST tree walks: usage analysis,
// function analysis, type checking with implicit-cast insertion, and
// the lowering pass that desugars range-for into a classic three-part
// for loop. Only the type checker uses the scoped symbol table of
// internal/symtab; the usage analyzer keeps its own read/write-counting
// scopes, and the function analyzer a flat map of function declarations.
package semantic

import (
	"nanocc/internal/ast"
	"nanocc/internal/diag"
)

// entryPoint is the one function name exempt from the unused-function
// warning, the way a translation unit's designated entry is everywhere.
const entryPoint = "main"

// UsageAnalyzer walks a translation unit once, counting reads and
// writes per binding so it can report unused names and write-only
// variables. It never raises an error; all findings are warnings.
type UsageAnalyzer struct {
	bag          *diag.Bag
	calledFns    map[string]bool
	declaredFns  map[string]ast.Position
}

func NewUsageAnalyzer(bag *diag.Bag) *UsageAnalyzer {
	return &UsageAnalyzer{
		bag:         bag,
		calledFns:   make(map[string]bool),
		declaredFns: make(map[string]ast.Position),
	}
}

// Analyze walks every top-level function declaration in decls, warning
// for unused variables, write-only variables, and (after all functions
// have been visited) unused functions.
func (u *UsageAnalyzer) Analyze(decls []*ast.FnDecl) {
	for _, fn := range decls {
		if fn.Name != entryPoint {
			u.declaredFns[fn.Name] = fn.Pos
		}
		u.walkFnDecl(fn)
	}
	for name, pos := range u.declaredFns {
		if !u.calledFns[name] {
			u.bag.Warnf(diag.WarnUnusedFunction, pos, "function %q is never called", name)
		}
	}
}

func (u *UsageAnalyzer) walkFnDecl(fn *ast.FnDecl) {
	if fn.Body == nil {
		return
	}
	scope := newUsageScope(nil)
	for _, arg := range fn.Args {
		if v, ok := arg.(*ast.VarDecl); ok {
			scope.declare(v.Name, v.Pos)
			scope.markUsed(v.Name) // parameters are part of the signature, not flagged
		}
	}
	u.walkCompound(fn.Body, scope)
}

type usageBinding struct {
	pos      ast.Position
	reads    int
	writes   int
}

type usageScope struct {
	bindings map[string]*usageBinding
	parent   *usageScope
}

func newUsageScope(parent *usageScope) *usageScope {
	return &usageScope{bindings: make(map[string]*usageBinding), parent: parent}
}

func (s *usageScope) declare(name string, pos ast.Position) {
	s.bindings[name] = &usageBinding{pos: pos}
}

func (s *usageScope) find(name string) *usageBinding {
	if b, ok := s.bindings[name]; ok {
		return b
	}
	if s.parent != nil {
		return s.parent.find(name)
	}
	return nil
}

func (s *usageScope) markUsed(name string) {
	if b := s.find(name); b != nil {
		b.reads++
	}
}

func (s *usageScope) markWritten(name string) {
	if b := s.find(name); b != nil {
		b.writes++
	}
}

func (u *UsageAnalyzer) reportUnused(s *usageScope) {
	for name, b := range s.bindings {
		switch {
		case b.reads == 0 && b.writes == 0:
			u.bag.Warnf(diag.WarnUnusedVariable, b.pos, "variable %q is declared but never used", name)
		case b.reads == 0 && b.writes > 0:
			u.bag.Warnf(diag.WarnUnusedVariable, b.pos, "variable %q is written but never read", name)
		}
	}
}

func (u *UsageAnalyzer) walkCompound(c *ast.Compound, parent *usageScope) {
	scope := newUsageScope(parent)
	for _, stmt := range c.Stmts {
		u.walkStmt(stmt, scope)
	}
	u.reportUnused(scope)
}

func (u *UsageAnalyzer) walkStmt(n ast.Node, scope *usageScope) {
	switch s := n.(type) {
	case *ast.VarDecl:
		scope.declare(s.Name, s.Pos)
		if s.Init != nil {
			u.walkExpr(s.Init, scope)
			scope.markWritten(s.Name)
		}
	case *ast.ArrayDecl:
		scope.declare(s.Name, s.Pos)
	case *ast.IfStmt:
		u.walkExpr(s.Cond, scope)
		u.walkCompound(s.Then, scope)
		if s.Else != nil {
			u.walkStmt(s.Else, scope)
		}
	case *ast.Compound:
		u.walkCompound(s, scope)
	case *ast.ForStmt:
		loopScope := newUsageScope(scope)
		if s.Init != nil {
			u.walkStmt(s.Init, loopScope)
		}
		if s.Cond != nil {
			u.walkExpr(s.Cond, loopScope)
		}
		if s.Post != nil {
			u.walkExpr(s.Post, loopScope)
		}
		u.walkCompound(s.Body, loopScope)
		u.reportUnused(loopScope)
	case *ast.ForRangeStmt:
		loopScope := newUsageScope(scope)
		u.walkExpr(s.Range, loopScope)
		loopScope.declare(s.Var, s.Pos)
		loopScope.markUsed(s.Var)
		u.walkCompound(s.Body, loopScope)
		u.reportUnused(loopScope)
	case *ast.WhileStmt:
		u.walkExpr(s.Cond, scope)
		u.walkCompound(s.Body, scope)
	case *ast.DoWhileStmt:
		u.walkCompound(s.Body, scope)
		u.walkExpr(s.Cond, scope)
	case *ast.ReturnStmt:
		if s.Value != nil {
			u.walkExpr(s.Value, scope)
		}
	case *ast.BreakStmt, *ast.ContinueStmt:
		// no bindings touched
	default:
		if e, ok := n.(ast.Expr); ok {
			u.walkExpr(e, scope)
		}
	}
}

func (u *UsageAnalyzer) walkExpr(e ast.Expr, scope *usageScope) {
	switch x := e.(type) {
	case *ast.SymbolExpr:
		scope.markUsed(x.Name)
	case *ast.BinaryExpr:
		if x.Op.IsAssignment() {
			if sym, ok := x.Lhs.(*ast.SymbolExpr); ok {
				scope.markWritten(sym.Name)
				if x.Op != ast.OpAssign {
					scope.markUsed(sym.Name) // compound assignment reads first
				}
			} else {
				u.walkExpr(x.Lhs, scope)
			}
		} else {
			u.walkExpr(x.Lhs, scope)
		}
		u.walkExpr(x.Rhs, scope)
	case *ast.PrefixUnaryExpr:
		u.walkUnaryOperand(x.Op, x.Operand, scope)
	case *ast.PostfixUnaryExpr:
		u.walkUnaryOperand(x.Op, x.Operand, scope)
	case *ast.MemberExpr:
		u.walkExpr(x.Target, scope)
	case *ast.ArrayAccessExpr:
		u.walkExpr(x.Target, scope)
		for _, idx := range x.Indices {
			u.walkExpr(idx, scope)
		}
	case *ast.FnCallExpr:
		u.calledFns[x.Name] = true
		for _, arg := range x.Args {
			u.walkExpr(arg, scope)
		}
	case *ast.ImplicitCastExpr:
		u.walkExpr(x.Sub, scope)
	default:
		// literals: nothing to mark
	}
}

func (u *UsageAnalyzer) walkUnaryOperand(op ast.UnOp, operand ast.Expr, scope *usageScope) {
	if sym, ok := operand.(*ast.SymbolExpr); ok {
		scope.markUsed(sym.Name)
		if op == ast.OpIncr || op == ast.OpDecr {
			scope.markWritten(sym.Name)
		}
		return
	}
	u.walkExpr(operand, scope)
}
