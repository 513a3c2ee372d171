package ir

import "nanocc/internal/ast"

// AttachTypes is the type pass over already-generated IR. Every
// Sym/Member/FnCall payload already carries its resolved type at
// emission time, since
// IR generation only ever runs on an AST that semantic.Analyze has
// already fully annotated — there is no type information left to
// recover after the fact. AttachTypes instead defends that invariant:
// it walks every function and fills any nil Type field with
// PrimUnknown rather than leaving a nil pointer for a later pass to
// dereference, and is the single place a future code generator can
// call to assert the invariant holds before trusting it.
func AttachTypes(u *Unit) {
	for _, fn := range u.FnDecls {
		for n := fn.FnDecl.Body; n != nil; n = n.Next {
			fillNodeType(n)
		}
	}
}

func fillNodeType(n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindSym:
		if n.Sym.Type == nil {
			n.Sym.Type = &ast.TypeInfo{Prim: ast.PrimUnknown}
		}
	case KindMember:
		if n.Member.Type == nil {
			n.Member.Type = &ast.TypeInfo{Prim: ast.PrimUnknown}
		}
		fillNodeType(n.Member.Target)
	case KindFnCall:
		if n.FnCall.Type == nil {
			n.FnCall.Type = &ast.TypeInfo{Prim: ast.PrimUnknown}
		}
		for _, a := range n.FnCall.Args {
			fillNodeType(a)
		}
	case KindStore:
		fillNodeType(n.Store.Dest)
		fillNodeType(n.Store.Body)
	case KindBin:
		fillNodeType(n.Bin.Lhs)
		fillNodeType(n.Bin.Rhs)
	case KindCond:
		fillNodeType(n.Cond.Cond)
	case KindRet:
		fillNodeType(n.Ret.Body)
	}
}
