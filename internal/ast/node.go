// Package ast defines the tagged-variant AST node model that is the input
// contract to the compiler core: semantic analysis, lowering, and IR
// generation all walk this tree. Nodes are produced externally (by a
// lexer/parser/preprocessor outside this module's scope) and must satisfy
// the invariants documented on each node kind, or the core raises
// MALFORMED-AST.
package ast

// Kind tags the variant of an AST node. Using an explicit tag plus a Go
// type switch, rather than one interface type per kind with dynamic
// dispatch for every operation, keeps each pass's handling of every
// kind in one switch. Go does not check these switches for
// exhaustiveness: a kind a switch has no case for reaches its default
// branch at run time.
type Kind int

const (
	KindCharLit Kind = iota
	KindIntLit
	KindFloatLit
	KindBoolLit
	KindStringLit
	KindSymbol
	KindVarDecl
	KindArrayDecl
	KindStructDecl
	KindMember
	KindArrayAccess
	KindBinary
	KindPrefixUnary
	KindPostfixUnary
	KindIf
	KindFor
	KindForRange
	KindWhile
	KindDoWhile
	KindReturn
	KindBreak
	KindContinue
	KindCompound
	KindFnDecl
	KindFnCall
	KindImplicitCast
)

func (k Kind) String() string {
	names := [...]string{
		"char", "int", "float", "bool", "string", "symbol",
		"var-decl", "array-decl", "struct-decl", "member", "array-access",
		"binary", "prefix-unary", "postfix-unary",
		"if", "for", "for-range", "while", "do-while",
		"return", "break", "continue", "compound",
		"fn-decl", "fn-call", "implicit-cast",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "unknown"
	}
	return names[k]
}

// Node is the common interface satisfied by every AST node. Ownership is
// tree-exclusive: a parent owns its children, and the single root is
// released (by the garbage collector here, in place of the source's
// jump-buffer-rooted free) at the end of compilation.
type Node interface {
	Kind() Kind
	NodePos() Position
}

// Expr is a Node that produces a value, so it carries the type annotation
// filled in by the type checker. ResolvedType
// is nil until the checker visits the node.
type Expr interface {
	Node
	ResolvedType() *TypeInfo
	SetResolvedType(*TypeInfo)
}

// exprBase is embedded by every expression-producing node so the type
// annotation bookkeeping lives in one place instead of being repeated on
// every literal, binary, unary, call, etc.
type exprBase struct {
	Pos  Position
	Type *TypeInfo
}

func (e *exprBase) NodePos() Position          { return e.Pos }
func (e *exprBase) ResolvedType() *TypeInfo     { return e.Type }
func (e *exprBase) SetResolvedType(t *TypeInfo) { e.Type = t }
