package ast

// VarDecl declares a scalar (possibly pointer) variable, with an optional
// initializer. TypeName is set instead of Prim == PrimStruct's implicit
// zero value when the declared type names a struct.
type VarDecl struct {
	Pos          Position
	Prim         Primitive
	TypeName     string // set when Prim == PrimStruct
	Name         string
	PointerDepth int
	Init         Expr // nil if uninitialized
}

func (*VarDecl) Kind() Kind        { return KindVarDecl }
func (d *VarDecl) NodePos() Position { return d.Pos }

// ArrayDecl declares a fixed-size array. Dimensions holds one IntLit per
// declared dimension (invariant: dimension lists contain only
// integer-literal nodes).
type ArrayDecl struct {
	Pos          Position
	Prim         Primitive
	TypeName     string
	Name         string
	Dimensions   []*IntLit
	PointerDepth int
}

func (*ArrayDecl) Kind() Kind        { return KindArrayDecl }
func (d *ArrayDecl) NodePos() Position { return d.Pos }

// StructDecl declares an aggregate type made of named, typed fields. Each
// field is a VarDecl or ArrayDecl (without an initializer).
type StructDecl struct {
	Pos    Position
	Name   string
	Fields []Node
}

func (*StructDecl) Kind() Kind        { return KindStructDecl }
func (d *StructDecl) NodePos() Position { return d.Pos }

// FnDecl declares a function. A nil Body marks a prototype: it
// contributes only a signature to the symbol table and is never lowered
// to IR.
type FnDecl struct {
	Pos            Position
	ReturnPrim     Primitive
	ReturnTypeName string // set when ReturnPrim == PrimStruct
	PointerDepth   int
	Name           string
	Args           []Node // *VarDecl or *ArrayDecl
	Body           *Compound
}

func (*FnDecl) Kind() Kind        { return KindFnDecl }
func (d *FnDecl) NodePos() Position { return d.Pos }

// IsPrototype reports whether this declaration has no body.
func (d *FnDecl) IsPrototype() bool { return d.Body == nil }
