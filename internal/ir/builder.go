package ir

import "nanocc/internal/ast"

// Builder accumulates the linked list of instructions for one
// function being generated. last is the most recently appended node,
// consulted by callers as "the value just produced".
type Builder struct {
	head *Node
	tail *Node
	next int // next instr_idx to assign
}

func NewBuilder() *Builder { return &Builder{next: 0} }

// Last is the most recently appended node, or nil before the first
// append.
func (b *Builder) Last() *Node { return b.tail }

// Head is the first node appended, the function body's entry.
func (b *Builder) Head() *Node { return b.head }

// Append adds n to the end of the list, assigning it the next dense
// instr_idx and wiring prev/next.
func (b *Builder) Append(n *Node) *Node {
	n.InstrIdx = b.next
	b.next++
	n.Prev = b.tail
	if b.tail != nil {
		b.tail.Next = n
	} else {
		b.head = n
	}
	b.tail = n
	return n
}

// InsertBefore splices n into the list immediately before target,
// renumbering every instr_idx from n onward so the dense, zero-based
// enumeration invariant holds afterward. This is the insert-before
// primitive for a list whose Builder still exists; φ insertion
// (internal/cfgssa) runs later and uses InsertNodeBefore instead.
func (b *Builder) InsertBefore(target, n *Node) {
	prev := target.Prev
	n.Prev = prev
	n.Next = target
	target.Prev = n
	if prev != nil {
		prev.Next = n
	} else {
		b.head = n
	}
	b.renumberFrom(n)
	ResyncJumpTargets(b.head)
}

// InsertNodeBefore splices n into an existing list immediately before
// target and renumbers instr_idx from n onward, without requiring a
// Builder. internal/cfgssa uses this for φ-insertion, which runs on a
// function whose Builder no longer exists (IR generation has already
// finished by the time the middle end runs).
func InsertNodeBefore(target, n *Node) *Node {
	prev := target.Prev
	n.Prev = prev
	n.Next = target
	target.Prev = n
	if prev != nil {
		prev.Next = n
	}

	start := 0
	if n.Prev != nil {
		start = n.Prev.InstrIdx + 1
	}
	for cur := n; cur != nil; cur = cur.Next {
		cur.InstrIdx = start
		start++
	}

	head := n
	for head.Prev != nil {
		head = head.Prev
	}
	ResyncJumpTargets(head)
	return n
}

// ResyncJumpTargets walks the full list from head and, for every Jump
// or Cond whose TargetPtr has been resolved (internal/cfgssa.BuildCFG
// has run), resets TargetIdx/GotoIdx to the target node's current
// InstrIdx. Any operation that renumbers a function's instr_idx
// values — insertion here, internal/opt's renumber — must call this
// afterward, since a jump anywhere in the list (not just the
// renumbered span) may target a node whose index just shifted.
// Nodes generated before BuildCFG has run have a nil TargetPtr and
// are left untouched; their TargetIdx is still the raw value the
// generator assigned.
func ResyncJumpTargets(head *Node) {
	for cur := head; cur != nil; cur = cur.Next {
		switch cur.Kind {
		case KindJump:
			if cur.Jump.TargetPtr != nil {
				cur.Jump.TargetIdx = cur.Jump.TargetPtr.InstrIdx
			}
		case KindCond:
			if cur.Cond.TargetPtr != nil {
				cur.Cond.GotoIdx = cur.Cond.TargetPtr.InstrIdx
			}
		}
	}
}

func (b *Builder) renumberFrom(n *Node) {
	start := 0
	if n.Prev != nil {
		start = n.Prev.InstrIdx + 1
	}
	for cur := n; cur != nil; cur = cur.Next {
		cur.InstrIdx = start
		start++
	}
	b.next = start
}

// The constructors below build the payload only. None of them append —
// callers decide ordering, since several emission rules build a node,
// capture its pointer for a later patch, and only append it afterward
// (the jump fixup pattern below).

func NewAllocaNode(prim ast.Primitive, depth, idx int) *Node {
	n := newNode(KindAlloca)
	n.Alloca = &Alloca{Prim: prim, PointerDepth: depth, Idx: idx}
	return n
}

func NewAllocaArrayNode(prim ast.Primitive, dims []int, idx int) *Node {
	n := newNode(KindAllocaArray)
	n.AllocaArray = &AllocaArray{Prim: prim, Dims: dims, Idx: idx}
	return n
}

func NewImmInt(v int64) *Node {
	n := newNode(KindImm)
	n.Imm = &Imm{Kind: ImmInt, Int: v}
	return n
}

func NewImmFloat(v float64) *Node {
	n := newNode(KindImm)
	n.Imm = &Imm{Kind: ImmFloat, Float: v}
	return n
}

func NewImmChar(v byte) *Node {
	n := newNode(KindImm)
	n.Imm = &Imm{Kind: ImmChar, Char: v}
	return n
}

func NewImmBool(v bool) *Node {
	n := newNode(KindImm)
	n.Imm = &Imm{Kind: ImmBool, Bool: v}
	return n
}

func NewSymNode(idx int, typ *ast.TypeInfo) *Node {
	n := newNode(KindSym)
	n.Sym = &Sym{Idx: idx, Type: typ}
	return n
}

func NewStoreNode(dest, body *Node) *Node {
	n := newNode(KindStore)
	n.Store = &Store{Dest: dest, Body: body}
	return n
}

func NewBinNode(op ast.BinOp, lhs, rhs *Node) *Node {
	n := newNode(KindBin)
	n.Bin = &Bin{Op: op, Lhs: lhs, Rhs: rhs}
	return n
}

// NewJumpNode builds an unconditional jump with an unresolved target
// (-1); the caller patches TargetIdx once the destination's instr_idx
// is known.
func NewJumpNode() *Node {
	n := newNode(KindJump)
	n.Jump = &Jump{TargetIdx: -1}
	return n
}

// NewCondNode builds a conditional jump over cond (always a KindBin
// node); GotoIdx starts unresolved the same way.
func NewCondNode(cond *Node) *Node {
	n := newNode(KindCond)
	n.Cond = &Cond{Cond: cond, GotoIdx: -1}
	return n
}

func NewRetNode(body *Node) *Node {
	n := newNode(KindRet)
	n.Ret = &Ret{IsVoid: body == nil, Body: body}
	return n
}

func NewMemberNode(target *Node, field string, typ *ast.TypeInfo) *Node {
	n := newNode(KindMember)
	n.Member = &Member{Target: target, Field: field, Type: typ}
	return n
}

func NewStringNode(v string) *Node {
	n := newNode(KindString)
	n.Str = &StringLit{Value: v}
	return n
}

func NewFnDeclNode(name string, retPrim ast.Primitive, depth int, args []*Node, body *Node) *Node {
	n := newNode(KindFnDecl)
	n.FnDecl = &FnDecl{Name: name, ReturnPrim: retPrim, PointerDepth: depth, Args: args, Body: body}
	return n
}

func NewFnCallNode(name string, args []*Node, typ *ast.TypeInfo) *Node {
	n := newNode(KindFnCall)
	n.FnCall = &FnCall{Name: name, Args: args, Type: typ}
	return n
}

func NewPhiNode(symIdx int, numPreds int) *Node {
	n := newNode(KindPhi)
	n.Phi = &Phi{SymIdx: symIdx, Operands: make([]int, numPreds)}
	return n
}
