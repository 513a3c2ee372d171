package semantic

import "nanocc/internal/ast"

// Lower rewrites every ForRangeStmt reachable from decls into an
// equivalent ForStmt. Post-condition: no ForRangeStmt nodes
// remain anywhere in decls; the tree is otherwise structurally
// unchanged. Range lowering targets the length of an array: `for (x :
// range) body` becomes `for (int <gen> = 0; <gen> < len(range); <gen>
// += 1) { x = range[<gen>]; body }`, where <gen> is a name not
// otherwise declared in the loop's scope.
func Lower(decls []*ast.FnDecl) {
	for _, fn := range decls {
		if fn.Body != nil {
			lowerCompound(fn.Body)
		}
	}
}

func lowerCompound(c *ast.Compound) {
	for i, stmt := range c.Stmts {
		c.Stmts[i] = lowerStmt(stmt)
	}
}

func lowerStmt(n ast.Node) ast.Node {
	switch s := n.(type) {
	case *ast.ForRangeStmt:
		return lowerForRange(s)
	case *ast.IfStmt:
		lowerCompound(s.Then)
		if s.Else != nil {
			s.Else = lowerStmt(s.Else)
		}
		return s
	case *ast.Compound:
		lowerCompound(s)
		return s
	case *ast.ForStmt:
		lowerCompound(s.Body)
		return s
	case *ast.WhileStmt:
		lowerCompound(s.Body)
		return s
	case *ast.DoWhileStmt:
		lowerCompound(s.Body)
		return s
	default:
		return n
	}
}

// rangeCounter yields a fresh, non-colliding loop-index name per
// lowering site. Range-for loops never nest deeply enough in practice
// for this counter to need any smarter scoping than a process-wide
// sequence.
var rangeCounter int

func lowerForRange(s *ast.ForRangeStmt) *ast.ForStmt {
	rangeCounter++
	idxName := rangeIndexName(rangeCounter)

	idxDecl := &ast.VarDecl{
		Pos:  s.Pos,
		Prim: ast.PrimInt,
		Name: idxName,
		Init: &ast.IntLit{Value: 0},
	}

	lenCall := &ast.FnCallExpr{Pos: s.Pos, Name: "len", Args: []ast.Expr{s.Range}}
	cond := &ast.BinaryExpr{
		Pos: s.Pos, Op: ast.OpLt,
		Lhs: &ast.SymbolExpr{Pos: s.Pos, Name: idxName},
		Rhs: lenCall,
	}

	post := &ast.BinaryExpr{
		Pos: s.Pos, Op: ast.OpAddAssign,
		Lhs: &ast.SymbolExpr{Pos: s.Pos, Name: idxName},
		Rhs: &ast.IntLit{Value: 1},
	}

	elemAssign := &ast.BinaryExpr{
		Pos: s.Pos, Op: ast.OpAssign,
		Lhs: &ast.SymbolExpr{Pos: s.Pos, Name: s.Var},
		Rhs: &ast.ArrayAccessExpr{
			Pos:     s.Pos,
			Target:  s.Range,
			Indices: []ast.Expr{&ast.SymbolExpr{Pos: s.Pos, Name: idxName}},
		},
	}

	lowerCompound(s.Body)
	body := &ast.Compound{Pos: s.Body.Pos, Stmts: append([]ast.Node{elemAssign}, s.Body.Stmts...)}

	return &ast.ForStmt{
		Pos:  s.Pos,
		Init: idxDecl,
		Cond: cond,
		Post: post,
		Body: body,
	}
}

func rangeIndexName(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "__range_idx_0"
	}
	buf := make([]byte, 0, 4)
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return "__range_idx_" + string(buf)
}
