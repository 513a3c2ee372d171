package astdecode

import "nanocc/internal/ast"

func decodeCompound(n node) (*ast.Compound, error) {
	k, err := kindOf(n)
	if err != nil {
		return nil, err
	}
	if k != "compound" {
		return nil, malformed("expected a compound node, got kind %q", k)
	}
	nc := canonical(n)

	var stmts []ast.Node
	if rawStmts, ok := getArray(nc, "Stmts"); ok {
		for _, s := range rawStmts {
			obj, ok := s.(map[string]any)
			if !ok {
				return nil, malformed("compound has a non-object statement entry")
			}
			stmt, err := decodeStmt(node(obj))
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
	}
	return &ast.Compound{Pos: decodePos(nc), Stmts: stmts}, nil
}

func decodeStmt(n node) (ast.Node, error) {
	k, err := kindOf(n)
	if err != nil {
		return nil, err
	}
	nc := canonical(n)
	pos := decodePos(nc)

	switch k {
	case "var-decl":
		return decodeVarDecl(nc)
	case "array-decl":
		return decodeArrayDecl(nc)
	case "if":
		return decodeIf(nc)
	case "for":
		return decodeFor(nc)
	case "for-range":
		return decodeForRange(nc)
	case "while":
		return decodeWhile(nc)
	case "do-while":
		return decodeDoWhile(nc)
	case "return":
		return decodeReturn(nc)
	case "break":
		return &ast.BreakStmt{Pos: pos}, nil
	case "continue":
		return &ast.ContinueStmt{Pos: pos}, nil
	case "compound":
		return decodeCompound(n)
	case "binary", "prefix-unary", "postfix-unary", "fn-call":
		// Expression statements: assignments, bare calls, and
		// pre/post increments used standalone carry no dedicated
		// wrapper kind — they decode as plain expression nodes
		// and are stored directly in a Compound's Stmts.
		return decodeExpr(n)
	default:
		return nil, malformed("unexpected statement kind %q", k)
	}
}

func decodeIf(n node) (*ast.IfStmt, error) {
	condObj, ok := getObject(n, "Cond")
	if !ok {
		return nil, malformed("if node missing \"cond\"")
	}
	cond, err := decodeExpr(condObj)
	if err != nil {
		return nil, err
	}
	thenObj, ok := getObject(n, "Then")
	if !ok {
		return nil, malformed("if node missing \"then\"")
	}
	then, err := decodeCompound(thenObj)
	if err != nil {
		return nil, err
	}

	var elseNode ast.Node
	if elseObj, ok := getObject(n, "Else"); ok {
		elseKind, err := kindOf(elseObj)
		if err != nil {
			return nil, err
		}
		if elseKind == "if" {
			elseNode, err = decodeIf(canonical(elseObj))
		} else {
			elseNode, err = decodeCompound(elseObj)
		}
		if err != nil {
			return nil, err
		}
	}

	return &ast.IfStmt{Pos: decodePos(n), Cond: cond, Then: then, Else: elseNode}, nil
}

func decodeFor(n node) (*ast.ForStmt, error) {
	var init ast.Node
	if initObj, ok := getObject(n, "Init"); ok {
		i, err := decodeStmt(initObj)
		if err != nil {
			return nil, err
		}
		init = i
	}
	var cond ast.Expr
	if condObj, ok := getObject(n, "Cond"); ok {
		c, err := decodeExpr(condObj)
		if err != nil {
			return nil, err
		}
		cond = c
	}
	var post ast.Expr
	if postObj, ok := getObject(n, "Post"); ok {
		p, err := decodeExpr(postObj)
		if err != nil {
			return nil, err
		}
		post = p
	}
	bodyObj, ok := getObject(n, "Body")
	if !ok {
		return nil, malformed("for node missing \"body\"")
	}
	body, err := decodeCompound(bodyObj)
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Pos: decodePos(n), Init: init, Cond: cond, Post: post, Body: body}, nil
}

func decodeForRange(n node) (*ast.ForRangeStmt, error) {
	varName, ok := getString(n, "Var")
	if !ok {
		return nil, malformed("for-range node missing \"var\"")
	}
	rangeObj, ok := getObject(n, "Range")
	if !ok {
		return nil, malformed("for-range node missing \"range\"")
	}
	rng, err := decodeExpr(rangeObj)
	if err != nil {
		return nil, err
	}
	bodyObj, ok := getObject(n, "Body")
	if !ok {
		return nil, malformed("for-range node missing \"body\"")
	}
	body, err := decodeCompound(bodyObj)
	if err != nil {
		return nil, err
	}
	return &ast.ForRangeStmt{Pos: decodePos(n), Var: varName, Range: rng, Body: body}, nil
}

func decodeWhile(n node) (*ast.WhileStmt, error) {
	condObj, ok := getObject(n, "Cond")
	if !ok {
		return nil, malformed("while node missing \"cond\"")
	}
	cond, err := decodeExpr(condObj)
	if err != nil {
		return nil, err
	}
	bodyObj, ok := getObject(n, "Body")
	if !ok {
		return nil, malformed("while node missing \"body\"")
	}
	body, err := decodeCompound(bodyObj)
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Pos: decodePos(n), Cond: cond, Body: body}, nil
}

func decodeDoWhile(n node) (*ast.DoWhileStmt, error) {
	bodyObj, ok := getObject(n, "Body")
	if !ok {
		return nil, malformed("do-while node missing \"body\"")
	}
	body, err := decodeCompound(bodyObj)
	if err != nil {
		return nil, err
	}
	condObj, ok := getObject(n, "Cond")
	if !ok {
		return nil, malformed("do-while node missing \"cond\"")
	}
	cond, err := decodeExpr(condObj)
	if err != nil {
		return nil, err
	}
	return &ast.DoWhileStmt{Pos: decodePos(n), Body: body, Cond: cond}, nil
}

func decodeReturn(n node) (*ast.ReturnStmt, error) {
	var value ast.Expr
	if valObj, ok := getObject(n, "Value"); ok {
		v, err := decodeExpr(valObj)
		if err != nil {
			return nil, err
		}
		value = v
	}
	return &ast.ReturnStmt{Pos: decodePos(n), Value: value}, nil
}
