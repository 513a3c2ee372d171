package astdecode

import "nanocc/internal/ast"

func decodeDecl(n node) (ast.Node, error) {
	k, err := kindOf(n)
	if err != nil {
		return nil, err
	}
	nc := canonical(n)

	switch k {
	case "fn-decl":
		return decodeFnDecl(nc)
	case "struct-decl":
		return decodeStructDecl(nc)
	case "var-decl":
		return decodeVarDecl(nc)
	case "array-decl":
		return decodeArrayDecl(nc)
	default:
		return nil, malformed("unexpected top-level declaration kind %q", k)
	}
}

func decodeFnDecl(n node) (*ast.FnDecl, error) {
	name, ok := getString(n, "Name")
	if !ok {
		return nil, malformed("fn-decl missing \"name\"")
	}
	retPrimStr, _ := getString(n, "ReturnPrim")
	retTypeName, _ := getString(n, "ReturnTypeName")
	ptrDepth, _ := getInt(n, "PointerDepth")

	var args []ast.Node
	if rawArgs, ok := getArray(n, "Args"); ok {
		for _, a := range rawArgs {
			obj, ok := a.(map[string]any)
			if !ok {
				return nil, malformed("fn-decl %q has a non-object arg entry", name)
			}
			argDecl, err := decodeDecl(node(obj))
			if err != nil {
				return nil, err
			}
			args = append(args, argDecl)
		}
	}

	var body *ast.Compound
	if bodyObj, ok := getObject(n, "Body"); ok {
		b, err := decodeCompound(bodyObj)
		if err != nil {
			return nil, err
		}
		body = b
	}

	return &ast.FnDecl{
		Pos:            decodePos(n),
		ReturnPrim:     decodePrimitive(retPrimStr),
		ReturnTypeName: retTypeName,
		PointerDepth:   ptrDepth,
		Name:           name,
		Args:           args,
		Body:           body,
	}, nil
}

func decodeStructDecl(n node) (*ast.StructDecl, error) {
	name, ok := getString(n, "Name")
	if !ok {
		return nil, malformed("struct-decl missing \"name\"")
	}
	var fields []ast.Node
	rawFields, ok := getArray(n, "Fields")
	if !ok {
		return nil, malformed("struct-decl %q missing \"fields\"", name)
	}
	for _, f := range rawFields {
		obj, ok := f.(map[string]any)
		if !ok {
			return nil, malformed("struct-decl %q has a non-object field entry", name)
		}
		field, err := decodeDecl(node(obj))
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return &ast.StructDecl{Pos: decodePos(n), Name: name, Fields: fields}, nil
}

func decodeVarDecl(n node) (*ast.VarDecl, error) {
	name, ok := getString(n, "Name")
	if !ok {
		return nil, malformed("var-decl missing \"name\"")
	}
	primStr, _ := getString(n, "Prim")
	typeName, _ := getString(n, "TypeName")
	ptrDepth, _ := getInt(n, "PointerDepth")

	var init ast.Expr
	if initObj, ok := getObject(n, "Init"); ok {
		e, err := decodeExpr(initObj)
		if err != nil {
			return nil, err
		}
		init = e
	}

	return &ast.VarDecl{
		Pos:          decodePos(n),
		Prim:         decodePrimitive(primStr),
		TypeName:     typeName,
		Name:         name,
		PointerDepth: ptrDepth,
		Init:         init,
	}, nil
}

func decodeArrayDecl(n node) (*ast.ArrayDecl, error) {
	name, ok := getString(n, "Name")
	if !ok {
		return nil, malformed("array-decl missing \"name\"")
	}
	primStr, _ := getString(n, "Prim")
	typeName, _ := getString(n, "TypeName")
	ptrDepth, _ := getInt(n, "PointerDepth")

	rawDims, ok := getArray(n, "Dimensions")
	if !ok {
		return nil, malformed("array-decl %q missing \"dimensions\"", name)
	}
	dims := make([]*ast.IntLit, 0, len(rawDims))
	for _, d := range rawDims {
		obj, ok := d.(map[string]any)
		if !ok {
			return nil, malformed("array-decl %q has a non-object dimension entry", name)
		}
		expr, err := decodeExpr(node(obj))
		if err != nil {
			return nil, err
		}
		lit, ok := expr.(*ast.IntLit)
		if !ok {
			return nil, malformed("array-decl %q dimension must be an integer literal", name)
		}
		dims = append(dims, lit)
	}

	return &ast.ArrayDecl{
		Pos:          decodePos(n),
		Prim:         decodePrimitive(primStr),
		TypeName:     typeName,
		Name:         name,
		Dimensions:   dims,
		PointerDepth: ptrDepth,
	}, nil
}
