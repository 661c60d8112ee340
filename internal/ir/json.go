package ir

import (
	"encoding/json"
	"fmt"
)

// This file makes Module JSON-serializable so the "re-parsed dump yields
// the same IR" testable property (spec §8, round-trip/idempotence) is
// mechanically checkable rather than aspirational: MarshalModule dumps a
// finalized module, DecodeModule reads it back. It follows the same
// kind-tagged-envelope approach as internal/ast's DecodeModule, generalized
// to also encode (the surface AST is only ever decoded, since a parser
// produces it; the IR is both built and, here, round-tripped).
//
// Class references (Param.Class, FunctionDescriptor.ClassTypedParams) are
// encoded by name only and re-resolved against the decoded module's class
// list, so a class appears in the JSON exactly once regardless of how many
// parameters are typed with it.

func categoryToString(c Category) string { return c.String() }

func categoryFromString(s string) (Category, error) {
	switch s {
	case "INT":
		return INT, nil
	case "FLOAT":
		return FLOAT, nil
	case "BOOL":
		return BOOL, nil
	case "OBJ":
		return OBJ, nil
	case "NONE":
		return NONE, nil
	default:
		return INT, fmt.Errorf("unknown category %q", s)
	}
}

// MarshalModule renders a finalized module as JSON.
func MarshalModule(m *Module) ([]byte, error) {
	return json.Marshal(encodeModule(m))
}

func encodeModule(m *Module) map[string]interface{} {
	classes := make([]interface{}, len(m.Classes))
	for i, c := range m.Classes {
		classes[i] = encodeClass(c)
	}
	fns := make([]interface{}, len(m.Functions))
	for i, f := range m.Functions {
		fns[i] = encodeFunction(f)
	}
	return map[string]interface{}{
		"name":      m.Name,
		"classes":   classes,
		"functions": fns,
	}
}

func encodeClass(c *ClassDescriptor) map[string]interface{} {
	fields := make([]interface{}, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = map[string]interface{}{"name": f.Name, "category": categoryToString(f.Category)}
	}
	methods := make([]interface{}, len(c.Methods))
	for i, f := range c.Methods {
		methods[i] = encodeFunction(f)
	}
	return map[string]interface{}{
		"name":    c.Name,
		"c_name":  c.CName,
		"fields":  fields,
		"methods": methods,
	}
}

func encodeFunction(f *FunctionDescriptor) map[string]interface{} {
	params := make([]interface{}, len(f.Params))
	for i, p := range f.Params {
		pm := map[string]interface{}{"name": p.Name, "category": categoryToString(p.Category)}
		if p.Class != nil {
			pm["class"] = p.Class.Name
		}
		if p.Default != nil {
			pm["default"] = encodeExpr(p.Default)
		}
		params[i] = pm
	}
	locals := make(map[string]interface{}, len(f.Locals))
	for name, cat := range f.Locals {
		locals[name] = categoryToString(cat)
	}
	classTypedParams := make(map[string]interface{}, len(f.ClassTypedParams))
	for name, cd := range f.ClassTypedParams {
		classTypedParams[name] = cd.Name
	}
	body := make([]interface{}, len(f.Body))
	for i, s := range f.Body {
		body[i] = encodeStmt(s)
	}
	return map[string]interface{}{
		"name":               f.Name,
		"c_name":             f.CName,
		"params":             params,
		"return_category":    categoryToString(f.ReturnCategory),
		"locals":             locals,
		"body":               body,
		"max_temps":          f.MaxTemps,
		"needs_checked_div":  f.NeedsCheckedDiv,
		"class_typed_params": classTypedParams,
	}
}

func encodeExpr(e Expr) interface{} {
	switch n := e.(type) {
	case *Const:
		return map[string]interface{}{"kind": "Const", "category": categoryToString(n.Category), "c_lit": n.CLit}
	case *VarRef:
		return map[string]interface{}{"kind": "VarRef", "category": categoryToString(n.Category), "c_name": n.CName}
	case *TempRef:
		return map[string]interface{}{"kind": "TempRef", "category": categoryToString(n.Category), "c_name": n.CName}
	case *BinOp:
		return map[string]interface{}{
			"kind": "BinOp", "category": categoryToString(n.Category), "op": int(n.Op),
			"left": encodeExpr(n.Left), "right": encodeExpr(n.Right),
		}
	case *UnaryOp:
		return map[string]interface{}{
			"kind": "UnaryOp", "category": categoryToString(n.Category), "op": int(n.Op),
			"operand": encodeExpr(n.Operand),
		}
	case *SelfAttr:
		return map[string]interface{}{
			"kind": "SelfAttr", "field_category": categoryToString(n.FieldCategory),
			"field": n.Field, "field_index": n.FieldIndex,
		}
	case *ParamAttr:
		return map[string]interface{}{
			"kind": "ParamAttr", "field_category": categoryToString(n.FieldCategory),
			"param": n.Param, "class_c_name": n.ClassCName, "field": n.Field, "field_index": n.FieldIndex,
		}
	case *GenericAttr:
		return map[string]interface{}{"kind": "GenericAttr", "receiver": encodeExpr(n.Receiver), "field": n.Field}
	case *Subscript:
		return map[string]interface{}{"kind": "Subscript", "object": encodeExpr(n.Object), "index": encodeExpr(n.Index)}
	case *Call:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			args[i] = encodeExpr(a)
		}
		argCats := make([]string, len(n.ArgCats))
		for i, c := range n.ArgCats {
			argCats[i] = categoryToString(c)
		}
		return map[string]interface{}{
			"kind": "Call", "category": categoryToString(n.Category), "callee": n.Callee,
			"args": args, "arg_cats": argCats,
		}
	case *MethodCall:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			args[i] = encodeExpr(a)
		}
		return map[string]interface{}{
			"kind": "MethodCall", "receiver": encodeExpr(n.Receiver), "method": n.Method, "args": args,
		}
	case *BuiltinCall:
		return map[string]interface{}{"kind": "BuiltinCall", "builtin_kind": int(n.Kind), "arg": encodeExpr(n.Arg)}
	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

func encodeExprOrNil(e Expr) interface{} {
	if e == nil {
		return nil
	}
	return encodeExpr(e)
}

func encodeStmt(s Stmt) interface{} {
	switch n := s.(type) {
	case *Assign:
		return map[string]interface{}{
			"kind": "Assign", "target": n.Target, "c_target": n.CTarget,
			"declared_category": categoryToString(n.DeclaredCategory), "is_declaration": n.IsDeclaration,
			"value": encodeExpr(n.Value),
		}
	case *AugAssign:
		return map[string]interface{}{
			"kind": "AugAssign", "target": n.Target, "c_target": n.CTarget,
			"declared_category": categoryToString(n.DeclaredCategory), "op": int(n.Op),
			"value": encodeExpr(n.Value),
		}
	case *Return:
		return map[string]interface{}{"kind": "Return", "value": encodeExprOrNil(n.Value)}
	case *If:
		return map[string]interface{}{
			"kind": "If", "cond": encodeExpr(n.Cond), "then": encodeStmtList(n.Then), "else": encodeStmtList(n.Else),
		}
	case *For:
		return map[string]interface{}{
			"kind": "For", "loop_var": n.LoopVar, "loop_var_cat": categoryToString(n.LoopVarCat),
			"iter": encodeExpr(n.Iter), "body": encodeStmtList(n.Body),
		}
	case *While:
		return map[string]interface{}{"kind": "While", "cond": encodeExpr(n.Cond), "body": encodeStmtList(n.Body)}
	case *Break:
		return map[string]interface{}{"kind": "Break"}
	case *Continue:
		return map[string]interface{}{"kind": "Continue"}
	case *Try:
		handlers := make([]interface{}, len(n.Handlers))
		for i, h := range n.Handlers {
			handlers[i] = map[string]interface{}{
				"type_name": h.TypeName, "bind_name": h.BindName, "body": encodeStmtList(h.Body),
			}
		}
		return map[string]interface{}{
			"kind": "Try", "body": encodeStmtList(n.Body), "handlers": handlers,
			"else": encodeStmtList(n.Else), "finally": encodeStmtList(n.Finally),
		}
	case *Raise:
		return map[string]interface{}{"kind": "Raise", "type_name": n.TypeName, "message": encodeExprOrNil(n.Message)}
	case *ExprStmt:
		return map[string]interface{}{"kind": "ExprStmt", "value": encodeExpr(n.Value)}
	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

func encodeStmtList(stmts []Stmt) []interface{} {
	out := make([]interface{}, len(stmts))
	for i, s := range stmts {
		out[i] = encodeStmt(s)
	}
	return out
}

// DecodeModule reads back a module dumped by MarshalModule.
func DecodeModule(data []byte) (*Module, error) {
	var raw struct {
		Name      string            `json:"name"`
		Classes   []json.RawMessage `json:"classes"`
		Functions []json.RawMessage `json:"functions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding ir module: %w", err)
	}

	mod := &Module{Name: raw.Name}
	classesByName := make(map[string]*ClassDescriptor, len(raw.Classes))

	// Classes are decoded in two passes: skeletons first (so a class whose
	// methods reference other classes by name can always resolve them),
	// then methods — mirroring the IR Builder's own two-pass registration
	// (spec invariant 5, append-only registry).
	var classRaws []struct {
		Name    string            `json:"name"`
		CName   string            `json:"c_name"`
		Fields  []json.RawMessage `json:"fields"`
		Methods []json.RawMessage `json:"methods"`
	}
	for _, c := range raw.Classes {
		var rc struct {
			Name    string            `json:"name"`
			CName   string            `json:"c_name"`
			Fields  []json.RawMessage `json:"fields"`
			Methods []json.RawMessage `json:"methods"`
		}
		if err := json.Unmarshal(c, &rc); err != nil {
			return nil, fmt.Errorf("decoding class: %w", err)
		}
		classRaws = append(classRaws, rc)
		cd := &ClassDescriptor{Name: rc.Name, CName: rc.CName}
		for _, f := range rc.Fields {
			var rf struct {
				Name     string `json:"name"`
				Category string `json:"category"`
			}
			if err := json.Unmarshal(f, &rf); err != nil {
				return nil, fmt.Errorf("decoding field: %w", err)
			}
			cat, err := categoryFromString(rf.Category)
			if err != nil {
				return nil, err
			}
			cd.Fields = append(cd.Fields, FieldDescriptor{Name: rf.Name, Category: cat})
		}
		mod.Classes = append(mod.Classes, cd)
		classesByName[cd.Name] = cd
	}
	for i, rc := range classRaws {
		cd := mod.Classes[i]
		for _, m := range rc.Methods {
			fd, err := decodeFunction(m, classesByName)
			if err != nil {
				return nil, err
			}
			cd.Methods = append(cd.Methods, fd)
		}
	}

	for _, f := range raw.Functions {
		fd, err := decodeFunction(f, classesByName)
		if err != nil {
			return nil, err
		}
		mod.Functions = append(mod.Functions, fd)
	}
	return mod, nil
}

func decodeFunction(data json.RawMessage, classesByName map[string]*ClassDescriptor) (*FunctionDescriptor, error) {
	var raw struct {
		Name             string            `json:"name"`
		CName            string            `json:"c_name"`
		Params           []json.RawMessage `json:"params"`
		ReturnCategory   string            `json:"return_category"`
		Locals           map[string]string `json:"locals"`
		Body             []json.RawMessage `json:"body"`
		MaxTemps         int               `json:"max_temps"`
		NeedsCheckedDiv  bool              `json:"needs_checked_div"`
		ClassTypedParams map[string]string `json:"class_typed_params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding function: %w", err)
	}
	retCat, err := categoryFromString(raw.ReturnCategory)
	if err != nil {
		return nil, err
	}

	fd := &FunctionDescriptor{
		Name: raw.Name, CName: raw.CName, ReturnCategory: retCat,
		MaxTemps: raw.MaxTemps, NeedsCheckedDiv: raw.NeedsCheckedDiv,
		Locals:           make(map[string]Category, len(raw.Locals)),
		ClassTypedParams: make(map[string]*ClassDescriptor, len(raw.ClassTypedParams)),
	}
	for name, catStr := range raw.Locals {
		cat, err := categoryFromString(catStr)
		if err != nil {
			return nil, err
		}
		fd.Locals[name] = cat
	}
	for name, className := range raw.ClassTypedParams {
		cd, ok := classesByName[className]
		if !ok {
			return nil, fmt.Errorf("decoding function %s: class-typed param %q names unknown class %q", raw.Name, name, className)
		}
		fd.ClassTypedParams[name] = cd
	}

	for _, p := range raw.Params {
		var rp struct {
			Name     string          `json:"name"`
			Category string          `json:"category"`
			Class    string          `json:"class"`
			Default  json.RawMessage `json:"default"`
		}
		if err := json.Unmarshal(p, &rp); err != nil {
			return nil, fmt.Errorf("decoding param: %w", err)
		}
		cat, err := categoryFromString(rp.Category)
		if err != nil {
			return nil, err
		}
		param := Param{Name: rp.Name, Category: cat}
		if rp.Class != "" {
			cd, ok := classesByName[rp.Class]
			if !ok {
				return nil, fmt.Errorf("decoding param %s: unknown class %q", rp.Name, rp.Class)
			}
			param.Class = cd
		}
		if len(rp.Default) > 0 {
			def, err := decodeExpr(rp.Default)
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		fd.Params = append(fd.Params, param)
	}

	body, err := decodeStmtList(raw.Body)
	if err != nil {
		return nil, err
	}
	fd.Body = body
	return fd, nil
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var k struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decoding expr: %w", err)
	}
	switch k.Kind {
	case "Const":
		var n struct {
			Category string `json:"category"`
			CLit     string `json:"c_lit"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.Category)
		if err != nil {
			return nil, err
		}
		return &Const{Category: cat, CLit: n.CLit}, nil
	case "VarRef":
		var n struct {
			Category string `json:"category"`
			CName    string `json:"c_name"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.Category)
		if err != nil {
			return nil, err
		}
		return &VarRef{Category: cat, CName: n.CName}, nil
	case "TempRef":
		var n struct {
			Category string `json:"category"`
			CName    string `json:"c_name"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.Category)
		if err != nil {
			return nil, err
		}
		return &TempRef{Category: cat, CName: n.CName}, nil
	case "BinOp":
		var n struct {
			Category string          `json:"category"`
			Op       int             `json:"op"`
			Left     json.RawMessage `json:"left"`
			Right    json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.Category)
		if err != nil {
			return nil, err
		}
		left, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &BinOp{Category: cat, Op: BinOpKind(n.Op), Left: left, Right: right}, nil
	case "UnaryOp":
		var n struct {
			Category string          `json:"category"`
			Op       int             `json:"op"`
			Operand  json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.Category)
		if err != nil {
			return nil, err
		}
		operand, err := decodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Category: cat, Op: UnaryOpKind(n.Op), Operand: operand}, nil
	case "SelfAttr":
		var n struct {
			FieldCategory string `json:"field_category"`
			Field         string `json:"field"`
			FieldIndex    int    `json:"field_index"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.FieldCategory)
		if err != nil {
			return nil, err
		}
		return &SelfAttr{FieldCategory: cat, Field: n.Field, FieldIndex: n.FieldIndex}, nil
	case "ParamAttr":
		var n struct {
			FieldCategory string `json:"field_category"`
			Param         string `json:"param"`
			ClassCName    string `json:"class_c_name"`
			Field         string `json:"field"`
			FieldIndex    int    `json:"field_index"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.FieldCategory)
		if err != nil {
			return nil, err
		}
		return &ParamAttr{FieldCategory: cat, Param: n.Param, ClassCName: n.ClassCName, Field: n.Field, FieldIndex: n.FieldIndex}, nil
	case "GenericAttr":
		var n struct {
			Receiver json.RawMessage `json:"receiver"`
			Field    string          `json:"field"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		recv, err := decodeExpr(n.Receiver)
		if err != nil {
			return nil, err
		}
		return &GenericAttr{Receiver: recv, Field: n.Field}, nil
	case "Subscript":
		var n struct {
			Object json.RawMessage `json:"object"`
			Index  json.RawMessage `json:"index"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		obj, err := decodeExpr(n.Object)
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpr(n.Index)
		if err != nil {
			return nil, err
		}
		return &Subscript{Object: obj, Index: idx}, nil
	case "Call":
		var n struct {
			Category string            `json:"category"`
			Callee   string            `json:"callee"`
			Args     []json.RawMessage `json:"args"`
			ArgCats  []string          `json:"arg_cats"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.Category)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprList(n.Args)
		if err != nil {
			return nil, err
		}
		argCats := make([]Category, len(n.ArgCats))
		for i, c := range n.ArgCats {
			ac, err := categoryFromString(c)
			if err != nil {
				return nil, err
			}
			argCats[i] = ac
		}
		return &Call{Category: cat, Callee: n.Callee, Args: args, ArgCats: argCats}, nil
	case "MethodCall":
		var n struct {
			Receiver json.RawMessage   `json:"receiver"`
			Method   string            `json:"method"`
			Args     []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		recv, err := decodeExpr(n.Receiver)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprList(n.Args)
		if err != nil {
			return nil, err
		}
		return &MethodCall{Receiver: recv, Method: n.Method, Args: args}, nil
	case "BuiltinCall":
		var n struct {
			BuiltinKind int             `json:"builtin_kind"`
			Arg         json.RawMessage `json:"arg"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		arg, err := decodeExpr(n.Arg)
		if err != nil {
			return nil, err
		}
		return &BuiltinCall{Kind: BuiltinKind(n.BuiltinKind), Arg: arg}, nil
	default:
		return nil, fmt.Errorf("decoding expr: unknown kind %q", k.Kind)
	}
}

func decodeExprList(raws []json.RawMessage) ([]Expr, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]Expr, 0, len(raws))
	for _, r := range raws {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeStmt(data json.RawMessage) (Stmt, error) {
	var k struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decoding stmt: %w", err)
	}
	switch k.Kind {
	case "Assign":
		var n struct {
			Target           string          `json:"target"`
			CTarget          string          `json:"c_target"`
			DeclaredCategory string          `json:"declared_category"`
			IsDeclaration    bool            `json:"is_declaration"`
			Value            json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.DeclaredCategory)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{Target: n.Target, CTarget: n.CTarget, DeclaredCategory: cat, IsDeclaration: n.IsDeclaration, Value: value}, nil
	case "AugAssign":
		var n struct {
			Target           string          `json:"target"`
			CTarget          string          `json:"c_target"`
			DeclaredCategory string          `json:"declared_category"`
			Op               int             `json:"op"`
			Value            json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.DeclaredCategory)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &AugAssign{Target: n.Target, CTarget: n.CTarget, DeclaredCategory: cat, Op: BinOpKind(n.Op), Value: value}, nil
	case "Return":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Return{Value: value}, nil
	case "If":
		var n struct {
			Cond json.RawMessage   `json:"cond"`
			Then []json.RawMessage `json:"then"`
			Else []json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmtList(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeStmtList(n.Else)
		if err != nil {
			return nil, err
		}
		return &If{Cond: cond, Then: then, Else: els}, nil
	case "For":
		var n struct {
			LoopVar    string            `json:"loop_var"`
			LoopVarCat string            `json:"loop_var_cat"`
			Iter       json.RawMessage   `json:"iter"`
			Body       []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cat, err := categoryFromString(n.LoopVarCat)
		if err != nil {
			return nil, err
		}
		iter, err := decodeExpr(n.Iter)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return &For{LoopVar: n.LoopVar, LoopVarCat: cat, Iter: iter, Body: body}, nil
	case "While":
		var n struct {
			Cond json.RawMessage   `json:"cond"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body}, nil
	case "Break":
		return &Break{}, nil
	case "Continue":
		return &Continue{}, nil
	case "Try":
		var n struct {
			Body     []json.RawMessage `json:"body"`
			Handlers []struct {
				TypeName string            `json:"type_name"`
				BindName string            `json:"bind_name"`
				Body     []json.RawMessage `json:"body"`
			} `json:"handlers"`
			Else    []json.RawMessage `json:"else"`
			Finally []json.RawMessage `json:"finally"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		body, err := decodeStmtList(n.Body)
		if err != nil {
			return nil, err
		}
		t := &Try{Body: body}
		for _, h := range n.Handlers {
			hbody, err := decodeStmtList(h.Body)
			if err != nil {
				return nil, err
			}
			t.Handlers = append(t.Handlers, ExceptHandler{TypeName: h.TypeName, BindName: h.BindName, Body: hbody})
		}
		t.Else, err = decodeStmtList(n.Else)
		if err != nil {
			return nil, err
		}
		t.Finally, err = decodeStmtList(n.Finally)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "Raise":
		var n struct {
			TypeName string          `json:"type_name"`
			Message  json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		msg, err := decodeExpr(n.Message)
		if err != nil {
			return nil, err
		}
		return &Raise{TypeName: n.TypeName, Message: msg}, nil
	case "ExprStmt":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Value: value}, nil
	default:
		return nil, fmt.Errorf("decoding stmt: unknown kind %q", k.Kind)
	}
}

func decodeStmtList(raws []json.RawMessage) ([]Stmt, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]Stmt, 0, len(raws))
	for _, r := range raws {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
