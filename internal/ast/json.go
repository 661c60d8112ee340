package ast

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeModule reads the JSON-serialized surface AST the CLI driver accepts
// in place of a text parser (spec §1: the surface parser is an external
// collaborator this compiler does not implement). Each node carries a
// "kind" discriminator naming its concrete Go type, since Expr/Stmt are
// interfaces and encoding/json cannot infer a concrete type on its own.
func DecodeModule(data []byte) (*Module, error) {
	var raw struct {
		Name      string            `json:"name"`
		Classes   []json.RawMessage `json:"classes"`
		Functions []json.RawMessage `json:"functions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding module: %w", err)
	}
	mod := &Module{Name: raw.Name}
	for _, c := range raw.Classes {
		cd, err := decodeClassDef(c)
		if err != nil {
			return nil, err
		}
		mod.Classes = append(mod.Classes, cd)
	}
	for _, f := range raw.Functions {
		fd, err := decodeFunctionDef(f)
		if err != nil {
			return nil, err
		}
		mod.Functions = append(mod.Functions, fd)
	}
	return mod, nil
}

func decodeClassDef(data json.RawMessage) (*ClassDef, error) {
	var raw struct {
		Name     string            `json:"name"`
		IsRecord bool              `json:"is_record"`
		Fields   []FieldDecl       `json:"fields"`
		Methods  []json.RawMessage `json:"methods"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding class: %w", err)
	}
	cd := &ClassDef{Name: raw.Name, IsRecord: raw.IsRecord, Fields: raw.Fields}
	for _, m := range raw.Methods {
		fd, err := decodeFunctionDef(m)
		if err != nil {
			return nil, err
		}
		cd.Methods = append(cd.Methods, fd)
	}
	return cd, nil
}

func decodeFunctionDef(data json.RawMessage) (*FunctionDef, error) {
	var raw struct {
		Name       string            `json:"name"`
		Params     []rawParam        `json:"params"`
		ReturnAnno string            `json:"return_anno"`
		Body       []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding function: %w", err)
	}
	fd := &FunctionDef{Name: raw.Name, ReturnAnno: raw.ReturnAnno}
	for _, p := range raw.Params {
		param := Param{Name: p.Name, Annotation: p.Annotation}
		if len(p.Default) > 0 {
			def, err := decodeExpr(p.Default)
			if err != nil {
				return nil, err
			}
			param.Default = def
		}
		fd.Params = append(fd.Params, param)
	}
	for _, s := range raw.Body {
		st, err := decodeStmt(s)
		if err != nil {
			return nil, err
		}
		fd.Body = append(fd.Body, st)
	}
	return fd, nil
}

type rawParam struct {
	Name       string          `json:"name"`
	Annotation string          `json:"annotation"`
	Default    json.RawMessage `json:"default"`
}

type kindEnvelope struct {
	Kind string `json:"kind"`
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var k kindEnvelope
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decoding expr: %w", err)
	}
	switch k.Kind {
	case "Literal":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		var v interface{}
		if len(n.Value) > 0 {
			if err := json.Unmarshal(n.Value, &v); err != nil {
				return nil, err
			}
		}
		return &Literal{Value: normalizeLiteralValue(v, n.Value)}, nil
	case "Name":
		var n struct {
			Ident string `json:"ident"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return &Name{Ident: n.Ident}, nil
	case "BinOp":
		var n struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
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
		return &BinOp{Op: n.Op, Left: left, Right: right}, nil
	case "BoolOp":
		var n struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
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
		return &BoolOp{Op: n.Op, Left: left, Right: right}, nil
	case "UnaryOp":
		var n struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		operand, err := decodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: n.Op, Operand: operand}, nil
	case "Attribute":
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
		return &Attribute{Receiver: recv, Field: n.Field}, nil
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
			Callee json.RawMessage   `json:"callee"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		callee, err := decodeExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		call := &Call{Callee: callee}
		for _, a := range n.Args {
			arg, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	default:
		return nil, fmt.Errorf("decoding expr: unknown kind %q", k.Kind)
	}
}

// normalizeLiteralValue maps encoding/json's universal float64 decode for
// JSON numbers back onto int64 when the source had no fractional part and
// wasn't written with an exponent/decimal point, so `42` round-trips as an
// INT literal and `42.0` stays a FLOAT one.
func normalizeLiteralValue(v interface{}, raw json.RawMessage) interface{} {
	if f, ok := v.(float64); ok && !strings.ContainsAny(string(raw), ".eE") {
		if f == float64(int64(f)) {
			return int64(f)
		}
	}
	return v
}

func decodeStmt(data json.RawMessage) (Stmt, error) {
	var k kindEnvelope
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("decoding stmt: %w", err)
	}
	switch k.Kind {
	case "Assign":
		var n struct {
			Target     string          `json:"target"`
			Annotation string          `json:"annotation"`
			Value      json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{Target: n.Target, Annotation: n.Annotation, Value: value}, nil
	case "AugAssign":
		var n struct {
			Target string          `json:"target"`
			Op     string          `json:"op"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &AugAssign{Target: n.Target, Op: n.Op, Value: value}, nil
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
			LoopVar string            `json:"loop_var"`
			Iter    json.RawMessage   `json:"iter"`
			Body    []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &n); err != nil {
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
		return &For{LoopVar: n.LoopVar, Iter: iter, Body: body}, nil
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
