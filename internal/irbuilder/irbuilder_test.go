package irbuilder

import (
	"testing"

	"mypycc/internal/ast"
	"mypycc/internal/ir"
)

// def m(*nums) -> int: r: int = nums[0]
//   for n in nums: if n > r: r = n
//   return r
//
// nums[0] is a Subscript (always OBJ); assigning it into the
// explicitly-annotated `int` local r must carry the INT-slot-from-OBJ
// coercion, and a later plain rebinding of r from the loop variable (also
// OBJ) must coerce again using r's now-fixed INT category.
func TestBuildModule_RebindingCoercion(t *testing.T) {
	fn := &ast.FunctionDef{
		Name:       "m",
		Params:     []ast.Param{{Name: "nums"}},
		ReturnAnno: "int",
		Body: []ast.Stmt{
			&ast.Assign{Target: "r", Annotation: "int",
				Value: &ast.Subscript{Object: &ast.Name{Ident: "nums"}, Index: &ast.Literal{Value: int64(0)}}},
			&ast.For{LoopVar: "n", Iter: &ast.Name{Ident: "nums"}, Body: []ast.Stmt{
				&ast.If{
					Cond: &ast.BinOp{Op: ">", Left: &ast.Name{Ident: "n"}, Right: &ast.Name{Ident: "r"}},
					Then: []ast.Stmt{&ast.Assign{Target: "r", Value: &ast.Name{Ident: "n"}}},
				},
			}},
			&ast.Return{Value: &ast.Name{Ident: "r"}},
		},
	}

	mod, err := New("m.py").BuildModule(&ast.Module{Name: "m", Functions: []*ast.FunctionDef{fn}})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	fd := mod.Functions[0]

	decl, ok := fd.Body[0].(*ir.Assign)
	if !ok || !decl.IsDeclaration || decl.DeclaredCategory != ir.INT {
		t.Fatalf("first assignment should declare r as INT, got %#v", fd.Body[0])
	}
	if decl.Value.Cat() != ir.OBJ {
		t.Fatalf("nums[0] must carry OBJ (Subscript is always boxed), got %s", decl.Value.Cat())
	}

	forStmt, ok := fd.Body[1].(*ir.For)
	if !ok {
		t.Fatalf("expected For, got %#v", fd.Body[1])
	}
	ifStmt, ok := forStmt.Body[0].(*ir.If)
	if !ok {
		t.Fatalf("expected If, got %#v", forStmt.Body[0])
	}
	rebind, ok := ifStmt.Then[0].(*ir.Assign)
	if !ok || rebind.IsDeclaration || rebind.DeclaredCategory != ir.INT {
		t.Fatalf("rebinding of r must stay INT and not re-declare, got %#v", ifStmt.Then[0])
	}
}

// @record class Point: x: int; y: int
// def d2(p1: Point, p2: Point) -> int: return (p2.x-p1.x)**2 + (p2.y-p1.y)**2
//
// Both x/y are ParamAttr, never GenericAttr, and resolve to INT directly —
// no box/unbox traffic until the final return.
func TestBuildModule_ParamAttrOnClassTypedParams(t *testing.T) {
	point := &ast.ClassDef{
		Name: "Point", IsRecord: true,
		Fields: []ast.FieldDecl{{Name: "x", Annotation: "int"}, {Name: "y", Annotation: "int"}},
	}
	fn := &ast.FunctionDef{
		Name: "d2",
		Params: []ast.Param{
			{Name: "p1", Annotation: "Point"},
			{Name: "p2", Annotation: "Point"},
		},
		ReturnAnno: "int",
		Body: []ast.Stmt{
			&ast.Return{Value: &ast.BinOp{Op: "+",
				Left: &ast.BinOp{Op: "*",
					Left:  &ast.BinOp{Op: "-", Left: &ast.Attribute{Receiver: &ast.Name{Ident: "p2"}, Field: "x"}, Right: &ast.Attribute{Receiver: &ast.Name{Ident: "p1"}, Field: "x"}},
					Right: &ast.BinOp{Op: "-", Left: &ast.Attribute{Receiver: &ast.Name{Ident: "p2"}, Field: "x"}, Right: &ast.Attribute{Receiver: &ast.Name{Ident: "p1"}, Field: "x"}},
				},
				Right: &ast.BinOp{Op: "*",
					Left:  &ast.BinOp{Op: "-", Left: &ast.Attribute{Receiver: &ast.Name{Ident: "p2"}, Field: "y"}, Right: &ast.Attribute{Receiver: &ast.Name{Ident: "p1"}, Field: "y"}},
					Right: &ast.BinOp{Op: "-", Left: &ast.Attribute{Receiver: &ast.Name{Ident: "p2"}, Field: "y"}, Right: &ast.Attribute{Receiver: &ast.Name{Ident: "p1"}, Field: "y"}},
				},
			}},
		},
	}

	mod, err := New("geom.py").BuildModule(&ast.Module{
		Name: "geom", Classes: []*ast.ClassDef{point}, Functions: []*ast.FunctionDef{fn},
	})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	retStmt := mod.Functions[0].Body[0].(*ir.Return)
	if retStmt.Value.Cat() != ir.INT {
		t.Fatalf("d2's returned expression must be INT throughout, got %s", retStmt.Value.Cat())
	}

	var countParamAttr func(e ir.Expr) int
	countParamAttr = func(e ir.Expr) int {
		switch n := e.(type) {
		case *ir.ParamAttr:
			return 1
		case *ir.BinOp:
			return countParamAttr(n.Left) + countParamAttr(n.Right)
		default:
			return 0
		}
	}
	if got := countParamAttr(retStmt.Value); got != 8 {
		t.Fatalf("expected 8 ParamAttr reads (x,y on each side twice), got %d", got)
	}
}

// def u(s: str) -> str: return s.upper()
func TestBuildModule_MethodCallOnBoxedReceiver(t *testing.T) {
	fn := &ast.FunctionDef{
		Name:       "u",
		Params:     []ast.Param{{Name: "s", Annotation: "str"}},
		ReturnAnno: "str",
		Body: []ast.Stmt{
			&ast.Return{Value: &ast.Call{Callee: &ast.Attribute{Receiver: &ast.Name{Ident: "s"}, Field: "upper"}}},
		},
	}
	mod, err := New("u.py").BuildModule(&ast.Module{Name: "u", Functions: []*ast.FunctionDef{fn}})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	ret := mod.Functions[0].Body[0].(*ir.Return)
	mc, ok := ret.Value.(*ir.MethodCall)
	if !ok {
		t.Fatalf("expected MethodCall, got %#v", ret.Value)
	}
	if mc.Method != "upper" {
		t.Fatalf("expected method upper, got %s", mc.Method)
	}
	if mod.Functions[0].MaxTemps != 3 {
		t.Fatalf("MethodCall must reserve 2 temps (load_attr + call_n_kw) plus 1 for the materialized return value, got %d", mod.Functions[0].MaxTemps)
	}
}

// A method call on a known-scalar receiver is rejected.
func TestBuildModule_MethodCallOnScalarReceiverIsAnError(t *testing.T) {
	fn := &ast.FunctionDef{
		Name:       "bad",
		Params:     []ast.Param{{Name: "n", Annotation: "int"}},
		ReturnAnno: "int",
		Body: []ast.Stmt{
			&ast.ExprStmt{Value: &ast.Call{Callee: &ast.Attribute{Receiver: &ast.Name{Ident: "n"}, Field: "bit_length"}}},
			&ast.Return{Value: &ast.Literal{Value: int64(0)}},
		},
	}
	_, err := New("bad.py").BuildModule(&ast.Module{Name: "bad", Functions: []*ast.FunctionDef{fn}})
	if err == nil {
		t.Fatal("expected a compile error for a method call on a scalar receiver")
	}
}

// def safe(a: int, b: int) -> int: try: return a // b except ZeroDivisionError: return 0
func TestBuildModule_FloorDivInsideTryNeedsCheckedHelper(t *testing.T) {
	fn := &ast.FunctionDef{
		Name:       "safe",
		Params:     []ast.Param{{Name: "a", Annotation: "int"}, {Name: "b", Annotation: "int"}},
		ReturnAnno: "int",
		Body: []ast.Stmt{
			&ast.Try{
				Body: []ast.Stmt{&ast.Return{Value: &ast.BinOp{Op: "//", Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}}}},
				Handlers: []ast.ExceptHandler{
					{TypeName: "ZeroDivisionError", Body: []ast.Stmt{&ast.Return{Value: &ast.Literal{Value: int64(0)}}}},
				},
			},
		},
	}
	mod, err := New("safe.py").BuildModule(&ast.Module{Name: "safe", Functions: []*ast.FunctionDef{fn}})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if !mod.Functions[0].NeedsCheckedDiv {
		t.Fatal("a // inside a try body must set NeedsCheckedDiv")
	}
}

// def cleanup(v): r=0; try: r=v*2 finally: r=r+1; return r
// No floor-div/mod anywhere, so NeedsCheckedDiv stays false even though a
// try/finally is present.
func TestBuildModule_TryFinallyWithoutDivisionNeedsNoHelper(t *testing.T) {
	fn := &ast.FunctionDef{
		Name:       "cleanup",
		Params:     []ast.Param{{Name: "v"}},
		ReturnAnno: "",
		Body: []ast.Stmt{
			&ast.Assign{Target: "r", Value: &ast.Literal{Value: int64(0)}},
			&ast.Try{
				Body:    []ast.Stmt{&ast.Assign{Target: "r", Value: &ast.BinOp{Op: "*", Left: &ast.Name{Ident: "v"}, Right: &ast.Literal{Value: int64(2)}}}},
				Finally: []ast.Stmt{&ast.AugAssign{Target: "r", Op: "+", Value: &ast.Literal{Value: int64(1)}}},
			},
			&ast.Return{Value: &ast.Name{Ident: "r"}},
		},
	}
	mod, err := New("cleanup.py").BuildModule(&ast.Module{Name: "cleanup", Functions: []*ast.FunctionDef{fn}})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if mod.Functions[0].NeedsCheckedDiv {
		t.Fatal("cleanup has no floor-div/mod; NeedsCheckedDiv must stay false")
	}
	tryStmt, ok := mod.Functions[0].Body[1].(*ir.Try)
	if !ok || len(tryStmt.Finally) != 1 {
		t.Fatalf("expected a single-statement finally body, got %#v", mod.Functions[0].Body[1])
	}
}

// def nested(a: int, b: int, c: int) -> int:
//     try:
//         try:
//             return a // b
//         except ZeroDivisionError:
//             return b // c
//     except ZeroDivisionError:
//         return -1
//
// Two nested try statements each guard a floor-div, so each contributes its
// own checkpoint; NeedsCheckedDiv is set once for the whole function (the
// flag is function-wide, not per-checkpoint).
func TestBuildModule_NestedTryDoubleCheckpoint(t *testing.T) {
	inner := &ast.Try{
		Body: []ast.Stmt{&ast.Return{Value: &ast.BinOp{Op: "//", Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}}}},
		Handlers: []ast.ExceptHandler{
			{TypeName: "ZeroDivisionError", Body: []ast.Stmt{
				&ast.Return{Value: &ast.BinOp{Op: "//", Left: &ast.Name{Ident: "b"}, Right: &ast.Name{Ident: "c"}}},
			}},
		},
	}
	outer := &ast.Try{
		Body: []ast.Stmt{inner},
		Handlers: []ast.ExceptHandler{
			{TypeName: "ZeroDivisionError", Body: []ast.Stmt{
				&ast.Return{Value: &ast.UnaryOp{Op: "-", Operand: &ast.Literal{Value: int64(1)}}},
			}},
		},
	}
	fn := &ast.FunctionDef{
		Name:       "nested",
		Params:     []ast.Param{{Name: "a", Annotation: "int"}, {Name: "b", Annotation: "int"}, {Name: "c", Annotation: "int"}},
		ReturnAnno: "int",
		Body:       []ast.Stmt{outer},
	}
	mod, err := New("nested.py").BuildModule(&ast.Module{Name: "nested", Functions: []*ast.FunctionDef{fn}})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	fd := mod.Functions[0]
	if !fd.NeedsCheckedDiv {
		t.Fatal("both floor-divs are inside try bodies; NeedsCheckedDiv must be set")
	}

	outerIR, ok := fd.Body[0].(*ir.Try)
	if !ok || len(outerIR.Handlers) != 1 {
		t.Fatalf("expected a single-handler outer Try, got %#v", fd.Body[0])
	}
	innerIR, ok := outerIR.Body[0].(*ir.Try)
	if !ok || len(innerIR.Handlers) != 1 {
		t.Fatalf("expected a nested single-handler Try inside the outer body, got %#v", outerIR.Body[0])
	}
	if innerIR == outerIR {
		t.Fatal("inner and outer try statements must be distinct nodes (distinct checkpoints)")
	}
}

// A reference to an undeclared name is a compile error, not a panic.
func TestBuildModule_UnknownNameIsAnError(t *testing.T) {
	fn := &ast.FunctionDef{
		Name: "oops",
		Body: []ast.Stmt{&ast.ExprStmt{Value: &ast.Name{Ident: "ghost"}}},
	}
	_, err := New("oops.py").BuildModule(&ast.Module{Name: "oops", Functions: []*ast.FunctionDef{fn}})
	if err == nil {
		t.Fatal("expected UnknownName for a reference to an undeclared name")
	}
}

// A class declared twice is a compile error (invariant 5: append-only).
func TestBuildModule_DuplicateClassIsAnError(t *testing.T) {
	c := &ast.ClassDef{Name: "Dup", IsRecord: true}
	_, err := New("dup.py").BuildModule(&ast.Module{Name: "dup", Classes: []*ast.ClassDef{c, c}})
	if err == nil {
		t.Fatal("expected DuplicateClass for a class declared twice")
	}
}

// raise of a name that is not one of the host runtime's builtin exception
// type descriptors is a compile error (spec §7).
func TestBuildModule_RaiseOfUndeclaredExceptionIsAnError(t *testing.T) {
	fn := &ast.FunctionDef{
		Name: "oops",
		Body: []ast.Stmt{&ast.Raise{TypeName: "MadeUpError"}},
	}
	_, err := New("oops.py").BuildModule(&ast.Module{Name: "oops", Functions: []*ast.FunctionDef{fn}})
	if err == nil {
		t.Fatal("expected UndeclaredException for raising an unrecognized exception type")
	}
}

// except of a name that is not a builtin exception type is the same error.
func TestBuildModule_ExceptOfUndeclaredExceptionIsAnError(t *testing.T) {
	fn := &ast.FunctionDef{
		Name: "oops",
		Body: []ast.Stmt{&ast.Try{
			Body:     []ast.Stmt{&ast.Raise{TypeName: "ValueError"}},
			Handlers: []ast.ExceptHandler{{TypeName: "MadeUpError"}},
		}},
	}
	_, err := New("oops.py").BuildModule(&ast.Module{Name: "oops", Functions: []*ast.FunctionDef{fn}})
	if err == nil {
		t.Fatal("expected UndeclaredException for an except clause naming an unrecognized type")
	}
}

// A bare `raise` (re-raise) and a bare `except:` name no type and must not
// be rejected.
func TestBuildModule_BareRaiseAndBareExceptAreValid(t *testing.T) {
	fn := &ast.FunctionDef{
		Name: "reraise",
		Body: []ast.Stmt{&ast.Try{
			Body:     []ast.Stmt{&ast.Raise{TypeName: "ValueError"}},
			Handlers: []ast.ExceptHandler{{Body: []ast.Stmt{&ast.Raise{}}}},
		}},
	}
	if _, err := New("reraise.py").BuildModule(&ast.Module{Name: "reraise", Functions: []*ast.FunctionDef{fn}}); err != nil {
		t.Fatalf("bare raise/except should be valid, got %v", err)
	}
}
