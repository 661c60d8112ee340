package ir

import (
	"reflect"
	"testing"
)

func sampleModule() *Module {
	point := &ClassDescriptor{
		Name:  "Point",
		CName: "Point_obj_t",
		Fields: []FieldDescriptor{
			{Name: "x", Category: INT},
			{Name: "y", Category: INT},
		},
	}
	point.Methods = []*FunctionDescriptor{
		{
			Name: "dist2", CName: "Point_dist2", ReturnCategory: INT,
			Params:           []Param{{Name: "self", Category: OBJ}},
			Locals:           map[string]Category{"self": OBJ},
			ClassTypedParams: map[string]*ClassDescriptor{},
			Body: []Stmt{
				&Return{Value: &BinOp{
					Category: INT, Op: OpAdd,
					Left:  &SelfAttr{FieldCategory: INT, Field: "x", FieldIndex: 0},
					Right: &SelfAttr{FieldCategory: INT, Field: "y", FieldIndex: 1},
				}},
			},
			MaxTemps: 0,
		},
	}

	fn := &FunctionDescriptor{
		Name: "move", CName: "move", ReturnCategory: OBJ,
		Params: []Param{
			{Name: "p", Category: OBJ, Class: point},
			{Name: "dx", Category: INT, Default: &Const{Category: INT, CLit: "0"}},
		},
		Locals:          map[string]Category{"p": OBJ, "dx": INT, "t0": OBJ},
		ClassTypedParams: map[string]*ClassDescriptor{"p": point},
		MaxTemps:        1,
		NeedsCheckedDiv: true,
		Body: []Stmt{
			&Assign{Target: "t", CTarget: "t", DeclaredCategory: INT, IsDeclaration: true,
				Value: &ParamAttr{FieldCategory: INT, Param: "p", ClassCName: "Point_obj_t", Field: "x", FieldIndex: 0}},
			&If{
				Cond: &BinOp{Category: BOOL, Op: OpGt, Left: &VarRef{Category: INT, CName: "dx"}, Right: &Const{Category: INT, CLit: "0"}},
				Then: []Stmt{&AugAssign{Target: "t", CTarget: "t", DeclaredCategory: INT, Op: OpAdd, Value: &VarRef{Category: INT, CName: "dx"}}},
				Else: []Stmt{&Break{}},
			},
			&For{LoopVar: "i", LoopVarCat: OBJ, Iter: &Call{Category: OBJ, Callee: "range", Args: []Expr{&Const{Category: INT, CLit: "3"}}, ArgCats: []Category{INT}},
				Body: []Stmt{&Continue{}}},
			&While{Cond: &Const{Category: BOOL, CLit: "0"}, Body: []Stmt{
				&Try{
					Body:     []Stmt{&Raise{TypeName: "ValueError", Message: &Const{Category: OBJ, CLit: `new_str("bad")`}}},
					Handlers: []ExceptHandler{{TypeName: "ValueError", BindName: "e", Body: []Stmt{&Raise{}}}},
					Else:     []Stmt{&ExprStmt{Value: &MethodCall{Receiver: &VarRef{Category: OBJ, CName: "p"}, Method: "reset", Args: nil}}},
					Finally:  []Stmt{&ExprStmt{Value: &BuiltinCall{Kind: BuiltinStr, Arg: &VarRef{Category: INT, CName: "t"}}}},
				},
			}},
			&ExprStmt{Value: &UnaryOp{Category: INT, Op: UnaryNeg, Operand: &VarRef{Category: INT, CName: "t"}}},
			&ExprStmt{Value: &Subscript{Object: &VarRef{Category: OBJ, CName: "p"}, Index: &Const{Category: INT, CLit: "0"}}},
			&ExprStmt{Value: &GenericAttr{Receiver: &VarRef{Category: OBJ, CName: "p"}, Field: "label"}},
			&Return{Value: &VarRef{Category: OBJ, CName: "p"}},
		},
	}

	return &Module{Name: "geom", Classes: []*ClassDescriptor{point}, Functions: []*FunctionDescriptor{fn}}
}

func TestMarshalDecodeModule_RoundTrip(t *testing.T) {
	orig := sampleModule()
	data, err := MarshalModule(orig)
	if err != nil {
		t.Fatalf("MarshalModule: %v", err)
	}
	got, err := DecodeModule(data)
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if !reflect.DeepEqual(orig, got) {
		t.Fatalf("round trip mismatch:\norig: %#v\ngot:  %#v", orig, got)
	}
}

func TestMarshalDecodeModule_EmptyModule(t *testing.T) {
	orig := &Module{Name: "empty"}
	data, err := MarshalModule(orig)
	if err != nil {
		t.Fatalf("MarshalModule: %v", err)
	}
	got, err := DecodeModule(data)
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if got.Name != "empty" || len(got.Classes) != 0 || len(got.Functions) != 0 {
		t.Fatalf("expected an empty module back, got %#v", got)
	}
}

func TestDecodeModule_UnknownClassReferenceIsAnError(t *testing.T) {
	data := []byte(`{"name":"bad","classes":[],"functions":[{"name":"f","c_name":"f","params":[{"name":"p","category":"OBJ","class":"Missing"}],"return_category":"OBJ","locals":{},"body":[],"max_temps":0,"needs_checked_div":false,"class_typed_params":{}}]}`)
	if _, err := DecodeModule(data); err == nil {
		t.Fatal("expected an error for a param referencing an unknown class")
	}
}
