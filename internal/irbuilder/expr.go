package irbuilder

import (
	"fmt"
	"strconv"
	"strings"

	"mypycc/internal/ast"
	cerr "mypycc/internal/errors"
	"mypycc/internal/ir"
)

var builtinKindByName = map[string]ir.BuiltinKind{
	"int":   ir.BuiltinInt,
	"float": ir.BuiltinFloat,
	"bool":  ir.BuiltinBool,
	"str":   ir.BuiltinStr,
	"list":  ir.BuiltinList,
}

var binOpByToken = map[string]ir.BinOpKind{
	"+":  ir.OpAdd,
	"-":  ir.OpSub,
	"*":  ir.OpMul,
	"//": ir.OpFloorDiv,
	"/":  ir.OpTrueDiv,
	"%":  ir.OpMod,
	"==": ir.OpEq,
	"!=": ir.OpNe,
	"<":  ir.OpLt,
	"<=": ir.OpLe,
	">":  ir.OpGt,
	">=": ir.OpGe,
	"in": ir.OpIn,
	"is": ir.OpIs,
}

func (b *Builder) buildExpr(e ast.Expr, scope *funcScope) (ir.Expr, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return buildLiteral(n)

	case *ast.Name:
		if n.Ident == "self" && scope.selfClass != nil {
			return &ir.VarRef{Category: ir.OBJ, CName: "self"}, nil
		}
		cat, ok := scope.categoryOf(n.Ident)
		if !ok {
			return nil, cerr.New(cerr.UnknownName,
				fmt.Sprintf("reference to undeclared name %q", n.Ident),
				cerr.Location{File: b.fileName})
		}
		return &ir.VarRef{Category: cat, CName: n.Ident}, nil

	case *ast.BinOp:
		return b.buildBinOp(n, scope)

	case *ast.BoolOp:
		// The closed IR expression set (spec §3) has no short-circuit
		// boolean node — only literal/var/binop/unop/attr/subscript/call
		// variants. Short-circuit `and`/`or` as an expression therefore
		// falls outside this compiled subset.
		return nil, cerr.New(cerr.UnsupportedConstruct,
			fmt.Sprintf("short-circuit %q is not part of the compiled subset", n.Op),
			cerr.Location{File: b.fileName})

	case *ast.UnaryOp:
		return b.buildUnaryOp(n, scope)

	case *ast.Attribute:
		return b.buildAttribute(n, scope)

	case *ast.Subscript:
		obj, err := b.buildExpr(n.Object, scope)
		if err != nil {
			return nil, err
		}
		idx, err := b.buildExpr(n.Index, scope)
		if err != nil {
			return nil, err
		}
		return &ir.Subscript{Object: obj, Index: idx}, nil

	case *ast.Call:
		return b.buildCall(n, scope)

	default:
		return nil, cerr.New(cerr.UnsupportedConstruct, "unrecognized expression node", cerr.Location{File: b.fileName})
	}
}

func buildLiteral(n *ast.Literal) (ir.Expr, error) {
	switch v := n.Value.(type) {
	case int64:
		return &ir.Const{Category: ir.INT, CLit: strconv.FormatInt(v, 10)}, nil
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return &ir.Const{Category: ir.FLOAT, CLit: s}, nil
	case bool:
		if v {
			return &ir.Const{Category: ir.BOOL, CLit: "1"}, nil
		}
		return &ir.Const{Category: ir.BOOL, CLit: "0"}, nil
	case string:
		return &ir.Const{Category: ir.OBJ, CLit: fmt.Sprintf("new_str(%q)", v)}, nil
	case nil:
		return &ir.Const{Category: ir.NONE, CLit: "runtime_none()"}, nil
	default:
		return nil, cerr.New(cerr.UnsupportedConstruct, "unrecognized literal kind", cerr.Location{})
	}
}

func (b *Builder) buildBinOp(n *ast.BinOp, scope *funcScope) (ir.Expr, error) {
	opKind, ok := binOpByToken[n.Op]
	if !ok {
		return nil, cerr.New(cerr.UnsupportedConstruct,
			fmt.Sprintf("unrecognized operator %q", n.Op), cerr.Location{File: b.fileName})
	}
	left, err := b.buildExpr(n.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := b.buildExpr(n.Right, scope)
	if err != nil {
		return nil, err
	}
	if (opKind == ir.OpFloorDiv || opKind == ir.OpMod) && scope.tryDepth > 0 {
		scope.needsCheckedDiv = true
	}
	return &ir.BinOp{Category: binOpResultCategory(opKind, left.Cat(), right.Cat()), Op: opKind, Left: left, Right: right}, nil
}

// binOpResultCategory resolves the one ambiguity spec §4.2 leaves implicit:
// the result category of an arithmetic/comparison op on two already-typed
// operands. `in`/`is` always generic-dispatch (OBJ); any operand already
// OBJ forces the whole op through binary_op (OBJ); otherwise a comparison
// yields BOOL and an arithmetic op yields the operands' widest numeric
// category, with true division always promoting to FLOAT (true §6 `/`
// vs `//` distinction: only floor-div stays INT when both operands are).
func binOpResultCategory(op ir.BinOpKind, left, right ir.Category) ir.Category {
	if op == ir.OpIn || op == ir.OpIs {
		return ir.OBJ
	}
	if left == ir.OBJ || right == ir.OBJ {
		return ir.OBJ
	}
	switch op {
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		return ir.BOOL
	case ir.OpTrueDiv:
		return ir.FLOAT
	default:
		if left == ir.FLOAT || right == ir.FLOAT {
			return ir.FLOAT
		}
		return ir.INT
	}
}

func (b *Builder) buildUnaryOp(n *ast.UnaryOp, scope *funcScope) (ir.Expr, error) {
	operand, err := b.buildExpr(n.Operand, scope)
	if err != nil {
		return nil, err
	}
	var kind ir.UnaryOpKind
	switch n.Op {
	case "-":
		kind = ir.UnaryNeg
	case "not":
		kind = ir.UnaryNot
	default:
		return nil, cerr.New(cerr.UnsupportedConstruct,
			fmt.Sprintf("unrecognized unary operator %q", n.Op), cerr.Location{File: b.fileName})
	}
	cat := operand.Cat()
	if cat != ir.OBJ && kind == ir.UnaryNot {
		cat = ir.BOOL
	}
	return &ir.UnaryOp{Category: cat, Op: kind, Operand: operand}, nil
}

// buildAttribute implements the three disjoint receiver classifications of
// spec §4.1: self, a class-typed parameter, or a generic attribute-load.
func (b *Builder) buildAttribute(n *ast.Attribute, scope *funcScope) (ir.Expr, error) {
	if name, ok := n.Receiver.(*ast.Name); ok {
		if name.Ident == "self" && scope.selfClass != nil {
			field, ok := scope.selfClass.Field(n.Field)
			if !ok {
				return nil, cerr.New(cerr.UnknownName,
					fmt.Sprintf("class %q has no field %q", scope.selfClass.Name, n.Field),
					cerr.Location{File: b.fileName})
			}
			idx := scope.selfClass.FieldIndex(n.Field)
			return &ir.SelfAttr{FieldCategory: field.Category, Field: n.Field, FieldIndex: idx}, nil
		}
		if cls, ok := scope.classTypedParams[name.Ident]; ok {
			field, ok := cls.Field(n.Field)
			if !ok {
				return nil, cerr.New(cerr.UnknownName,
					fmt.Sprintf("class %q has no field %q", cls.Name, n.Field),
					cerr.Location{File: b.fileName})
			}
			idx := cls.FieldIndex(n.Field)
			return &ir.ParamAttr{FieldCategory: field.Category, Param: name.Ident, ClassCName: cls.CName, Field: n.Field, FieldIndex: idx}, nil
		}
	}
	recv, err := b.buildExpr(n.Receiver, scope)
	if err != nil {
		return nil, err
	}
	return &ir.GenericAttr{Receiver: recv, Field: n.Field}, nil
}

// buildCall disambiguates the three call shapes the closed IR set
// supports: a builtin conversion constructor, a named-function call, or a
// method call (spec §4.1, "Method calls and built-ins").
func (b *Builder) buildCall(n *ast.Call, scope *funcScope) (ir.Expr, error) {
	switch callee := n.Callee.(type) {
	case *ast.Name:
		if kind, ok := builtinKindByName[callee.Ident]; ok {
			if len(n.Args) != 1 {
				return nil, cerr.New(cerr.UnsupportedConstruct,
					fmt.Sprintf("builtin %q expects exactly one argument", callee.Ident),
					cerr.Location{File: b.fileName})
			}
			arg, err := b.buildExpr(n.Args[0], scope)
			if err != nil {
				return nil, err
			}
			return &ir.BuiltinCall{Kind: kind, Arg: arg}, nil
		}
		sig, ok := b.signatures[callee.Ident]
		if !ok {
			return nil, cerr.New(cerr.UnknownName,
				fmt.Sprintf("call to undeclared function %q", callee.Ident),
				cerr.Location{File: b.fileName})
		}
		args, err := b.buildExprList(n.Args, scope)
		if err != nil {
			return nil, err
		}
		return &ir.Call{Category: sig.ret, Callee: callee.Ident, Args: args, ArgCats: sig.paramCats}, nil

	case *ast.Attribute:
		recv, err := b.buildExpr(callee.Receiver, scope)
		if err != nil {
			return nil, err
		}
		if recv.Cat() != ir.OBJ {
			return nil, cerr.New(cerr.ScalarReceiverMethodCall,
				fmt.Sprintf("method %q called on a known-scalar receiver; methods require a boxed receiver", callee.Field),
				cerr.Location{File: b.fileName})
		}
		args, err := b.buildExprList(n.Args, scope)
		if err != nil {
			return nil, err
		}
		return &ir.MethodCall{Receiver: recv, Method: callee.Field, Args: args}, nil

	default:
		return nil, cerr.New(cerr.UnsupportedConstruct,
			"call target must be a name or an attribute", cerr.Location{File: b.fileName})
	}
}

func (b *Builder) buildExprList(exprs []ast.Expr, scope *funcScope) ([]ir.Expr, error) {
	out := make([]ir.Expr, 0, len(exprs))
	for _, e := range exprs {
		ie, err := b.buildExpr(e, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, ie)
	}
	return out, nil
}
