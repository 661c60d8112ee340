package irbuilder

import (
	"fmt"
	"strings"

	"mypycc/internal/ast"
	cerr "mypycc/internal/errors"
	"mypycc/internal/ir"
)

func (b *Builder) buildBlock(stmts []ast.Stmt, scope *funcScope) ([]ir.Stmt, error) {
	out := make([]ir.Stmt, 0, len(stmts))
	for _, s := range stmts {
		is, err := b.buildStmt(s, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	return out, nil
}

func (b *Builder) buildStmt(s ast.Stmt, scope *funcScope) (ir.Stmt, error) {
	switch n := s.(type) {
	case *ast.Assign:
		return b.buildAssign(n, scope)
	case *ast.AugAssign:
		return b.buildAugAssign(n, scope)
	case *ast.Return:
		return b.buildReturn(n, scope)
	case *ast.If:
		cond, err := b.buildExpr(n.Cond, scope)
		if err != nil {
			return nil, err
		}
		then, err := b.buildBlock(n.Then, scope)
		if err != nil {
			return nil, err
		}
		els, err := b.buildBlock(n.Else, scope)
		if err != nil {
			return nil, err
		}
		return &ir.If{Cond: cond, Then: then, Else: els}, nil
	case *ast.For:
		iter, err := b.buildExpr(n.Iter, scope)
		if err != nil {
			return nil, err
		}
		scope.declare(n.LoopVar, ir.OBJ)
		body, err := b.buildBlock(n.Body, scope)
		if err != nil {
			return nil, err
		}
		return &ir.For{LoopVar: n.LoopVar, LoopVarCat: ir.OBJ, Iter: iter, Body: body}, nil
	case *ast.While:
		cond, err := b.buildExpr(n.Cond, scope)
		if err != nil {
			return nil, err
		}
		body, err := b.buildBlock(n.Body, scope)
		if err != nil {
			return nil, err
		}
		return &ir.While{Cond: cond, Body: body}, nil
	case *ast.Break:
		return &ir.Break{}, nil
	case *ast.Continue:
		return &ir.Continue{}, nil
	case *ast.Try:
		return b.buildTry(n, scope)
	case *ast.Raise:
		if err := b.resolveExceptionType(n.TypeName); err != nil {
			return nil, err
		}
		var msg ir.Expr
		if n.Message != nil {
			var err error
			msg, err = b.buildExpr(n.Message, scope)
			if err != nil {
				return nil, err
			}
		}
		return &ir.Raise{TypeName: n.TypeName, Message: msg}, nil
	case *ast.ExprStmt:
		value, err := b.buildExpr(n.Value, scope)
		if err != nil {
			return nil, err
		}
		return &ir.ExprStmt{Value: value}, nil
	default:
		return nil, cerr.New(cerr.UnsupportedConstruct, "unrecognized statement node", cerr.Location{File: b.fileName})
	}
}

// buildAssign classifies a target as declaration or rebinding (spec §4.1).
// A declared-but-unseen name fixes its category for the rest of the
// function's lifetime (invariant 1): from an explicit annotation on this
// assignment if one is present, else from the value expression's own
// category. A rebinding of an already-known name keeps that name's fixed
// category regardless of the value's category — the emitter inserts the
// boundary coercion — and a conflicting re-annotation is rejected here.
func (b *Builder) buildAssign(n *ast.Assign, scope *funcScope) (ir.Stmt, error) {
	value, err := b.buildExpr(n.Value, scope)
	if err != nil {
		return nil, err
	}

	if scope.isKnown(n.Target) {
		declared, _ := scope.categoryOf(n.Target)
		if n.Annotation != "" {
			annoCat, _, err := b.resolveAnnotation(n.Annotation)
			if err != nil {
				return nil, err
			}
			if annoCat != declared {
				return nil, cerr.New(cerr.IncompatibleAssignment,
					fmt.Sprintf("%q was declared %s; cannot redeclare as %s", n.Target, declared, annoCat),
					cerr.Location{File: b.fileName})
			}
		}
		return &ir.Assign{Target: n.Target, CTarget: n.Target, DeclaredCategory: declared, IsDeclaration: false, Value: value}, nil
	}

	cat := value.Cat()
	if n.Annotation != "" {
		annoCat, _, err := b.resolveAnnotation(n.Annotation)
		if err != nil {
			return nil, err
		}
		cat = annoCat
	}
	scope.declare(n.Target, cat)
	return &ir.Assign{Target: n.Target, CTarget: n.Target, DeclaredCategory: cat, IsDeclaration: true, Value: value}, nil
}

func (b *Builder) buildAugAssign(n *ast.AugAssign, scope *funcScope) (ir.Stmt, error) {
	if !scope.isKnown(n.Target) {
		return nil, cerr.New(cerr.UnknownName,
			fmt.Sprintf("augmented assignment to undeclared name %q", n.Target),
			cerr.Location{File: b.fileName})
	}
	declared, _ := scope.categoryOf(n.Target)

	opKind, ok := binOpByToken[strings.TrimSuffix(n.Op, "=")]
	if !ok {
		return nil, cerr.New(cerr.UnsupportedConstruct,
			fmt.Sprintf("unrecognized augmented-assignment operator %q", n.Op), cerr.Location{File: b.fileName})
	}
	if (opKind == ir.OpFloorDiv || opKind == ir.OpMod) && scope.tryDepth > 0 {
		scope.needsCheckedDiv = true
	}

	value, err := b.buildExpr(n.Value, scope)
	if err != nil {
		return nil, err
	}
	return &ir.AugAssign{Target: n.Target, CTarget: n.Target, DeclaredCategory: declared, Op: opKind, Value: value}, nil
}

func (b *Builder) buildReturn(n *ast.Return, scope *funcScope) (ir.Stmt, error) {
	if n.Value == nil {
		if scope.returnCategory != ir.OBJ {
			return nil, cerr.New(cerr.IncompatibleAssignment,
				fmt.Sprintf("bare return not allowed in a function declared to return %s", scope.returnCategory),
				cerr.Location{File: b.fileName})
		}
		return &ir.Return{Value: nil}, nil
	}
	value, err := b.buildExpr(n.Value, scope)
	if err != nil {
		return nil, err
	}
	return &ir.Return{Value: value}, nil
}

// buildTry tracks tryDepth only across the protected body (spec §4.2,
// "checked floor-division/modulus"): a floor-div or mod built while
// tryDepth > 0 marks the function as needing the checked-division helper,
// since any exception it raises must unwind through this try's NLR
// checkpoint. Handler, else, and finally bodies are not themselves inside
// the protected region, so tryDepth is restored before building them.
func (b *Builder) buildTry(n *ast.Try, scope *funcScope) (*ir.Try, error) {
	scope.tryDepth++
	body, err := b.buildBlock(n.Body, scope)
	scope.tryDepth--
	if err != nil {
		return nil, err
	}

	handlers := make([]ir.ExceptHandler, 0, len(n.Handlers))
	for _, h := range n.Handlers {
		if err := b.resolveExceptionType(h.TypeName); err != nil {
			return nil, err
		}
		hbody, err := b.buildBlock(h.Body, scope)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, ir.ExceptHandler{TypeName: h.TypeName, BindName: h.BindName, Body: hbody})
	}

	elseBody, err := b.buildBlock(n.Else, scope)
	if err != nil {
		return nil, err
	}
	finallyBody, err := b.buildBlock(n.Finally, scope)
	if err != nil {
		return nil, err
	}

	return &ir.Try{Body: body, Handlers: handlers, Else: elseBody, Finally: finallyBody}, nil
}
