package irbuilder

import (
	"mypycc/internal/ast"
	"mypycc/internal/ir"
)

// buildFunction builds one function or method descriptor. selfClass is
// non-nil when building a method body, so attribute reads on the literal
// name "self" resolve as SelfAttr (spec §4.1 case 1) rather than falling
// through to class-typed-parameter or generic attribute-load handling.
func (b *Builder) buildFunction(fdef *ast.FunctionDef, selfClass *ir.ClassDescriptor) (*ir.FunctionDescriptor, error) {
	retCat, _, err := b.resolveAnnotation(fdef.ReturnAnno)
	if err != nil {
		return nil, err
	}

	scope := newFuncScope(fdef.Name, retCat)
	scope.selfClass = selfClass

	fd := &ir.FunctionDescriptor{
		Name:           fdef.Name,
		CName:          fdef.Name,
		ReturnCategory: retCat,
		Locals:         scope.locals,
		ClassTypedParams: scope.classTypedParams,
	}

	if selfClass != nil {
		scope.params["self"] = ir.OBJ
		fd.Params = append(fd.Params, ir.Param{Name: "self", Category: ir.OBJ, Class: selfClass})
	}

	for _, p := range fdef.Params {
		cat, cls, err := b.resolveAnnotation(p.Annotation)
		if err != nil {
			return nil, err
		}
		scope.params[p.Name] = cat
		if cls != nil {
			scope.classTypedParams[p.Name] = cls
		}
		var def ir.Expr
		if p.Default != nil {
			def, err = b.buildExpr(p.Default, scope)
			if err != nil {
				return nil, err
			}
		}
		fd.Params = append(fd.Params, ir.Param{Name: p.Name, Category: cat, Class: cls, Default: def})
	}

	body, err := b.buildBlock(fdef.Body, scope)
	if err != nil {
		return nil, err
	}
	fd.Body = body
	fd.MaxTemps = ir.CountTemps(body)
	fd.NeedsCheckedDiv = scope.needsCheckedDiv

	return fd, nil
}
