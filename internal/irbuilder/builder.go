// Package irbuilder implements the AST Normalizer and IR Builder stages
// (spec §4.1): it accepts a surface ast.Module and produces a typed
// ir.Module, resolving operator spellings, classifying assignment targets,
// tracking class-typed parameters, and registering record classes.
//
// Modeled on the teacher's two-pass hoisting_compiler.go: classes (like the
// teacher's forward function declarations) are collected before any
// function body is built, so a function may type a parameter with any
// class declared earlier in the module — but, per spec invariant 5, a
// class used before its own declaration is a compile error, not silently
// hoisted past it.
package irbuilder

import (
	"fmt"

	"github.com/pkg/errors"

	"mypycc/internal/ast"
	cerr "mypycc/internal/errors"
	"mypycc/internal/ir"
)

// builtinExceptions is the fixed set of host-runtime exception type
// descriptors a `raise` or `except` clause may name (spec §6, "Type
// descriptors for built-in types"). This compiled subset has no syntax for
// declaring a user-defined exception class, so any other name is a compile
// error (spec §7, "raise of an undeclared exception type").
var builtinExceptions = map[string]bool{
	"Exception":         true,
	"ValueError":        true,
	"TypeError":         true,
	"KeyError":          true,
	"IndexError":        true,
	"AttributeError":    true,
	"ZeroDivisionError": true,
	"StopIteration":     true,
	"RuntimeError":      true,
	"NotImplementedError": true,
	"OverflowError":      true,
}

// Builder turns one surface module into typed IR. It is single-use: create
// one per compilation unit (spec §5, "one module compiled in one pass").
type Builder struct {
	knownClasses map[string]*ir.ClassDescriptor
	signatures   map[string]funcSignature
	fileName     string
}

// resolveExceptionType validates a `raise`/`except` type name against the
// builtin exception registry. An empty name (bare raise, bare except) is
// always valid — it names no type.
func (b *Builder) resolveExceptionType(name string) error {
	if name == "" {
		return nil
	}
	if !builtinExceptions[name] {
		return cerr.New(cerr.UndeclaredException,
			fmt.Sprintf("undeclared exception type %q", name),
			cerr.Location{File: b.fileName})
	}
	return nil
}

type funcSignature struct {
	paramCats []ir.Category
	ret       ir.Category
}

// New creates a Builder with an empty known-class registry.
func New(fileName string) *Builder {
	return &Builder{
		knownClasses: make(map[string]*ir.ClassDescriptor),
		signatures:   make(map[string]funcSignature),
		fileName:     fileName,
	}
}

// BuildModule runs the AST Normalizer + IR Builder over mod. On any
// compile-time error it returns immediately with that single failure — the
// compiler never emits partial IR (spec §7).
func (b *Builder) BuildModule(mod *ast.Module) (*ir.Module, error) {
	out := &ir.Module{Name: mod.Name}

	// Classes first, in declaration order, appending to the registry as we
	// go (spec invariant 5: append-only, declared before use).
	for _, cdef := range mod.Classes {
		cd, err := b.buildClassSkeleton(cdef)
		if err != nil {
			return nil, err
		}
		out.Classes = append(out.Classes, cd)
		b.knownClasses[cdef.Name] = cd
	}

	// First pass over top-level functions: register signatures only, so a
	// call to a function declared later in the module still gets correct
	// argument-boundary coercion (the teacher's collectFunctions pass,
	// generalized from "which functions exist" to "what are their types").
	for _, fdef := range mod.Functions {
		sig, err := b.signatureOf(fdef)
		if err != nil {
			return nil, err
		}
		b.signatures[fdef.Name] = sig
	}

	// Second pass: build full descriptors, and only now build each class's
	// methods (which may call top-level functions and reference other
	// classes already in the registry).
	for _, cdef := range mod.Classes {
		cd := b.knownClasses[cdef.Name]
		for _, mdef := range cdef.Methods {
			fd, err := b.buildFunction(mdef, cd)
			if err != nil {
				return nil, err
			}
			cd.Methods = append(cd.Methods, fd)
		}
	}

	for _, fdef := range mod.Functions {
		fd, err := b.buildFunction(fdef, nil)
		if err != nil {
			return nil, errors.Wrap(err, "irbuilder")
		}
		out.Functions = append(out.Functions, fd)
	}

	return out, nil
}

func (b *Builder) buildClassSkeleton(cdef *ast.ClassDef) (*ir.ClassDescriptor, error) {
	if _, dup := b.knownClasses[cdef.Name]; dup {
		return nil, cerr.New(cerr.DuplicateClass,
			fmt.Sprintf("class %q declared more than once", cdef.Name),
			cerr.Location{File: b.fileName})
	}
	cd := &ir.ClassDescriptor{
		Name:  cdef.Name,
		CName: cdef.Name + "_obj_t",
	}
	for _, f := range cdef.Fields {
		cat, _, err := b.resolveAnnotation(f.Annotation)
		if err != nil {
			return nil, err
		}
		cd.Fields = append(cd.Fields, ir.FieldDescriptor{Name: f.Name, Category: cat})
	}
	return cd, nil
}

// signatureOf derives a function's parameter/return categories from its
// annotations only — no body analysis — for the forward-reference pass.
func (b *Builder) signatureOf(fdef *ast.FunctionDef) (funcSignature, error) {
	sig := funcSignature{}
	for _, p := range fdef.Params {
		cat, _, err := b.resolveAnnotation(p.Annotation)
		if err != nil {
			return sig, err
		}
		sig.paramCats = append(sig.paramCats, cat)
	}
	ret, _, err := b.resolveAnnotation(fdef.ReturnAnno)
	if err != nil {
		return sig, err
	}
	sig.ret = ret
	return sig, nil
}

// resolveAnnotation maps a surface type annotation to a Category and,
// if the annotation names a known record class, that class's descriptor
// (so the caller can wire up class_typed_params — spec §4.1, "Parameter
// class tracking"). An empty annotation defaults to OBJ: unannotated names
// are plain boxed values, only annotated scalars get unboxed treatment.
func (b *Builder) resolveAnnotation(anno string) (ir.Category, *ir.ClassDescriptor, error) {
	switch anno {
	case "":
		return ir.OBJ, nil, nil
	case "int":
		return ir.INT, nil, nil
	case "float":
		return ir.FLOAT, nil, nil
	case "bool":
		return ir.BOOL, nil, nil
	case "str", "list", "dict", "set", "tuple", "object":
		return ir.OBJ, nil, nil
	default:
		if cd, ok := b.knownClasses[anno]; ok {
			return ir.OBJ, cd, nil
		}
		return ir.OBJ, nil, cerr.New(cerr.UnknownType,
			fmt.Sprintf("unknown type annotation %q", anno),
			cerr.Location{File: b.fileName})
	}
}
