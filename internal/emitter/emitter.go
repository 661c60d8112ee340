// Package emitter implements the Code Emitter (spec §4.2): it walks a
// finalized ir.Module and renders the C source the host runtime compiles.
// Expression emission is two-phase, mirroring the teacher's own separation
// of "what gets appended to the chunk" from "what value feeds the next
// instruction" (internal/compiler/hoisting_compiler.go): every
// materializing node writes zero or more prelude lines into a local buffer
// and returns the C fragment/temp name the caller substitutes in place of
// the original expression.
package emitter

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	cerr "mypycc/internal/errors"
	"mypycc/internal/ir"
	"mypycc/internal/oracle"
)

// moduleNamespace roots the deterministic build-id UUIDs this emitter
// stamps into generated module headers (spec's DOMAIN STACK commitment to
// github.com/google/uuid): a fixed, arbitrary namespace so the same module
// name always yields the same id across compiles, unlike uuid.New().
var moduleNamespace = uuid.MustParse("6fbd7bb2-06c6-4e5b-9b1b-7dc9d6c2f8aa")

// Emitter renders one finalized module to C. Create one per module; it is
// not safe for concurrent use (spec §5, single-threaded pipeline).
type Emitter struct {
	oracle *oracle.Oracle
	opts   CompileOptions

	out strings.Builder

	// per-function state, reset at the start of each function
	buf          strings.Builder
	tempCounter  int
	tempDecls    []tempDecl
	checkpointN  int
	nlrStack     []string
	currentFn    *ir.FunctionDescriptor
	assertedSelf map[string]bool // class-typed params already type-asserted, for DebugAsserts
}

type tempDecl struct {
	name string
	cat  ir.Category
}

// New creates an Emitter over a finalized module's Oracle view.
func New(o *oracle.Oracle, opts CompileOptions) *Emitter {
	return &Emitter{oracle: o, opts: opts}
}

// EmitModule renders the complete C translation unit for mod (spec §6,
// "Emitted C file layout"): header/build-id, the gated checked-division
// helpers, struct definitions, each class's methods followed by its method
// table, function bodies, and a module init entry point.
func (e *Emitter) EmitModule(mod *ir.Module) (string, error) {
	e.emitHeader(mod)

	// Helpers must precede any function body that calls them — this file
	// has no forward-declaration pass, so emission order is definition
	// order (spec §6, "Emitted C file layout").
	e.emitHelpers(mod)

	for _, cd := range mod.Classes {
		e.emitClassStruct(cd)
	}

	for _, cd := range mod.Classes {
		for _, fd := range cd.Methods {
			if err := e.emitFunction(fd, cd); err != nil {
				return "", err
			}
		}
		e.emitMethodTable(cd)
	}

	for _, fd := range mod.Functions {
		if err := e.emitFunction(fd, nil); err != nil {
			return "", err
		}
	}

	e.emitModuleInit(mod)

	return e.out.String(), nil
}

// emitHeader stamps the deterministic build id and an optional semver
// module-version guard ahead of any generated code.
func (e *Emitter) emitHeader(mod *ir.Module) {
	buildID := uuid.NewSHA1(moduleNamespace, []byte(mod.Name))
	fmt.Fprintf(&e.out, "/* generated by mypycc — module %q, build %s */\n", mod.Name, buildID)
	fmt.Fprintf(&e.out, "#include \"runtime.h\"\n\n")

	if e.opts.ModuleVersion != "" {
		v := e.opts.ModuleVersion
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			fmt.Fprintf(&e.out, "#error \"invalid module version %q\"\n", e.opts.ModuleVersion)
			return
		}
		fmt.Fprintf(&e.out, "static const char MODULE_VERSION[] = %q;\n\n", strings.TrimPrefix(v, "v"))
	}
}

func (e *Emitter) emitClassStruct(cd *ir.ClassDescriptor) {
	fmt.Fprintf(&e.out, "typedef struct %s {\n  obj_header_t header;\n", cd.CName)
	for _, f := range cd.Fields {
		fmt.Fprintf(&e.out, "  %s f_%s;\n", f.Category.CType(), f.Name)
	}
	fmt.Fprintf(&e.out, "} %s;\n\n", cd.CName)
}

func (e *Emitter) emitMethodTable(cd *ir.ClassDescriptor) {
	fmt.Fprintf(&e.out, "static const method_entry_t %s_methods[] = {\n", cd.Name)
	for _, m := range cd.Methods {
		fmt.Fprintf(&e.out, "  { %q, (fnptr_t)%s },\n", m.Name, m.CName)
	}
	fmt.Fprintf(&e.out, "  { NULL, NULL },\n};\n\n")
}

// emitFunction renders one function per the generated-function signature
// rule (spec §6): every emitted C function takes and returns obj_t at its
// boundary; parameters are unboxed into their declared category on entry,
// and the return value is boxed back if the body's own category differs.
func (e *Emitter) emitFunction(fd *ir.FunctionDescriptor, selfClass *ir.ClassDescriptor) error {
	e.buf.Reset()
	e.tempCounter = 0
	e.tempDecls = nil
	e.checkpointN = 0
	e.nlrStack = nil
	e.currentFn = fd
	e.assertedSelf = make(map[string]bool)

	for _, s := range fd.Body {
		if err := e.emitStmt(s); err != nil {
			return cerr.New(cerr.UnsupportedConstruct,
				fmt.Sprintf("emitting %s: %v", fd.Name, err), cerr.Location{})
		}
	}

	paramList := make([]string, len(fd.Params))
	for i := range fd.Params {
		paramList[i] = "obj_t " + fd.Params[i].Name + "_in"
	}
	fmt.Fprintf(&e.out, "obj_t %s(%s) {\n", fd.CName, strings.Join(paramList, ", "))

	for _, p := range fd.Params {
		if p.Name == "self" && selfClass != nil {
			// self gets the concrete struct pointer type, not the generic
			// obj_t handle, so SelfAttr can do plain `self->f_field` access.
			fmt.Fprintf(&e.out, "  %s *self = (%s *)self_in;\n", selfClass.CName, selfClass.CName)
			continue
		}
		co := ir.Coerce(p.Category, ir.OBJ)
		fmt.Fprintf(&e.out, "  %s %s = %s;\n", p.Category.CType(), p.Name, co.Emit(p.Name+"_in"))
	}
	for _, t := range e.tempDecls {
		fmt.Fprintf(&e.out, "  %s %s;\n", t.cat.CType(), t.name)
	}

	e.out.WriteString(e.buf.String())

	if !endsInReturn(fd.Body) {
		if fd.ReturnCategory == ir.OBJ {
			e.out.WriteString("  return runtime_none();\n")
		} else {
			e.out.WriteString("  return " + ir.Coerce(ir.OBJ, fd.ReturnCategory).Emit(zeroValue(fd.ReturnCategory)) + ";\n")
		}
	}
	e.out.WriteString("}\n\n")
	return nil
}

func endsInReturn(body []ir.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	_, ok := body[len(body)-1].(*ir.Return)
	return ok
}

func zeroValue(cat ir.Category) string {
	switch cat {
	case ir.FLOAT:
		return "0.0"
	default:
		return "0"
	}
}

// newTemp reserves the next monotonic temp slot for this function. The
// IR Builder already computed FunctionDescriptor.MaxTemps via the same
// ir.WalkMaterializing order this emitter's expression walk follows; the
// one slot it does not count is the iterator handle emitFor takes for each
// for loop. Declarations come from tempDecls, not from MaxTemps.
func (e *Emitter) newTemp(cat ir.Category) string {
	name := fmt.Sprintf("t%d", e.tempCounter)
	e.tempCounter++
	e.tempDecls = append(e.tempDecls, tempDecl{name: name, cat: cat})
	return name
}

func (e *Emitter) newCheckpoint() string {
	name := fmt.Sprintf("cp%d", e.checkpointN)
	e.checkpointN++
	return name
}
