package emitter

// CompileOptions controls emission choices that are not derivable from the
// IR alone.
type CompileOptions struct {
	// DebugAsserts, when set, has the emitter insert a runtime
	// type_assert(p, &type_Class) ahead of the first ParamAttr use of each
	// class-typed parameter in a function body. The default (false) trusts
	// the annotation contract the IR Builder already enforced at compile
	// time and emits a plain cast.
	DebugAsserts bool

	// ModuleVersion is an optional semver string stamped into the
	// generated file's header as a MODULE_VERSION constant. Empty means
	// unversioned.
	ModuleVersion string
}
