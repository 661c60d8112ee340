// Package errors defines the compile-time error domain: every failure the
// AST Normalizer, IR Builder, Type Oracle, or Code Emitter can raise carries
// a source span and is surfaced to the caller as a single failure (the
// compiler never produces partial output).
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a compile-time error. Runtime failures in generated code
// are a disjoint domain (propagated via the host's NLR mechanism, §7) and
// never constructed here.
type Kind string

const (
	UnknownName             Kind = "UnknownName"
	UnknownType             Kind = "UnknownType"
	IncompatibleAssignment  Kind = "IncompatibleAssignment"
	ScalarReceiverMethodCall Kind = "ScalarReceiverMethodCall"
	UndeclaredException     Kind = "UndeclaredException"
	DuplicateClass          Kind = "DuplicateClass"
	UnsupportedConstruct    Kind = "UnsupportedConstruct"
)

// Location pinpoints a span in the surface source.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// CompilerError is the single failure type returned by any pipeline stage.
type CompilerError struct {
	Kind     Kind
	Message  string
	At       Location
	Source   string // the offending source line, if known
	Frames   []Frame
}

// Frame records which stage (and, within it, which function/class) was
// active when the error surfaced — the compiler's analog of a call stack.
type Frame struct {
	Stage    string
	Function string
}

func New(kind Kind, message string, at Location) *CompilerError {
	return &CompilerError{Kind: kind, Message: message, At: at}
}

func (e *CompilerError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, e.Message))
	sb.WriteString(fmt.Sprintf("  at %s\n", e.At))

	if e.Source != "" {
		prefix := fmt.Sprintf("  %d | ", e.At.Line)
		sb.WriteString(fmt.Sprintf("\n%s%s\n", prefix, e.Source))
		sb.WriteString(strings.Repeat(" ", len(prefix)))
		if e.At.Column > 0 {
			sb.WriteString(strings.Repeat(" ", e.At.Column-1))
		}
		sb.WriteString("^\n")
	}

	if len(e.Frames) > 0 {
		sb.WriteString("\nStage trace:\n")
		for _, f := range e.Frames {
			if f.Function != "" {
				sb.WriteString(fmt.Sprintf("  in %s (%s)\n", f.Function, f.Stage))
			} else {
				sb.WriteString(fmt.Sprintf("  in %s\n", f.Stage))
			}
		}
	}

	return sb.String()
}

// WithSource attaches the offending source line for caret rendering.
func (e *CompilerError) WithSource(source string) *CompilerError {
	e.Source = source
	return e
}

// WithFrame records which stage/function was compiling when this error was
// raised or rethrown, innermost call last.
func (e *CompilerError) WithFrame(stage, function string) *CompilerError {
	e.Frames = append(e.Frames, Frame{Stage: stage, Function: function})
	return e
}
