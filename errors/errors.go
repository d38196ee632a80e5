package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAlloc  Phase = "alloc"  // tagged allocation
	PhaseFree   Phase = "free"   // explicit deallocation
	PhaseCast   Phase = "cast"   // tag-checked cast
	PhaseLayout Phase = "layout" // shape layout verification
	PhaseMemory Phase = "memory" // linear memory access
	PhaseConfig Phase = "config" // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation   Kind = "allocation"
	KindTypeMismatch Kind = "type_mismatch"
	KindNilPointer   Kind = "nil_pointer"
	KindLayout       Kind = "layout"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindUnsupported  Kind = "unsupported"
	KindInvalidFree  Kind = "invalid_free"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Shape  string // shape the caller asked for
	Actual string // shape found in the identifier slot
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Shape != "" || e.Actual != "" {
		b.WriteString(": ")
		if e.Shape != "" && e.Actual != "" {
			b.WriteString("want shape ")
			b.WriteString(e.Shape)
			b.WriteString(", have ")
			b.WriteString(e.Actual)
		} else if e.Shape != "" {
			b.WriteString("shape ")
			b.WriteString(e.Shape)
		} else {
			b.WriteString("have ")
			b.WriteString(e.Actual)
		}
	}

	if e.Detail != "" {
		if e.Shape != "" || e.Actual != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Shape sets the wanted shape name
func (b *Builder) Shape(name string) *Builder {
	b.err.Shape = name
	return b
}

// Actual sets the shape name found in the identifier slot
func (b *Builder) Actual(name string) *Builder {
	b.err.Actual = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, want, actual string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Shape:  want,
		Actual: actual,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Shape:  want,
		Detail: "nil source pointer",
	}
}

// Layout creates a layout violation error
func Layout(shape, detail string) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindLayout,
		Shape:  shape,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error for a linear memory access
func OutOfBounds(phase Phase, path []string, offset, length uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("offset %d length %d out of bounds", offset, length),
		Value:  offset,
	}
}

// InvalidFree creates an error for freeing memory the allocator does not own
func InvalidFree(ptr uint64, detail string) *Error {
	return &Error{
		Phase:  PhaseFree,
		Kind:   KindInvalidFree,
		Detail: fmt.Sprintf("%#x: %s", ptr, detail),
		Value:  ptr,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
