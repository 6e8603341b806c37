package registry

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for registry failures. Typed errors below match them with errors.Is.
var (
	// ErrSchema indicates a malformed or inconsistent metadata document.
	ErrSchema = errors.New("registry: invalid metadata")

	// ErrNotFound indicates a callable item lookup found no candidate.
	ErrNotFound = errors.New("registry: not found")

	// ErrAmbiguous indicates a callable item lookup found several candidates.
	ErrAmbiguous = errors.New("registry: ambiguous")

	// ErrUnknownType indicates a TypeID that has no definition.
	ErrUnknownType = errors.New("registry: unknown type id")
)

// SchemaError reports why a metadata document was rejected.
// Path locates the offending element, for example "types[3].def.variant".
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "registry: invalid metadata: " + e.Reason
	}
	return fmt.Sprintf("registry: invalid metadata at %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

func schemaErrorf(path, format string, args ...any) error {
	return errors.WithStack(&SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

// NotFoundError indicates no callable item matched the requested name and arity.
type NotFoundError struct {
	Kind      CallableKind
	Name      string
	ArgCount  int
	Available []string
}

func (e *NotFoundError) Error() string {
	var arity string
	if e.ArgCount != AnyArity {
		arity = fmt.Sprintf(" with %d argument(s)", e.ArgCount)
	}
	return fmt.Sprintf("registry: %s %q%s not found, expected one of [%s]",
		e.Kind, e.Name, arity, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AmbiguousError indicates several callable items matched the requested name and arity.
type AmbiguousError struct {
	Kind       CallableKind
	Name       string
	ArgCount   int
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("registry: %s %q is ambiguous between [%s]",
		e.Kind, e.Name, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}
