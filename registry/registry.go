// Package registry loads a contract metadata document into an immutable,
// indexed table of type definitions and callable items.
//
// A Registry is built once per document by Load and never mutated afterwards,
// so it can be shared freely between goroutines.
package registry

import (
	"bytes"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Registry is the immutable type table and callable list of one metadata document.
type Registry struct {
	types       map[TypeID]*Type
	order       []TypeID
	callables   [3][]*CallableItem
	environment *Environment
	info        Info
	minSizes    map[TypeID]int
}

// Resolve returns the type with the given ID.
func (r *Registry) Resolve(id TypeID) (*Type, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "id %d", id)
	}
	return t, nil
}

// MustResolve is like Resolve but panics on error.
func (r *Registry) MustResolve(id TypeID) *Type {
	t, err := r.Resolve(id)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of types in the registry.
func (r *Registry) Len() int {
	return len(r.order)
}

// Types returns all types in document order.
func (r *Registry) Types() []*Type {
	out := make([]*Type, len(r.order))
	for i, id := range r.order {
		out[i] = r.types[id]
	}
	return out
}

// Info returns the descriptive part of the document.
func (r *Registry) Info() Info {
	return r.info
}

// Environment returns the contract's environment types, or nil if the
// document does not declare them.
func (r *Registry) Environment() *Environment {
	return r.environment
}

// Callables returns the items of the given kind in document order.
func (r *Registry) Callables(kind CallableKind) []*CallableItem {
	if int(kind) >= len(r.callables) {
		return nil
	}
	return r.callables[kind]
}

// FindCallable resolves a callable item by name and argument count.
// Pass AnyArity to match regardless of argument count.
//
// An exact label match is preferred; trait-qualified labels ("Trait::name")
// are considered only when no label matches exactly. More than one remaining
// candidate is an *AmbiguousError, even if candidates differ in return type.
func (r *Registry) FindCallable(kind CallableKind, name string, argCount int) (*CallableItem, error) {
	items := r.Callables(kind)

	var candidates []*CallableItem
	for _, qualified := range []bool{false, true} {
		for _, item := range items {
			if !matchesName(item.Name, name, qualified) {
				continue
			}
			if argCount != AnyArity && len(item.Args) != argCount {
				continue
			}
			candidates = append(candidates, item)
		}
		if len(candidates) > 0 {
			break
		}
	}

	switch len(candidates) {
	case 0:
		available := make([]string, 0, len(items))
		for _, item := range items {
			available = append(available, item.Signature())
		}
		sort.Strings(available)
		return nil, errors.WithStack(&NotFoundError{Kind: kind, Name: name, ArgCount: argCount, Available: available})
	case 1:
		return candidates[0], nil
	default:
		sigs := make([]string, len(candidates))
		for i, c := range candidates {
			sigs[i] = c.Signature()
		}
		return nil, errors.WithStack(&AmbiguousError{Kind: kind, Name: name, ArgCount: argCount, Candidates: sigs})
	}
}

// CallableBySelector returns the item of the given kind whose selector is a
// prefix of data.
func (r *Registry) CallableBySelector(kind CallableKind, data []byte) (*CallableItem, error) {
	var found []*CallableItem
	for _, item := range r.Callables(kind) {
		if len(item.Selector) > 0 && bytes.HasPrefix(data, item.Selector) {
			found = append(found, item)
		}
	}
	switch len(found) {
	case 0:
		n := len(data)
		if n > SelectorSize {
			n = SelectorSize
		}
		return nil, errors.WithStack(&NotFoundError{
			Kind:     kind,
			Name:     hexutil.Encode(data[:n]),
			ArgCount: AnyArity,
		})
	case 1:
		return found[0], nil
	default:
		sigs := make([]string, len(found))
		for i, c := range found {
			sigs[i] = c.Signature()
		}
		return nil, errors.WithStack(&AmbiguousError{Kind: kind, Name: hexutil.Encode(data), ArgCount: AnyArity, Candidates: sigs})
	}
}

// Unwrap resolves id through newtype composites (exactly one field) and
// returns the innermost type.
func (r *Registry) Unwrap(id TypeID) (*Type, error) {
	seen := make(map[TypeID]bool)
	for {
		t, err := r.Resolve(id)
		if err != nil {
			return nil, err
		}
		if t.Def.Kind != KindComposite || len(t.Def.Fields) != 1 || seen[id] {
			return t, nil
		}
		seen[id] = true
		id = t.Def.Fields[0].Type
	}
}
