package enforce

import (
	"context"
	"fmt"
)

// Handler executes an operation.
type Handler func(ctx context.Context, args any) (any, error)

// SubtypeFunc extracts the subtype discriminator from call arguments.
// It returns false when no subtype can be determined.
type SubtypeFunc func(args any) (string, bool)

// Operation is a named, invocable unit exposed by a Provider.
type Operation struct {
	Name    string
	Handler Handler
	Subtype SubtypeFunc // optional; nil means the subtype is never determined
}

// Provider exposes a set of operations. Repositories, services and API
// handlers become providers by listing their operations; an Interceptor is a
// Provider too, which is how layers stack.
type Provider interface {
	Operations() []Operation
}

// Operations is a literal Provider.
type Operations []Operation

// Operations returns ops.
func (ops Operations) Operations() []Operation {
	return ops
}

// Subtyped is implemented by argument types that carry their own subtype.
type Subtyped interface {
	Subtype() string
}

// Op builds an operation from a typed function. If A implements Subtyped its
// Subtype method supplies the discriminator.
func Op[A, R any](name string, fn func(ctx context.Context, args A) (R, error)) Operation {
	return Operation{
		Name:    name,
		Handler: typedHandler(name, fn),
		Subtype: func(args any) (string, bool) {
			if s, ok := args.(Subtyped); ok {
				st := s.Subtype()
				return st, st != ""
			}
			return "", false
		},
	}
}

// OpWithSubtype is like Op but takes the subtype from subtype(args).
// An empty result means the subtype is undetermined.
func OpWithSubtype[A, R any](name string, fn func(ctx context.Context, args A) (R, error), subtype func(A) string) Operation {
	return Operation{
		Name:    name,
		Handler: typedHandler(name, fn),
		Subtype: func(args any) (string, bool) {
			a, ok := args.(A)
			if !ok {
				return "", false
			}
			st := subtype(a)
			return st, st != ""
		},
	}
}

func typedHandler[A, R any](name string, fn func(ctx context.Context, args A) (R, error)) Handler {
	return func(ctx context.Context, args any) (any, error) {
		a, ok := args.(A)
		if !ok {
			var want A
			return nil, fmt.Errorf("%w: %s expects %T, got %T", ErrInvalidArguments, name, want, args)
		}
		return fn(ctx, a)
	}
}
