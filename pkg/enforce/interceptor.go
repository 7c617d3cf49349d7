package enforce

import (
	"context"
	"errors"
	"fmt"
)

// Invoker calls operations by name.
type Invoker interface {
	Invoke(ctx context.Context, name string, args any) (any, error)
}

// Interceptor gates every operation of a wrapped Provider through a Guard.
// It exposes the same operation set as the provider, so callers cannot tell
// the two apart except for denials.
type Interceptor struct {
	guard *Guard
	ops   map[string]Operation
	order []string
}

var (
	_ Provider = (*Interceptor)(nil)
	_ Invoker  = (*Interceptor)(nil)
)

// New wraps provider with a guard for layer.
func New(provider Provider, layer Layer, flags FlagChecker, reqs RequirementsLookup, opts ...GuardOption) (*Interceptor, error) {
	return Wrap(provider, NewGuard(layer, flags, reqs, opts...))
}

// Wrap wraps provider with an existing guard.
func Wrap(provider Provider, guard *Guard) (*Interceptor, error) {
	if provider == nil || guard == nil {
		return nil, errors.Join(ErrInvalidOperation, errors.New("provider and guard are required"))
	}

	ops := provider.Operations()
	ic := &Interceptor{
		guard: guard,
		ops:   make(map[string]Operation, len(ops)),
		order: make([]string, 0, len(ops)),
	}
	for _, op := range ops {
		switch {
		case op.Name == "":
			return nil, fmt.Errorf("%w: empty name", ErrInvalidOperation)
		case op.Handler == nil:
			return nil, fmt.Errorf("%w: %s has no handler", ErrInvalidOperation, op.Name)
		}
		if _, dup := ic.ops[op.Name]; dup {
			return nil, fmt.Errorf("%w: %s registered twice", ErrInvalidOperation, op.Name)
		}
		ic.ops[op.Name] = op
		ic.order = append(ic.order, op.Name)
	}
	return ic, nil
}

// Layer returns the layer the interceptor enforces.
func (ic *Interceptor) Layer() Layer {
	return ic.guard.Layer()
}

// Invoke checks the requirements of name and, if allowed, forwards the call.
// The wrapped operation is not executed when the check fails.
func (ic *Interceptor) Invoke(ctx context.Context, name string, args any) (any, error) {
	op, ok := ic.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	if err := ic.guard.Check(ctx, name, subtypeOf(op, args)); err != nil {
		return nil, err
	}
	return op.Handler(ctx, args)
}

// Operations returns the gated operations in the provider's order, so that
// another interceptor can wrap this one.
func (ic *Interceptor) Operations() []Operation {
	out := make([]Operation, 0, len(ic.order))
	for _, name := range ic.order {
		op := ic.ops[name]
		out = append(out, Operation{
			Name:    name,
			Subtype: op.Subtype,
			Handler: func(ctx context.Context, args any) (any, error) {
				return ic.Invoke(ctx, name, args)
			},
		})
	}
	return out
}

func subtypeOf(op Operation, args any) string {
	if op.Subtype == nil {
		return ""
	}
	if st, ok := op.Subtype(args); ok {
		return st
	}
	return ""
}

// Invoke calls name on inv and asserts the result type.
func Invoke[R any](ctx context.Context, inv Invoker, name string, args any) (R, error) {
	var zero R
	res, err := inv.Invoke(ctx, name, args)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	r, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T, want %T", ErrInvalidArguments, name, res, zero)
	}
	return r, nil
}
