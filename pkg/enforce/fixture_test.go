package enforce_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/enforce"
	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// fixture wires the real flag store, evaluator and resolver in memory.
type fixture struct {
	store    *feature.Store
	eval     *feature.Evaluator
	source   *requirements.MemorySource
	resolver *requirements.Resolver
}

func newFixture(t *testing.T, doc requirements.Document, defs ...feature.Definition) *fixture {
	t.Helper()

	dir, err := feature.NewDirectory(defs...)
	require.NoError(t, err)
	storage, err := feature.NewMemoryStorage()
	require.NoError(t, err)

	store := feature.NewStore(dir, storage)
	_, err = store.Seed(context.Background())
	require.NoError(t, err)

	source := requirements.NewMemorySource(doc)
	return &fixture{
		store:    store,
		eval:     feature.NewEvaluator(store),
		source:   source,
		resolver: requirements.NewResolver(source, dir, requirements.WithTTL(0)),
	}
}

func (f *fixture) set(t *testing.T, flag string, enabled bool) {
	t.Helper()
	_, err := f.store.SetEnabled(context.Background(), flag, enabled)
	require.NoError(t, err)
}

func (f *fixture) guard(layer enforce.Layer, opts ...enforce.GuardOption) *enforce.Guard {
	return enforce.NewGuard(layer, f.eval, f.resolver, opts...)
}

type WithdrawArgs struct {
	Account string
	Amount  int
}

func (a WithdrawArgs) Subtype() string { return a.Account }

type CreateAccountArgs struct {
	Kind  string
	Owner string
}

// accounts is the wrapped provider; it counts calls so tests can prove a
// denied call never reached it.
type accounts struct {
	withdrawals atomic.Int32
	creations   atomic.Int32
}

func (a *accounts) Withdraw(_ context.Context, args WithdrawArgs) (map[string]int, error) {
	a.withdrawals.Add(1)
	return map[string]int{"new_balance": 500 - args.Amount}, nil
}

func (a *accounts) CreateTypedAccount(_ context.Context, args CreateAccountArgs) (string, error) {
	a.creations.Add(1)
	return args.Kind + ":" + args.Owner, nil
}

func (a *accounts) Operations() []enforce.Operation {
	return []enforce.Operation{
		enforce.Op("withdraw", a.Withdraw),
		enforce.OpWithSubtype("create_typed_account", a.CreateTypedAccount,
			func(args CreateAccountArgs) string { return args.Kind }),
	}
}

type flagFunc func(ctx context.Context, name string) (bool, error)

func (f flagFunc) IsEnabled(ctx context.Context, name string) (bool, error) { return f(ctx, name) }

type lookupFunc func(ctx context.Context, layer requirements.Layer, op string) ([]requirements.Entry, error)

func (f lookupFunc) RequirementsFor(ctx context.Context, layer requirements.Layer, op string) ([]requirements.Entry, error) {
	return f(ctx, layer, op)
}
