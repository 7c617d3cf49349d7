// Package feature holds the flag side of the enforcement engine: the catalog of
// known flags, their persisted state and the evaluator that answers whether a
// flag is enabled right now.
//
// # Architecture
//
// The package is built around three pieces:
//
//  1. Directory - the authoritative set of flag names with description and
//     default value. Flags are registered at startup.
//  2. Store - the system of record for flag state. It validates names against
//     the Directory and delegates persistence to a Storage backend
//     (MemoryStorage here; SQLite, PostgreSQL and Redis backends live in
//     sub-packages).
//  3. Evaluator - reads flag state through a Lookup and reports it. It never
//     falls back to a default: a missing flag is an error.
//
// Flags are never deleted. A retired flag is left permanently enabled or
// disabled so that requirement rules referencing it keep resolving.
//
// # Usage
//
//	dir, err := feature.NewDirectory(
//		feature.Definition{Name: "BANKING_ACCOUNT_TYPES_ENABLED", Description: "Typed accounts"},
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	storage, _ := feature.NewMemoryStorage()
//	store := feature.NewStore(dir, storage)
//	if _, err := store.Seed(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	eval := feature.NewEvaluator(store)
//	enabled, err := eval.IsEnabled(ctx, "BANKING_ACCOUNT_TYPES_ENABLED")
//
// # Error Handling
//
// Errors can be checked using errors.Is:
//
//	_, err := eval.IsEnabled(ctx, "NOT_REGISTERED")
//	if errors.Is(err, feature.ErrUnknownFlag) {
//		// configuration defect
//	}
//
// # Caching
//
// Store and Evaluator do not cache. Wrap the Store with NewCachedLookup when
// the backend is remote and a short propagation delay for toggles is acceptable.
package feature
