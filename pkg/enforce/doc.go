// Package enforce gates operations behind feature flags.
//
// An operation is identified by the layer it runs on (repository, service or
// api), its name and, optionally, a subtype derived from its arguments. The
// requirements matrix maps such calls to flags; a call runs only if every
// applicable flag is enabled.
//
// Guard implements the decision. Interceptor wraps a Provider, a value that
// lists its operations, and runs the guard before forwarding each call. It is
// itself a Provider, so the same service can be gated on several layers:
//
//	repo := enforce.Operations{
//		enforce.Op("withdraw", accounts.Withdraw),
//	}
//	repoGate, err := enforce.New(repo, enforce.LayerRepository, evaluator, resolver)
//	...
//	svcGate, err := enforce.New(service.Ops(repoGate), enforce.LayerService, evaluator, resolver)
//	...
//	balance, err := enforce.Invoke[int](ctx, svcGate, "withdraw", WithdrawArgs{Account: "savings", Amount: 50})
//	if errors.Is(err, enforce.ErrFeatureDisabled) {
//		// blocked
//	}
//
// When no subtype can be determined for a call every rule for the operation
// applies. Failures to load the matrix or evaluate a flag deny the call and
// are returned as is.
//
// Middleware applies a Guard to an http.Handler for the api layer.
package enforce
