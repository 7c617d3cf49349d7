// Package requirements holds the feature requirements matrix: which flags gate
// which operations, on which layer, for which call subtypes.
//
// The matrix is kept outside of code in a Source (a YAML or JSON file, a
// database table, an object in S3) and served by a Resolver which caches the
// parsed form for a bounded time.
//
// Document format (YAML):
//
//	savings_withdrawals:
//	  service:
//	    withdraw: [savings]
//	  api:
//	    post_withdrawal: [savings]
//
// Every flag must be registered in the flag directory and every layer must be
// one of repository, service or api. A subtype list must not be empty.
//
// Basic usage:
//
//	resolver := requirements.NewResolver(
//		requirements.NewFileSource("config/requirements.yaml"),
//		directory,
//		requirements.WithTTL(30*time.Second),
//		requirements.WithLogger(log),
//	)
//
//	entries, err := resolver.RequirementsFor(ctx, requirements.LayerService, "withdraw")
//
// Resolver.Invalidate forces the next read to reload; Watch calls it whenever a
// file source changes on disk.
package requirements
