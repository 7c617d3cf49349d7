// Package logger builds slog loggers for featuregate and provides attribute
// helpers shared by the enforcement, resolver and admin API logs.
//
// New returns a *slog.Logger configured through Option functions. Output is
// JSON at info level unless WithFormat, WithLevel or WithEnvironment say
// otherwise. ContextExtractor callbacks registered with WithContextExtractors
// run on every record and add attributes taken from the record context, for
// example the request id set by the requestid middleware.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("FEATUREGATE_ENV"), "featuregate"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "feature disabled",
//		logger.Flag("SAVINGS_WITHDRAWALS_ENABLED"),
//		logger.Layer("repository"),
//		logger.Operation("withdraw"),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed without a nil check:
//
//	log.Info("requirements reloaded", logger.Error(err))
package logger
