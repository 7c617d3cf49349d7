// Package httpserver runs the featuregate admin HTTP surface.
//
// Server binds its listener synchronously, so address errors surface from
// Run wrapped in ErrStart, then serves until the run context is canceled and
// shuts down within a configurable deadline. Signal handling is left to the
// caller, typically via signal.NotifyContext.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	err := srv.Run(ctx, router)
//
// HealthHandler aggregates named dependency checks into a readiness probe
// for the flag store and the requirements source.
package httpserver
