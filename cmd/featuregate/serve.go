package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/featuregate/pkg/config"
	"github.com/dmitrymomot/featuregate/pkg/featureapi"
	"github.com/dmitrymomot/featuregate/pkg/httpserver"
	"github.com/dmitrymomot/featuregate/pkg/logger"
	"github.com/dmitrymomot/featuregate/pkg/metrics"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

const healthCheckTimeout = 2 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP API",
		Long: `Serve the flag administration API under /admin, Prometheus metrics under
/metrics and a readiness probe under /healthz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var httpCfg httpserver.Config
			if err := config.Load(&httpCfg); err != nil {
				return err
			}

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			reg := prometheus.NewRegistry()
			handler, err := a.serveHandler(ctx, reg)
			if err != nil {
				return err
			}

			srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx, handler) })
			if cfg.Watch {
				g.Go(func() error {
					return requirements.Watch(ctx, cfg.RequirementsFile, a.resolver, log.With(logger.Component("watch")))
				})
			}
			return g.Wait()
		},
	}
}

// serveHandler opens the store and resolver and assembles the HTTP routes.
func (a *app) serveHandler(ctx context.Context, reg *prometheus.Registry) (http.Handler, error) {
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := a.openResolver(ctx, requirements.WithObserver(collector))
	if err != nil {
		return nil, err
	}
	a.checks["requirements"] = func(ctx context.Context) error {
		_, err := resolver.All(ctx)
		return err
	}

	opts := []featureapi.Option{
		featureapi.WithLogger(a.log.With(logger.Component("featureapi"))),
		featureapi.WithObserver(collector),
	}
	if a.cached != nil {
		opts = append(opts, featureapi.WithFlagChangeHook(a.cached.Forget))
	}
	api := featureapi.New(store, a.eval, resolver, opts...)

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthHandler(a.log, healthCheckTimeout, a.checks))
	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/admin", api.Router())
	return r, nil
}
