package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harriteja/reqguard/pkg/logger"
	"github.com/harriteja/reqguard/pkg/metrics"
	"github.com/harriteja/reqguard/pkg/rulefile"
	"github.com/harriteja/reqguard/pkg/server/middleware"
	"github.com/harriteja/reqguard/pkg/server/transport"
	httpadapter "github.com/harriteja/reqguard/pkg/server/transport/http"
	"github.com/harriteja/reqguard/pkg/types"
)

func newServeCmd(cfg *configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routes declared in the rule file",
		Long: `Serve every route declared in the rule file behind its validators.
Accepted requests are answered with the sanitized fields; rejected ones with
{"status":400,"message":[...]}. The rule file is reloaded when it changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := cfg.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, conf)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Int64("max-body-bytes", 1<<20, "largest accepted request body")
	flags.Float64("rate-limit", 0, "requests per second, 0 disables limiting")
	flags.Int("rate-burst", 20, "rate limiter burst")
	flags.String("metrics-path", "/metrics", "Prometheus endpoint, empty disables it")
	flags.Bool("watch", true, "reload the rule file when it changes")
	flags.Float64("log-sampling", 0, "fraction of repeated validation log lines kept per second, 0 keeps all")
	cfg.bind(cmd, "addr", "max-body-bytes", "rate-limit", "rate-burst", "metrics-path", "watch", "log-sampling")
	return cmd
}

// service owns everything serve builds from a Config
type service struct {
	conf       *Config
	log        types.Logger
	watcherLog types.Logger
	httpLog    *zap.Logger
	server     *httpadapter.Server
	deps       routerDeps
	wrapper    middleware.Middleware
}

func newService(conf *Config, loggers *logger.ZapLoggerFactory, reg *prometheus.Registry) (*service, error) {
	httpLog, err := loggers.Zap("http")
	if err != nil {
		return nil, err
	}
	log := loggers.CreateLogger("server")
	guardLog := loggers.CreateLogger("guard").WithSampling(conf.LogSampling)

	recorder, err := metrics.NewPrometheusRecorder(metrics.RecorderOptions{Registerer: reg})
	if err != nil {
		return nil, err
	}
	httpMetrics, err := middleware.MetricsMiddleware(middleware.MetricsConfig{
		Registry:     reg,
		Namespace:    "reqguard",
		Subsystem:    "http",
		ExcludePaths: []string{conf.MetricsPath},
	})
	if err != nil {
		return nil, err
	}

	chain := []middleware.Middleware{
		middleware.RecoveryMiddleware(middleware.RecoveryConfig{Logger: httpLog}),
		middleware.LoggingMiddleware(middleware.LoggingConfig{Logger: httpLog, SkipPaths: []string{"/health", conf.MetricsPath}}),
		httpMetrics,
	}
	if conf.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(conf.RateLimit, conf.RateBurst))
	}
	chain = append(chain, middleware.MaxBodySize(conf.MaxBodyBytes))

	s := &service{
		conf:       conf,
		log:        log,
		watcherLog: loggers.CreateLogger("watcher"),
		httpLog:    httpLog,
		deps: routerDeps{
			guardOpts: []transport.Option{
				transport.WithLogger(guardLog),
				transport.WithRecorder(recorder),
				transport.WithMaxBodyBytes(conf.MaxBodyBytes),
			},
			metricsPath:    conf.MetricsPath,
			metricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		},
		wrapper: middleware.Chain(chain...),
	}
	s.server = httpadapter.NewServer(nil, httpadapter.ServerOptions{
		Address: conf.Addr,
		Logger:  log,
	})
	return s, nil
}

func (s *service) flush() {
	_ = s.httpLog.Sync()
	_ = s.log.Flush()
	_ = s.watcherLog.Flush()
}

// apply swaps in the routes of file; requests in flight finish on the old ones
func (s *service) apply(file *rulefile.File) error {
	router, err := buildRouter(file, s.deps)
	if err != nil {
		return err
	}
	s.server.SetHandler(s.wrapper(router))
	return nil
}

func (s *service) reload(file *rulefile.File) {
	if err := s.apply(file); err != nil {
		s.log.Error("Failed to apply reloaded rules, keeping previous routes",
			types.LogField{Key: "error", Value: err.Error()})
	}
}

func runServe(ctx context.Context, conf *Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := newService(conf, logger.NewFactoryFromLevel(conf.LogLevel, conf.Dev), reg)
	if err != nil {
		return err
	}
	defer s.flush()
	logger.SetDefaultLogger(s.log)

	file, err := rulefile.Load(conf.Rules)
	if err != nil {
		return err
	}
	if err := s.apply(file); err != nil {
		return err
	}
	s.log.Info("Rules loaded",
		types.LogField{Key: "rules", Value: conf.Rules},
		types.LogField{Key: "rulesets", Value: len(file.RuleSets)},
		types.LogField{Key: "routes", Value: len(file.Routes)},
	)

	if conf.Watch {
		w, err := rulefile.NewWatcher(conf.Rules, s.reload, rulefile.WithWatcherLogger(s.watcherLog))
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				s.watcherLog.Error("Rule file watcher stopped", types.LogField{Key: "error", Value: err.Error()})
			}
		}()
	}

	return s.server.Start(ctx)
}
