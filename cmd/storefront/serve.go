package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/kv"
	"Storefront/internal/notify"
	"Storefront/internal/shop"
	"Storefront/pkg/kit"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, f)
		},
	}
}

func serve(ctx context.Context, f *rootFlags) error {
	cfg, log, err := f.load()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	content, closeContent, err := openContent(ctx, cfg.Content)
	if err != nil {
		log.Error("content store init failed", zap.Error(err))
		return err
	}
	defer closeContent()

	store, err := kv.Open(ctx, kv.Options{
		Backend:       cfg.Storage.Backend,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		SQLitePath:    cfg.Storage.SQLitePath,
		TTL:           cfg.Storage.TTL.Duration,
	})
	if err != nil {
		log.Error("kv store init failed", zap.Error(err))
		return err
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &shop.Server{
		Loader: catalog.NewLoader(content, log, reg),
		Cart: cart.NewService(cart.Deps{
			Store:    store,
			Notifier: notify.ContextNotifier{Log: log},
			Badges:   cart.NewBadges(),
			Log:      log,
			Registry: reg,
		}),
		Content:  content,
		KV:       store,
		Sessions: shop.NewSessions(cfg.SessionSecret(), cfg.Session.TTL.Duration, cfg.Session.Secure, log),
		Log:      log,
	}
	if n := cfg.RateLimit.WritesPerMinute; n > 0 {
		s.WriteLimiter = kit.NewIPRateLimiter(n, time.Minute)
	}

	h := shop.NewHandler(s, shop.HTTPDeps{
		Log:            log,
		Service:        cfg.Service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	log.Info("starting",
		zap.String("content", cfg.Content.Source),
		zap.String("storage", cfg.Storage.Backend),
	)
	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
		return err
	}
	return nil
}
