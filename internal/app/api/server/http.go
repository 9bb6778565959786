package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/feiralivre/monetize/internal/app/api/handlers"
	mw "github.com/feiralivre/monetize/internal/app/api/middleware"
	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/internal/app/service/affiliate"
	"github.com/feiralivre/monetize/internal/app/service/catalog"
	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/internal/app/service/renewal"
	"github.com/feiralivre/monetize/internal/app/service/stats"
	cfgpkg "github.com/feiralivre/monetize/pkg/config"
	metrics "github.com/feiralivre/monetize/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config,
	led *ledger.Service, cat *catalog.Service, act *activation.Service,
	ren *renewal.Service, aff *affiliate.Service, st *stats.Service) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)

	// Payment processor callbacks, authenticated by the gateway before us
	webhooks := r.Group("/webhooks")
	webhooks.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterWebhookRoutes(webhooks, act)

	// User-facing APIs behind the principal header
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.PrincipalMiddleware())
	handlers.RegisterCreditRoutes(apiV1.Group("/credits"), led, act)
	handlers.RegisterActivationRoutes(apiV1, act, cat)
	handlers.RegisterRenewalRoutes(apiV1, ren)
	handlers.RegisterAffiliateRoutes(apiV1.Group("/affiliates"), aff)

	// Back-office APIs
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), aff, led, st)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
