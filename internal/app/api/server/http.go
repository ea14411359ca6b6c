package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/api/handlers"
	mw "github.com/vipgate/vipgate/internal/app/api/middleware"
	"github.com/vipgate/vipgate/internal/app/bot"
	nh "github.com/vipgate/vipgate/internal/app/service/notification_handler"
	"github.com/vipgate/vipgate/internal/app/service/statistics"
	"github.com/vipgate/vipgate/internal/app/service/sweeper"
	"github.com/vipgate/vipgate/internal/store"
	cfgpkg "github.com/vipgate/vipgate/pkg/config"
	"github.com/vipgate/vipgate/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger and access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	m *metrics.Metrics,
	notifHandler *nh.NotificationHandler,
	dispatcher *bot.Dispatcher,
	st store.Store,
	stats *statistics.Service,
	sw *sweeper.Sweeper,
) {
	if cfg != nil && cfg.MetricsAddr != "" {
		r.Use(m.GinMiddleware())
		m.ListenAndServe(cfg.MetricsAddr, log)
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)

	// Bot updates pushed by Telegram
	tg := r.Group("/telegram")
	tg.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterTelegramRoutes(tg, dispatcher, log)

	// Payment gateway callbacks
	payment := r.Group("/api/v1/payment/webhook")
	payment.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterPaymentWebhookRoutes(payment, notifHandler)

	// Admin APIs
	admin := r.Group("/api/v1/admin")
	admin.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterAdminRoutes(admin, st, stats, sw)
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
