package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dms-be/internal/cart"
	"dms-be/internal/config"
	"dms-be/internal/coupon"
	"dms-be/internal/courier"
	"dms-be/internal/db"
	"dms-be/internal/hub"
	"dms-be/internal/logger"
	"dms-be/internal/middleware"
	"dms-be/internal/notification"
	"dms-be/internal/order"
	"dms-be/internal/transport"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

const shutdownTimeout = 10 * time.Second

// server holds the HTTP handler and the background loops it depends on.
type server struct {
	router  http.Handler
	hub     *hub.Hub
	relay   *hub.Relay
	limiter *middleware.Limiter
	closers []func() error
}

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	srv := newServer(cfg, database)
	defer srv.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.hub.Run(gctx)
		return nil
	})
	if srv.relay != nil {
		g.Go(func() error {
			srv.relay.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		srv.limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer stop()
		addr := ":" + cfg.AppPort
		logger.L().Info("http server listening", zap.String("addr", addr))
		return startServerFunc(gctx, addr, srv.router)
	})

	return g.Wait()
}

func newServer(cfg *config.Config, database *sql.DB) *server {
	log := logger.L()
	srv := &server{
		hub:     hub.New(),
		limiter: middleware.NewLimiter(),
	}

	var publisher hub.Publisher = srv.hub
	if client := connectRedis(cfg.RedisURL); client != nil {
		srv.relay = hub.NewRelay(srv.hub, client, cfg.HubChannel)
		srv.closers = append(srv.closers, client.Close)
		publisher = srv.relay
		log.Info("broadcast relay enabled", zap.String("channel", cfg.HubChannel))
	}

	var notifier notification.Dispatcher = notification.LogDispatcher{}
	if len(cfg.KafkaBrokers) > 0 {
		kd := notification.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
		srv.closers = append(srv.closers, kd.Close)
		notifier = kd
		log.Info("kafka notifications enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	announce := order.NewAnnouncer(publisher, notifier)
	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, order.NewTxRunner(database), announce, cfg.DeliveryFee)

	coordinator := courier.NewCoordinator(courier.NewTxRunner(database), announce)
	courierSvc := courier.NewService(courier.NewRepository(database), orderRepo)

	couponSvc := coupon.NewService(coupon.NewRepository(database))
	cartSvc := cart.NewService(cart.NewRepository(database))

	h := &transport.Handler{
		Orders:    orderSvc,
		Assign:    coordinator,
		Couriers:  courierSvc,
		Coupons:   couponSvc,
		Carts:     cartSvc,
		Hub:       srv.hub,
		Publisher: publisher,
	}

	srv.router = transport.NewRouter(transport.RouterConfig{
		JWTSecret:  cfg.JWTSecret,
		CORSOrigin: cfg.CORSOrigin,
		Limiter:    srv.limiter,
	}, h)
	return srv
}

// connectRedis returns nil when no URL is set or Redis is unreachable, in
// which case broadcasts stay local to this instance.
func connectRedis(url string) *redis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := db.NewRedis(ctx, url)
	if err != nil {
		logger.L().Warn("redis unavailable, broadcasts stay local", zap.Error(err))
		return nil
	}
	return client
}

func (s *server) close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			logger.L().Warn("close failed", zap.Error(err))
		}
	}
}

func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.L().Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
