package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"wallet_reconciler/internal/client"
	"wallet_reconciler/internal/config"
	"wallet_reconciler/internal/domain/entity"
	"wallet_reconciler/internal/infrastructure/restapi"
	"wallet_reconciler/internal/overlay"
	"wallet_reconciler/internal/pkg/utils"
	"wallet_reconciler/internal/reconcile"
	"wallet_reconciler/internal/service"
	"wallet_reconciler/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"golang.org/x/time/rate"
)

func main() {
	// Bootstrap logging: logrus for config-load messages, zap for everything else.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(slogHandler))

	// Load configuration
	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	// Reconciliation engine and overlay state
	engine := reconcile.NewEngine(reconcile.SelectorConfig{
		GoodAddresses: cfg.Selector.GoodAddresses,
	}, zapLogger)
	store := overlay.NewStore()

	// Outbound clients
	walletAPIClient := client.NewWalletAPIClient(
		cfg.WalletAPI.BaseURL,
		time.Duration(cfg.WalletAPI.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	overlayTimeout := time.Duration(cfg.Overlay.RequestTimeoutMillis) * time.Millisecond
	sources := make(map[entity.ProviderType]overlay.BalanceSource)
	if cfg.Overlay.SolanaRPCURL != "" {
		sources[entity.ProviderSolana] = client.NewSolanaRPCClient(cfg.Overlay.SolanaRPCURL, overlayTimeout, zapLogger)
	}
	if cfg.Overlay.ZcashExplorerURL != "" {
		sources[entity.ProviderZcash] = client.NewZcashExplorerClient(cfg.Overlay.ZcashExplorerURL, overlayTimeout, zapLogger)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	refresher := overlay.NewRefresher(store, sources, limiter, overlayTimeout, zapLogger)

	walletSvc := service.NewWalletService(walletAPIClient, engine, store, cfg, zapLogger)
	zapLogger.Info("WalletService initialized")

	// The refresher only commits results for wallets still in the eligible
	// set at commit time.
	refresher.SetEligibilityGuard(func() map[string]struct{} {
		eligible := refresher.Eligible(walletSvc.CanonicalWallets())
		keys := make(map[string]struct{}, len(eligible))
		for _, w := range eligible {
			keys[w.OverlayKey()] = struct{}{}
		}
		return keys
	})

	scheduler := overlay.NewScheduler(
		refresher,
		walletSvc.CanonicalWallets,
		time.Duration(cfg.Overlay.RefreshIntervalSeconds)*time.Second,
		zapLogger,
	)
	walletSvc.SetReconcileHook(scheduler.Poke)
	scheduler.Start()

	// Hydrate the wallet set in the background so the first request does not
	// pay the full load latency.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := walletSvc.RefreshWallets(ctx); err != nil {
			zapLogger.Error("Initial wallet load failed", zap.Error(err))
		} else {
			zapLogger.Info("Initial wallet load completed")
		}
	}()

	// Initialize Gin router
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true // Adjust for production
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(utils.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	walletHandler := restapi.NewWalletHandler(walletSvc)
	restapi.RegisterRoutes(router, walletHandler)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down...")

	scheduler.Stop()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
