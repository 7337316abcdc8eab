// Package main é o ponto de entrada da API VIP Club
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/adapters/syncpay"
	"github.com/magnani/vip-club/backend/internal/catalog"
	"github.com/magnani/vip-club/backend/internal/config"
	"github.com/magnani/vip-club/backend/internal/handlers"
	"github.com/magnani/vip-club/backend/internal/middleware"
	"github.com/magnani/vip-club/backend/internal/ports"
	"github.com/magnani/vip-club/backend/internal/storefront"
)

// pruneInterval é o intervalo da limpeza de sessões e do rate limit em memória
const pruneInterval = 5 * time.Minute

func main() {
	// Carrega configurações antes do logger: ENV pode vir do .env
	cfg, err := config.Load()

	logger := newLogger(os.Getenv("ENV"))
	defer logger.Sync()

	logger.Info("💎 Iniciando VIP Club API...")
	if err != nil {
		logger.Fatal("❌ Erro ao carregar configurações", zap.Error(err))
	}

	logger.Info("📦 Ambiente", zap.String("env", cfg.Env))
	logger.Info("🔗 SyncPayments", zap.String("base_url", cfg.SyncPay.BaseURL))

	if creds, _ := config.EnvCredentials(context.Background()); !creds.Complete() {
		logger.Error("⚠️  Credenciais SyncPayments ausentes: cobranças responderão 'Payment service not configured'")
	}

	// Cliente SyncPayments (credenciais lidas a cada cobrança)
	client, err := syncpay.NewClient(&cfg.SyncPay, config.EnvCredentials, syncpay.WithLogger(logger.Named("syncpay")))
	if err != nil {
		logger.Fatal("❌ Erro ao inicializar cliente SyncPayments", zap.Error(err))
	}
	logger.Info("✅ Cliente SyncPayments inicializado")

	products, err := loadCatalog(cfg, logger)
	if err != nil {
		logger.Fatal("❌ Erro ao carregar catálogo", zap.Error(err))
	}

	payments := handlers.NewPaymentHandler(client, logger.Named("payments"))

	sessionSecret := cfg.Checkout.SessionSecret
	if sessionSecret == "" {
		sessionSecret = randomSecret()
		logger.Warn("⚠️  SESSION_SECRET não definido: usando secret temporário")
	}
	registry := storefront.NewRegistry(
		storefront.NewCookieStore(sessionSecret, cfg.IsProduction(), cfg.Checkout.SessionTTL),
		products,
		payments.Local(),
		logger.Named("checkout"),
	)

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	proxies, err := middleware.NewProxyResolver(cfg.RateLimit.TrustedProxies)
	if err != nil {
		logger.Fatal("❌ TRUSTED_PROXIES inválido", zap.Error(err))
	}

	// Webhook SyncPayments (só registra com secret configurado)
	var webhook http.Handler
	if cfg.Webhook.Secret != "" {
		wh := syncpay.NewWebhookHandler(cfg.Webhook.Secret, logger.Named("webhook"))
		wh.OnPaymentConfirmed = handlers.ConfirmPayment(registry, logger)
		webhook = wh
		logger.Info("📨 Webhook endpoint registrado: /api/webhooks/syncpay")
	} else {
		logger.Warn("⚠️  WEBHOOK_SECRET não definido: confirmação de pagamento desativada")
	}

	router := handlers.NewRouter(handlers.Routes{
		Payments: payments,
		Checkout: handlers.NewCheckoutHandler(registry, logger.Named("checkout")),
		Webhook:  webhook,
		Limiter:  limiter,
		Proxies:  proxies,
		Logger:   logger.Named("http"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go prune(ctx, registry, limiter, cfg.Checkout.SessionTTL, logger)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 Servidor rodando em http://localhost" + addr)
		logger.Info("🏥 Health check: http://localhost" + addr + "/health")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("❌ Erro ao iniciar servidor", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("🛑 Encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Erro ao encerrar servidor", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "" || env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewExample()
	}
	return logger
}

// loadCatalog usa CATALOG_FILE ou o perfil padrão
func loadCatalog(cfg *config.Config, logger *zap.Logger) (ports.Catalog, error) {
	if cfg.Checkout.CatalogFile == "" {
		logger.Info("🛍️  Catálogo padrão", zap.String("slug", catalog.DefaultSlug))
		return catalog.Default(cfg.Checkout.DeliverableLink), nil
	}

	c, err := catalog.LoadFile(cfg.Checkout.CatalogFile)
	if err != nil {
		return nil, err
	}
	products, _ := c.List(context.Background())
	logger.Info("🛍️  Catálogo carregado",
		zap.String("file", cfg.Checkout.CatalogFile),
		zap.Int("products", len(products)),
	)
	return c, nil
}

// newLimiter usa Redis quando REDIS_URL está definido, senão memória
func newLimiter(cfg *config.Config, logger *zap.Logger) (middleware.Limiter, func()) {
	if cfg.RateLimit.RedisURL != "" {
		l, err := middleware.NewRedisLimiter(cfg.RateLimit.RedisURL, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err == nil {
			logger.Info("🧱 Rate limit via Redis")
			return l, func() { l.Close() }
		}
		logger.Warn("⚠️  Redis indisponível, usando rate limit em memória", zap.Error(err))
	}
	return middleware.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window), func() {}
}

// prune remove sessões ociosas e chaves antigas do rate limit
func prune(ctx context.Context, registry *storefront.Registry, limiter middleware.Limiter, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Prune(ttl); n > 0 {
				logger.Debug("sessões ociosas removidas", zap.Int("count", n))
			}
			if m, ok := limiter.(*middleware.MemoryLimiter); ok {
				m.Cleanup()
			}
		}
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "vip-club-dev-secret"
	}
	return hex.EncodeToString(b)
}
