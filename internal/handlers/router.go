package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/middleware"
)

// Routes reúne os handlers montados pelo router
type Routes struct {
	Payments *PaymentHandler
	Checkout *CheckoutHandler

	// Webhook só é montado quando não é nil
	Webhook http.Handler

	// Limiter protege os endpoints que geram cobrança ou sessão (opcional)
	Limiter middleware.Limiter

	// Proxies resolve o IP do cliente atrás de proxies confiáveis (opcional)
	Proxies *middleware.ProxyResolver

	Logger *zap.Logger
}

// NewRouter monta o router da API com CORS e log de requisições
func NewRouter(rt Routes) http.Handler {
	logger := rt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/health", HealthCheck).Methods(http.MethodGet)

	// Endpoints que geram cobrança ou sessão passam pelo rate limit.
	// Todas as rotas de cobrança dividem o bucket "charge".
	limited := func(bucket string, h http.HandlerFunc) http.Handler {
		if rt.Limiter == nil {
			return h
		}
		return middleware.RateLimit(rt.Limiter, logger,
			middleware.WithBucket(bucket),
			middleware.WithProxies(rt.Proxies),
		)(h)
	}

	if rt.Payments != nil {
		r.Handle("/functions/v1/create-pix-payment", limited("charge", rt.Payments.CreatePixPayment)).Methods(http.MethodPost)
		r.Handle("/api/create-pix-payment", limited("charge", rt.Payments.CreatePixPayment)).Methods(http.MethodPost)
	}

	if rt.Checkout != nil {
		c := r.PathPrefix("/api/checkout").Subrouter()
		c.HandleFunc("", rt.Checkout.Get).Methods(http.MethodGet)
		c.HandleFunc("", rt.Checkout.Close).Methods(http.MethodDelete)
		c.HandleFunc("/fields", rt.Checkout.UpdateFields).Methods(http.MethodPut)
		c.Handle("/submit", limited("charge", rt.Checkout.Submit)).Methods(http.MethodPost)
		c.HandleFunc("/copy", rt.Checkout.Copy).Methods(http.MethodPost)
		c.Handle("/{slug}", limited("checkout-open", rt.Checkout.Open)).Methods(http.MethodPost)
	}

	if rt.Webhook != nil {
		r.Handle("/api/webhooks/syncpay", rt.Webhook).Methods(http.MethodPost)
	}

	return middleware.CORS(middleware.Logging(logger)(r))
}
