package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/magnani/vip-club/backend/internal/adapters/syncpay"
	"github.com/magnani/vip-club/backend/internal/catalog"
	"github.com/magnani/vip-club/backend/internal/checkout"
	"github.com/magnani/vip-club/backend/internal/config"
	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/middleware"
	"github.com/magnani/vip-club/backend/internal/ports"
	"github.com/magnani/vip-club/backend/internal/storefront"
)

// fakeGateway conta as chamadas e devolve charge/err
type fakeGateway struct {
	calls  atomic.Int32
	charge *domain.PixCharge
	err    error
}

func (g *fakeGateway) CreateCharge(ctx context.Context, req domain.PaymentRequest) (*domain.PixCharge, error) {
	g.calls.Add(1)
	return g.charge, g.err
}

func okGateway() *fakeGateway {
	return &fakeGateway{charge: &domain.PixCharge{
		TransactionID:     "tx-123",
		PaymentCode:       "00020126PIXCODE",
		PaymentCodeBase64: "iVBORw0KGgo=",
		Status:            domain.ChargeStatusPending,
	}}
}

const validBody = `{"amount":29.90,"customerName":"Maria Silva","customerEmail":"maria@example.com","customerCpf":"123.456.789-09","customerPhone":"(11) 98765-4321"}`

func newTestRouter(gw ports.PixGateway, limiter middleware.Limiter) (http.Handler, *storefront.Registry) {
	payments := NewPaymentHandler(gw, zap.NewNop())

	p := domain.NewProduct("ana", "Ana VIP", decimal.RequireFromString("29.90"))
	p.DeliverableLink = "https://t.me/+ana"
	registry := storefront.NewRegistry(
		storefront.NewCookieStore("test-secret-0123456789abcdef", false, time.Hour),
		catalog.New(p),
		payments.Local(),
		zap.NewNop(),
		checkout.WithCopiedResetDelay(50*time.Millisecond),
	)

	webhook := syncpay.NewWebhookHandler("whsec", zap.NewNop())
	webhook.OnPaymentConfirmed = ConfirmPayment(registry, zap.NewNop())

	return NewRouter(Routes{
		Payments: payments,
		Checkout: NewCheckoutHandler(registry, zap.NewNop()),
		Webhook:  webhook,
		Limiter:  limiter,
		Logger:   zap.NewNop(),
	}), registry
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder) ports.ChargeReply {
	t.Helper()
	var reply ports.ChargeReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	return reply
}

func TestCreatePixPayment_Preflight(t *testing.T) {
	gw := okGateway()
	router, _ := newTestRouter(gw, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/functions/v1/create-pix-payment", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Zero(t, gw.calls.Load())
}

func TestCreatePixPayment(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		gateway    *fakeGateway
		wantStatus int
		wantReply  ports.ChargeReply
		wantCalls  int32
	}{
		{
			name:       "success",
			body:       validBody,
			gateway:    okGateway(),
			wantStatus: http.StatusOK,
			wantReply: ports.ChargeReply{
				Success:           true,
				PaymentCode:       "00020126PIXCODE",
				PaymentCodeBase64: "iVBORw0KGgo=",
				TransactionID:     "tx-123",
				Status:            "PENDING",
			},
			wantCalls: 1,
		},
		{
			name:       "amount below minimum",
			body:       strings.Replace(validBody, "29.90", "0.50", 1),
			gateway:    okGateway(),
			wantStatus: http.StatusBadRequest,
			wantReply:  ports.ChargeReply{Error: "Valor mínimo é R$ 1,00", ErrorKind: domain.KindValidation},
		},
		{
			name:       "invalid cpf",
			body:       strings.Replace(validBody, "123.456.789-09", "123", 1),
			gateway:    okGateway(),
			wantStatus: http.StatusBadRequest,
			wantReply:  ports.ChargeReply{Error: "CPF inválido", ErrorKind: domain.KindValidation},
		},
		{
			name:       "missing fields",
			body:       `{"amount":29.90}`,
			gateway:    okGateway(),
			wantStatus: http.StatusBadRequest,
			wantReply:  ports.ChargeReply{Error: "Preencha todos os campos", ErrorKind: domain.KindValidation},
		},
		{
			name:       "malformed json",
			body:       `{"amount":`,
			gateway:    okGateway(),
			wantStatus: http.StatusBadRequest,
			wantReply:  ports.ChargeReply{Error: "Requisição inválida", ErrorKind: domain.KindValidation},
		},
		{
			name:       "not configured",
			body:       validBody,
			gateway:    &fakeGateway{err: domain.ErrNotConfigured},
			wantStatus: http.StatusInternalServerError,
			wantReply:  ports.ChargeReply{Error: "Payment service not configured", ErrorKind: domain.KindConfiguration},
			wantCalls:  1,
		},
		{
			name:       "provider body never leaks",
			body:       validBody,
			gateway:    &fakeGateway{err: &syncpay.ChargeError{Status: 422, Body: `{"secret":"detalhe interno"}`}},
			wantStatus: http.StatusBadRequest,
			wantReply:  ports.ChargeReply{Error: "Falha ao criar pagamento PIX", ErrorKind: domain.KindCharge},
			wantCalls:  1,
		},
		{
			name:       "auth failure",
			body:       validBody,
			gateway:    &fakeGateway{err: &syncpay.AuthError{Status: 401}},
			wantStatus: http.StatusBadRequest,
			wantReply:  ports.ChargeReply{Error: "Falha na autenticação com gateway de pagamento", ErrorKind: domain.KindAuthentication},
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(tt.gateway, nil)

			req := httptest.NewRequest(http.MethodPost, "/functions/v1/create-pix-payment", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantReply, decodeReply(t, w))
			assert.NotContains(t, w.Body.String(), "detalhe interno")
			assert.Equal(t, tt.wantCalls, tt.gateway.calls.Load())
		})
	}
}

func TestCreatePixPayment_GatewayValidationLoggedAsInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gw := &fakeGateway{err: domain.ErrAmountTooLow}
	router := NewRouter(Routes{Payments: NewPaymentHandler(gw, zap.New(core))})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/functions/v1/create-pix-payment", strings.NewReader(validBody)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valor mínimo é R$ 1,00", decodeReply(t, w).Error)
	assert.Equal(t, 1, logs.FilterMessage("cobrança rejeitada pelo gateway").Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestCreatePixPayment_AliasRoute(t *testing.T) {
	router, _ := newTestRouter(okGateway(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/create-pix-payment", strings.NewReader(validBody)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeReply(t, w).Success)
}

func TestCreatePixPayment_EndToEndNotConfigured(t *testing.T) {
	client, err := syncpay.NewClient(&config.SyncPayConfig{BaseURL: "http://127.0.0.1:1"}, config.StaticCredentials("", ""))
	require.NoError(t, err)
	router, _ := newTestRouter(client, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/functions/v1/create-pix-payment", strings.NewReader(validBody)))

	reply := decodeReply(t, w)
	assert.False(t, reply.Success)
	assert.Equal(t, "Payment service not configured", reply.Error)
}

func TestCreatePixPayment_RateLimited(t *testing.T) {
	gw := okGateway()
	router, _ := newTestRouter(gw, middleware.NewMemoryLimiter(1, time.Minute))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/functions/v1/create-pix-payment", strings.NewReader(validBody)))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, int32(1), gw.calls.Load())
}

func TestCreatePixPayment_AliasRoutesShareBudget(t *testing.T) {
	gw := okGateway()
	router, _ := newTestRouter(gw, middleware.NewMemoryLimiter(2, time.Minute))

	paths := []string{"/functions/v1/create-pix-payment", "/api/create-pix-payment"}
	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, paths[i%2], strings.NewReader(validBody))
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	assert.Equal(t, int32(2), gw.calls.Load())
}

func TestCheckoutOpen_RateLimited(t *testing.T) {
	router, registry := newTestRouter(okGateway(), middleware.NewMemoryLimiter(2, time.Minute))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout/ana", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, registry.Len())
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(okGateway(), nil)
	for _, path := range []string{"/health", "/api/health"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","service":"vip-club-api"}`, w.Body.String())
	}
}

// browser guarda os cookies entre requisições
type browser struct {
	t       *testing.T
	router  http.Handler
	cookies []*http.Cookie
}

func (b *browser) do(method, path, body string) (*httptest.ResponseRecorder, checkout.View) {
	b.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	if cs := w.Result().Cookies(); len(cs) > 0 {
		b.cookies = cs
	}

	var v checkout.View
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		json.Unmarshal(w.Body.Bytes(), &v)
	}
	return w, v
}

func TestCheckoutFlow(t *testing.T) {
	gw := okGateway()
	router, registry := newTestRouter(gw, nil)
	b := &browser{t: t, router: router}

	w, _ := b.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = b.do(http.MethodPost, "/api/checkout/desconhecido", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, v := b.do(http.MethodPost, "/api/checkout/ana", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StateForm, v.State)
	assert.Equal(t, "R$ 29,90", v.Product.PriceLabel)

	// Envio sem dados
	w, v = b.do(http.MethodPost, "/api/checkout/submit", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, v.Notice)
	assert.Equal(t, "Preencha todos os campos", v.Notice.Message)
	assert.Zero(t, gw.calls.Load())

	w, v = b.do(http.MethodPut, "/api/checkout/fields", `{"name":"Maria Silva","email":"maria@example.com","cpf":"12345678909","phone":"11987654321"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "123.456.789-09", v.Fields.Document)
	assert.Equal(t, "(11) 98765-4321", v.Fields.Phone)

	w, v = b.do(http.MethodPost, "/api/checkout/submit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StateShown, v.State)
	assert.Equal(t, "Pagamento PIX gerado!", v.Notice.Message)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", v.Charge.QRCodeImage)
	assert.Equal(t, int32(1), gw.calls.Load())

	w, v = b.do(http.MethodPost, "/api/checkout/submit", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(1), gw.calls.Load())

	w, v = b.do(http.MethodPost, "/api/checkout/copy", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, v.Copied)
	assert.Equal(t, "Código PIX copiado!", v.Notice.Message)

	// Webhook assinado confirma a transação
	payload := `{"data":{"idTransaction":"tx-123","status_transaction":"PAID"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/syncpay", strings.NewReader(payload))
	req.Header.Set(syncpay.SignatureHeader, syncpay.Sign("whsec", []byte(payload)))
	ww := httptest.NewRecorder()
	router.ServeHTTP(ww, req)
	require.Equal(t, http.StatusOK, ww.Code)

	_, v = b.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, checkout.StateConfirmed, v.State)
	assert.Equal(t, "https://t.me/+ana", v.DeliveryLink)

	w, v = b.do(http.MethodDelete, "/api/checkout", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StateForm, v.State)
	assert.Nil(t, v.Charge)
	assert.Nil(t, v.Product)
	assert.Equal(t, 1, registry.Len())
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	router, _ := newTestRouter(okGateway(), nil)

	payload := `{"data":{"idTransaction":"tx-123","status_transaction":"PAID"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/syncpay", strings.NewReader(payload))
	req.Header.Set(syncpay.SignatureHeader, "deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_NotMountedWithoutHandler(t *testing.T) {
	router := NewRouter(Routes{Payments: NewPaymentHandler(okGateway(), nil)})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/webhooks/syncpay", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
