package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/ports"
)

func boundaryRequest() domain.PaymentRequest {
	return domain.PaymentRequest{
		Amount:           decimal.RequireFromString("29.90"),
		CustomerName:     "Maria Silva",
		CustomerEmail:    "maria@example.com",
		CustomerDocument: "123.456.789-09",
		CustomerPhone:    "(11) 98765-4321",
		IdempotencyKey:   "key-1",
	}
}

func TestHTTPBoundary_Success(t *testing.T) {
	var (
		got ports.ChargeRequest
		raw string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		raw = string(b)
		assert.NoError(t, json.Unmarshal(b, &got))

		json.NewEncoder(w).Encode(ports.ChargeReply{
			Success:           true,
			PaymentCode:       "000201",
			PaymentCodeBase64: "iVBOR",
			TransactionID:     "tx-1",
			Status:            "PENDING",
		})
	}))
	defer srv.Close()

	b := NewHTTPBoundary(srv.URL, srv.Client()).WithAPIKey("anon-key")
	charge, err := b.RequestCharge(context.Background(), boundaryRequest())
	require.NoError(t, err)

	assert.Equal(t, "tx-1", charge.TransactionID)
	assert.Equal(t, "000201", charge.PaymentCode)
	assert.Equal(t, domain.ChargeStatusPending, charge.Status)

	assert.Contains(t, raw, `"amount":29.90`)
	assert.True(t, decimal.RequireFromString("29.90").Equal(got.Amount))
	assert.Equal(t, "123.456.789-09", got.CustomerCPF)
	assert.Equal(t, "key-1", got.IdempotencyKey)
}

func TestHTTPBoundary_AmountIsJSONNumber(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"29.9", `"amount":29.90`},
		{"1", `"amount":1.00`},
		{"150.5", `"amount":150.50`},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			var raw []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ = io.ReadAll(r.Body)
				json.NewEncoder(w).Encode(ports.ChargeReply{Success: true, PaymentCode: "000201", TransactionID: "tx-1"})
			}))
			defer srv.Close()

			req := boundaryRequest()
			req.Amount = decimal.RequireFromString(tt.amount)
			_, err := NewHTTPBoundary(srv.URL, srv.Client()).RequestCharge(context.Background(), req)
			require.NoError(t, err)

			assert.Contains(t, string(raw), tt.want)
			assert.NotContains(t, string(raw), `"amount":"`)
		})
	}
}

func TestHTTPBoundary_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domain.ErrorKind
		wantMsg  string
	}{
		{
			name:     "server reports not configured",
			status:   http.StatusInternalServerError,
			body:     `{"success":false,"error":"Payment service not configured","errorKind":"configuration"}`,
			wantKind: domain.KindConfiguration,
			wantMsg:  "Payment service not configured",
		},
		{
			name:     "server reports charge failure",
			status:   http.StatusBadRequest,
			body:     `{"success":false,"error":"Falha ao criar pagamento PIX","errorKind":"charge"}`,
			wantKind: domain.KindCharge,
			wantMsg:  "Falha ao criar pagamento PIX",
		},
		{
			name:     "success without code",
			status:   http.StatusOK,
			body:     `{"success":true}`,
			wantKind: domain.KindCharge,
			wantMsg:  domain.MsgCharge,
		},
		{
			name:     "not json",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantKind: domain.KindNetwork,
			wantMsg:  domain.MsgNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPBoundary(srv.URL, srv.Client()).RequestCharge(context.Background(), boundaryRequest())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			assert.Equal(t, tt.wantMsg, domain.UserMessage(err))
		})
	}
}

func TestHTTPBoundary_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewHTTPBoundary(srv.URL, nil).RequestCharge(context.Background(), boundaryRequest())
	require.ErrorIs(t, err, domain.ErrNetwork)
}
