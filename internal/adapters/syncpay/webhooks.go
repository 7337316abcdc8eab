package syncpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/domain"
)

// SignatureHeader é o header com o HMAC-SHA256 (hex) do corpo
const SignatureHeader = "X-Signature"

// maxWebhookBody limita o corpo lido de um webhook
const maxWebhookBody = 1 << 20

// WebhookHandler processa webhooks recebidos da SyncPayments
type WebhookHandler struct {
	// OnPaymentConfirmed é chamado quando uma transação é informada como paga
	OnPaymentConfirmed func(ctx context.Context, confirmation PaymentConfirmation) error

	// OnError é chamado quando ocorre um erro durante o processamento
	OnError func(ctx context.Context, err error)

	// WebhookSecret é o secret usado para validar assinaturas
	WebhookSecret string

	// SkipSignatureValidation desabilita validação de assinatura (apenas para testes)
	SkipSignatureValidation bool

	logger *zap.Logger
}

// NewWebhookHandler cria um novo handler de webhook
func NewWebhookHandler(secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		WebhookSecret: secret,
		logger:        logger,
	}
}

// ServeHTTP é o handler HTTP para webhooks da SyncPayments
// Monte em POST /api/webhooks/syncpay
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !h.SkipSignatureValidation {
		if !h.ValidateSignature(body, r.Header.Get(SignatureHeader)) {
			h.logger.Warn("webhook com assinatura inválida", zap.String("remote_addr", r.RemoteAddr))
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.processEvent(ctx, event); err != nil {
		h.logger.Error("erro ao processar webhook", zap.Error(err))
		if h.OnError != nil {
			h.OnError(ctx, err)
		}
		// Retorna 200 para evitar retries do provedor
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// ValidateSignature valida a assinatura do webhook usando HMAC-SHA256.
// Sem secret configurado nenhuma assinatura é aceita.
func (h *WebhookHandler) ValidateSignature(body []byte, signature string) bool {
	if h.WebhookSecret == "" || signature == "" {
		return false
	}
	signature = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(signature)), "sha256=")

	return hmac.Equal([]byte(signature), []byte(Sign(h.WebhookSecret, body)))
}

// Sign calcula a assinatura hex de um corpo
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// processEvent roteia o evento para o callback apropriado
func (h *WebhookHandler) processEvent(ctx context.Context, event WebhookEvent) error {
	data := event.Data
	if data.IDTransaction == "" {
		h.logger.Warn("webhook sem idTransaction", zap.String("event", event.Event))
		return nil
	}

	status := domain.NormalizeStatus(data.StatusTransaction)
	h.logger.Info("webhook recebido",
		zap.String("transaction_id", string(data.IDTransaction)),
		zap.String("status", string(status)),
	)

	if status != domain.ChargeStatusPaid || h.OnPaymentConfirmed == nil {
		return nil
	}

	return h.OnPaymentConfirmed(ctx, PaymentConfirmation{
		TransactionID: string(data.IDTransaction),
		Status:        data.StatusTransaction,
		ExternalRef:   data.ExternalRef,
	})
}
