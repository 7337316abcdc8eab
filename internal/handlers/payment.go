package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/ports"
)

// maxChargeBody limita o corpo do pedido de cobrança
const maxChargeBody = 64 << 10

// PaymentHandler expõe a criação de cobrança PIX
type PaymentHandler struct {
	gateway ports.PixGateway
	logger  *zap.Logger
}

// NewPaymentHandler cria um novo handler de pagamento
func NewPaymentHandler(gateway ports.PixGateway, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{gateway: gateway, logger: logger}
}

// CreatePixPayment cria uma cobrança PIX
// Endpoint: POST /functions/v1/create-pix-payment
func (h *PaymentHandler) CreatePixPayment(w http.ResponseWriter, r *http.Request) {
	var body ports.ChargeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChargeBody)).Decode(&body); err != nil {
		h.logger.Warn("pedido de cobrança ilegível", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, ports.ChargeReply{
			Success:   false,
			Error:     "Requisição inválida",
			ErrorKind: domain.KindValidation,
		})
		return
	}

	charge, err := h.charge(r.Context(), body.PaymentRequest())
	if err != nil {
		writeJSON(w, replyStatus(err), ports.ChargeReply{
			Success:   false,
			Error:     domain.UserMessage(err),
			ErrorKind: domain.KindOf(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, ports.ChargeReply{
		Success:           true,
		PaymentCode:       charge.PaymentCode,
		PaymentCodeBase64: charge.PaymentCodeBase64,
		TransactionID:     charge.TransactionID,
		Status:            string(charge.Status),
	})
}

// charge revalida o pedido e chama o gateway
func (h *PaymentHandler) charge(ctx context.Context, req domain.PaymentRequest) (*domain.PixCharge, error) {
	if err := req.Validate(); err != nil {
		h.logger.Info("pedido de cobrança rejeitado", zap.Error(err))
		return nil, err
	}

	charge, err := h.gateway.CreateCharge(ctx, req)
	if err != nil {
		if domain.IsValidation(err) {
			h.logger.Info("cobrança rejeitada pelo gateway", zap.Error(err))
			return nil, err
		}
		h.logger.Error("erro ao criar cobrança PIX",
			zap.Error(err),
			zap.String("kind", string(domain.KindOf(err))),
		)
		return nil, err
	}
	return charge, nil
}

// replyStatus escolhe o status HTTP de uma falha
func replyStatus(err error) int {
	if domain.IsNotConfigured(err) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// LocalBoundary liga a sessão de compra ao PaymentHandler no mesmo processo,
// com a mesma revalidação do endpoint HTTP
type LocalBoundary struct {
	handler *PaymentHandler
}

// Local retorna o boundary em processo deste handler
func (h *PaymentHandler) Local() LocalBoundary {
	return LocalBoundary{handler: h}
}

// RequestCharge implementa ports.ChargeBoundary
func (b LocalBoundary) RequestCharge(ctx context.Context, req domain.PaymentRequest) (*domain.PixCharge, error) {
	return b.handler.charge(ctx, req)
}

// Garante que LocalBoundary implementa ChargeBoundary
var _ ports.ChargeBoundary = LocalBoundary{}
