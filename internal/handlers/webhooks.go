// Package handlers contém os handlers HTTP da aplicação
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/adapters/syncpay"
	"github.com/magnani/vip-club/backend/internal/ports"
)

// ErrUnknownTransaction indica confirmação de transação que nenhuma sessão exibe
var ErrUnknownTransaction = errors.New("transação não pertence a nenhuma sessão ativa")

// ConfirmPayment retorna o callback de webhook que libera o link de entrega
func ConfirmPayment(confirmer ports.PaymentConfirmer, logger *zap.Logger) func(ctx context.Context, c syncpay.PaymentConfirmation) error {
	return func(ctx context.Context, c syncpay.PaymentConfirmation) error {
		if !confirmer.ConfirmTransaction(ctx, c.TransactionID) {
			logger.Warn("[Webhook] confirmação sem sessão ativa", zap.String("transaction_id", c.TransactionID))
			return ErrUnknownTransaction
		}
		logger.Info("[Webhook] pagamento confirmado", zap.String("transaction_id", c.TransactionID))
		return nil
	}
}

// HealthCheck endpoint para verificar se o servidor está funcionando
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "vip-club-api",
	})
}
