// Package ports define as interfaces (portas) para adaptadores externos
// Seguindo o padrão Hexagonal Architecture / Ports & Adapters
package ports

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/magnani/vip-club/backend/internal/domain"
)

// ──────────────────────────────────────────────
// Boundary types (JSON trocado entre cliente e servidor)
// ──────────────────────────────────────────────

// ChargeRequest é o corpo de POST /functions/v1/create-pix-payment
type ChargeRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	CustomerName   string          `json:"customerName"`
	CustomerEmail  string          `json:"customerEmail"`
	CustomerCPF    string          `json:"customerCpf"`
	CustomerPhone  string          `json:"customerPhone"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// MarshalJSON envia amount como número JSON com duas casas (29.90)
func (r ChargeRequest) MarshalJSON() ([]byte, error) {
	type wire ChargeRequest
	return json.Marshal(struct {
		Amount json.Number `json:"amount"`
		wire
	}{
		Amount: json.Number(r.Amount.StringFixed(2)),
		wire:   wire(r),
	})
}

// PaymentRequest converte o corpo recebido para o tipo de domínio
func (r *ChargeRequest) PaymentRequest() domain.PaymentRequest {
	return domain.PaymentRequest{
		Amount:           r.Amount,
		CustomerName:     r.CustomerName,
		CustomerEmail:    r.CustomerEmail,
		CustomerDocument: r.CustomerCPF,
		CustomerPhone:    r.CustomerPhone,
		IdempotencyKey:   r.IdempotencyKey,
	}
}

// NewChargeRequest monta o corpo a partir do tipo de domínio
func NewChargeRequest(req domain.PaymentRequest) *ChargeRequest {
	return &ChargeRequest{
		Amount:         req.Amount,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerCPF:    req.CustomerDocument,
		CustomerPhone:  req.CustomerPhone,
		IdempotencyKey: req.IdempotencyKey,
	}
}

// ChargeReply é a resposta do boundary de cobrança
type ChargeReply struct {
	Success           bool             `json:"success"`
	PaymentCode       string           `json:"paymentCode,omitempty"`
	PaymentCodeBase64 string           `json:"paymentCodeBase64,omitempty"`
	TransactionID     string           `json:"transactionId,omitempty"`
	Status            string           `json:"status,omitempty"`
	Error             string           `json:"error,omitempty"`
	ErrorKind         domain.ErrorKind `json:"errorKind,omitempty"`
}

// ──────────────────────────────────────────────
// Provider interfaces
// ──────────────────────────────────────────────

// PixGateway define a interface para o gateway PIX (SyncPayments)
type PixGateway interface {
	// CreateCharge troca credenciais por token e cria uma cobrança PIX imediata.
	// Cada chamada é independente: nenhum token é reaproveitado.
	CreateCharge(ctx context.Context, req domain.PaymentRequest) (*domain.PixCharge, error)
}

// ChargeBoundary é o lado cliente da fronteira de rede: envia o pedido de
// cobrança ao servidor e devolve a cobrança criada
type ChargeBoundary interface {
	RequestCharge(ctx context.Context, req domain.PaymentRequest) (*domain.PixCharge, error)
}

// ──────────────────────────────────────────────
// Collaborator interfaces
// ──────────────────────────────────────────────

// Catalog fornece o preço e o link de entrega de cada perfil
type Catalog interface {
	// GetBySlug busca o produto pelo slug
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// List lista todos os produtos à venda
	List(ctx context.Context) ([]*domain.Product, error)
}

// PaymentConfirmer recebe confirmações de pagamento vindas do webhook
type PaymentConfirmer interface {
	// ConfirmTransaction marca como paga a sessão que carrega a transação.
	// Retorna false se nenhuma sessão conhece a transação.
	ConfirmTransaction(ctx context.Context, transactionID string) bool
}
