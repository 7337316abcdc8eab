package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magnani/vip-club/backend/internal/format"
)

// MinimumAmount é o menor valor aceito para uma cobrança PIX (R$ 1,00)
var MinimumAmount = decimal.New(100, -2)

// ChargeStatus é o status da cobrança como informado pelo provedor
type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "PENDING"
	ChargeStatusPaid      ChargeStatus = "PAID"
	ChargeStatusExpired   ChargeStatus = "EXPIRED"
	ChargeStatusCancelled ChargeStatus = "CANCELLED"
)

// PaymentRequest representa o pedido de cobrança de um comprador
type PaymentRequest struct {
	Amount           decimal.Decimal
	CustomerName     string
	CustomerEmail    string
	CustomerDocument string // CPF, com ou sem máscara
	CustomerPhone    string // DDD + número, com ou sem máscara

	// IdempotencyKey identifica a tentativa de compra perante o provedor.
	// Opcional: sem ela o adaptador gera uma referência por timestamp.
	IdempotencyKey string
}

// Fields retorna os dados do comprador no formato do formulário
func (r PaymentRequest) Fields() format.Fields {
	return format.Fields{
		Name:     r.CustomerName,
		Email:    r.CustomerEmail,
		Document: r.CustomerDocument,
		Phone:    r.CustomerPhone,
	}
}

// DocumentDigits retorna o CPF sem formatação
func (r PaymentRequest) DocumentDigits() string {
	return format.Digits(r.CustomerDocument)
}

// PhoneDigits retorna o telefone sem formatação
func (r PaymentRequest) PhoneDigits() string {
	return format.Digits(r.CustomerPhone)
}

// ValidateAmount verifica apenas o valor mínimo
func (r PaymentRequest) ValidateAmount() error {
	if r.Amount.LessThan(MinimumAmount) {
		return ErrAmountTooLow
	}
	return nil
}

// Validate aplica as mesmas regras do formulário mais o valor mínimo.
// Todos os erros retornados satisfazem errors.Is(err, ErrValidation).
func (r PaymentRequest) Validate() error {
	if err := r.ValidateAmount(); err != nil {
		return err
	}
	if err := format.ValidateSubmission(r.Fields()); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// PixCharge representa uma cobrança PIX criada no provedor.
// Imutável após a criação.
type PixCharge struct {
	TransactionID     string       `json:"transactionId"`
	PaymentCode       string       `json:"paymentCode"`       // PIX copia e cola
	PaymentCodeBase64 string       `json:"paymentCodeBase64"` // Imagem PNG do QR Code em base64
	Status            ChargeStatus `json:"status,omitempty"`
	ExternalReference string       `json:"externalReference,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// QRCodeDataURI retorna a imagem do QR Code pronta para um <img src>
func (c *PixCharge) QRCodeDataURI() string {
	if c.PaymentCodeBase64 == "" {
		return ""
	}
	if strings.HasPrefix(c.PaymentCodeBase64, "data:") {
		return c.PaymentCodeBase64
	}
	return "data:image/png;base64," + c.PaymentCodeBase64
}

// IsPaid verifica se o provedor já informou o pagamento
func (c *PixCharge) IsPaid() bool {
	return NormalizeStatus(string(c.Status)) == ChargeStatusPaid
}

// NormalizeStatus converte os status do provedor para ChargeStatus
func NormalizeStatus(s string) ChargeStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PAID", "PAGO", "APPROVED", "COMPLETED", "CONCLUIDA":
		return ChargeStatusPaid
	case "EXPIRED", "EXPIRADO":
		return ChargeStatusExpired
	case "CANCELLED", "CANCELED", "CANCELADO":
		return ChargeStatusCancelled
	case "":
		return ""
	}
	return ChargeStatusPending
}
