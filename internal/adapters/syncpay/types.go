package syncpay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AuthRequest é o corpo da troca de credenciais por token
type AuthRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AuthResponse representa a resposta do endpoint de autenticação
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// ChargeRequest representa uma requisição para criar cobrança PIX
type ChargeRequest struct {
	IP        string       `json:"ip"`
	Pix       ChargePix    `json:"pix"`
	Items     []ChargeItem `json:"items"`
	Amount    json.Number  `json:"amount"`
	Customer  Customer     `json:"customer"`
	Metadata  Metadata     `json:"metadata"`
	Traceable bool         `json:"traceable"`
}

// ChargePix define a validade da cobrança
type ChargePix struct {
	ExpiresInDays string `json:"expiresInDays"` // Data no formato YYYY-MM-DD
}

// ChargeItem representa o item vendido
type ChargeItem struct {
	Title     string      `json:"title"`
	Quantity  int         `json:"quantity"`
	Tangible  bool        `json:"tangible"`
	UnitPrice json.Number `json:"unitPrice"`
}

// Customer representa os dados do pagador. CPF e telefone vão apenas com dígitos.
type Customer struct {
	CPF         string  `json:"cpf"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	ExternalRef string  `json:"externaRef"`
	Address     Address `json:"address"`
}

// Address representa o endereço do pagador
type Address struct {
	City         string `json:"city"`
	State        string `json:"state"`
	Street       string `json:"street"`
	Country      string `json:"country"`
	ZipCode      string `json:"zipCode"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	StreetNumber string `json:"streetNumber"`
}

// Metadata é repassado pelo provedor nas notificações
type Metadata struct {
	Provider  string `json:"provider"`
	SellURL   string `json:"sell_url"`
	OrderURL  string `json:"order_url"`
	UserEmail string `json:"user_email"`
}

// ChargeResponse representa a resposta de uma cobrança PIX criada
type ChargeResponse struct {
	PaymentCode       string     `json:"paymentCode"`       // PIX copia e cola
	PaymentCodeBase64 string     `json:"paymentCodeBase64"` // QR Code em PNG base64
	IDTransaction     FlexString `json:"idTransaction"`
	StatusTransaction string     `json:"status_transaction"`
}

// validate verifica os campos obrigatórios da resposta
func (r *ChargeResponse) validate() error {
	if r.PaymentCode == "" {
		return fmt.Errorf("%w: paymentCode ausente", ErrInvalidResponse)
	}
	if r.IDTransaction == "" {
		return fmt.Errorf("%w: idTransaction ausente", ErrInvalidResponse)
	}
	return nil
}

// FlexString aceita string ou número no JSON
type FlexString string

// UnmarshalJSON implementa json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("idTransaction inválido: %s", string(data))
	}
	*f = FlexString(n.String())
	return nil
}

// ==================== Webhook ====================

// WebhookEvent representa o payload recebido em um webhook
type WebhookEvent struct {
	Event string      `json:"event,omitempty"`
	Data  WebhookData `json:"data"`
}

// WebhookData traz a transação notificada
type WebhookData struct {
	IDTransaction     FlexString  `json:"idTransaction"`
	StatusTransaction string      `json:"status_transaction"`
	Amount            json.Number `json:"amount,omitempty"`
	ExternalRef       string      `json:"externaRef,omitempty"`
}

// PaymentConfirmation é entregue a OnPaymentConfirmed
type PaymentConfirmation struct {
	TransactionID string
	Status        string
	ExternalRef   string
}
