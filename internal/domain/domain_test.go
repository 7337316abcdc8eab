package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnani/vip-club/backend/internal/format"
)

func validPaymentRequest() PaymentRequest {
	return PaymentRequest{
		Amount:           decimal.RequireFromString("29.90"),
		CustomerName:     "Maria Silva",
		CustomerEmail:    "maria@example.com",
		CustomerDocument: "123.456.789-09",
		CustomerPhone:    "(11) 98765-4321",
	}
}

func TestPaymentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *PaymentRequest)
		wantErr error
	}{
		{"valid", func(r *PaymentRequest) {}, nil},
		{"exactly minimum", func(r *PaymentRequest) { r.Amount = decimal.RequireFromString("1.00") }, nil},
		{"below minimum", func(r *PaymentRequest) { r.Amount = decimal.RequireFromString("0.99") }, ErrAmountTooLow},
		{"missing name", func(r *PaymentRequest) { r.CustomerName = "" }, format.ErrMissingFields},
		{"short cpf", func(r *PaymentRequest) { r.CustomerDocument = "123" }, format.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validPaymentRequest()
			tt.mutate(&r)

			err := r.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestPaymentRequest_Digits(t *testing.T) {
	r := validPaymentRequest()
	assert.Equal(t, "12345678909", r.DocumentDigits())
	assert.Equal(t, "11987654321", r.PhoneDigits())
}

func TestPixCharge_QRCodeDataURI(t *testing.T) {
	c := &PixCharge{PaymentCodeBase64: "iVBOR"}
	assert.Equal(t, "data:image/png;base64,iVBOR", c.QRCodeDataURI())

	c.PaymentCodeBase64 = "data:image/png;base64,iVBOR"
	assert.Equal(t, "data:image/png;base64,iVBOR", c.QRCodeDataURI())

	c.PaymentCodeBase64 = ""
	assert.Empty(t, c.QRCodeDataURI())
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, ChargeStatusPaid, NormalizeStatus("paid"))
	assert.Equal(t, ChargeStatusPaid, NormalizeStatus(" APPROVED "))
	assert.Equal(t, ChargeStatusPending, NormalizeStatus("waiting_payment"))
	assert.Equal(t, ChargeStatusExpired, NormalizeStatus("expired"))
	assert.Equal(t, ChargeStatus(""), NormalizeStatus(""))
}

func TestProduct_PriceLabel(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"29.90", "R$ 29,90"},
		{"29.9", "R$ 29,90"},
		{"1", "R$ 1,00"},
		{"1234.5", "R$ 1234,50"},
	}
	for _, tt := range tests {
		p := NewProduct("vip", "", decimal.RequireFromString(tt.price))
		assert.Equal(t, tt.want, p.PriceLabel())
		assert.Equal(t, DefaultProductName, p.Name)
	}
}

type messageError struct{ msg string }

func (e *messageError) Error() string       { return "boundary: " + e.msg }
func (e *messageError) UserMessage() string { return e.msg }

func TestKindOfAndUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantMsg  string
	}{
		{"nil", nil, KindNone, ""},
		{"not configured", fmt.Errorf("wrap: %w", ErrNotConfigured), KindConfiguration, MsgNotConfigured},
		{"amount", ErrAmountTooLow, KindValidation, MsgAmountTooLow},
		{"missing fields", fmt.Errorf("%w: %w", ErrValidation, &format.MissingFieldsError{Fields: []string{"name"}}), KindValidation, MsgMissingFields},
		{"invalid cpf", fmt.Errorf("%w: %w", ErrValidation, format.ErrInvalidDocument), KindValidation, MsgInvalidCPF},
		{"auth", fmt.Errorf("x: %w", ErrAuthentication), KindAuthentication, MsgAuthentication},
		{"charge", ErrChargeCreation, KindCharge, MsgCharge},
		{"network", fmt.Errorf("%w: timeout", ErrNetwork), KindNetwork, MsgNetwork},
		{"unknown", errors.New("boom"), KindUnknown, MsgUnknown},
		{"carried message", &messageError{msg: "Falha ao criar pagamento PIX"}, KindUnknown, "Falha ao criar pagamento PIX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, KindOf(tt.err))
			assert.Equal(t, tt.wantMsg, UserMessage(tt.err))
			assert.Equal(t, tt.wantKind == KindValidation, IsValidation(tt.err))
			assert.Equal(t, tt.wantKind == KindConfiguration, IsNotConfigured(tt.err))
		})
	}
}

func TestParseErrorKind(t *testing.T) {
	for _, kind := range []ErrorKind{KindConfiguration, KindAuthentication, KindCharge, KindValidation, KindNetwork} {
		err := ParseErrorKind(string(kind))
		require.Error(t, err)
		assert.Equal(t, kind, KindOf(err))
	}
	assert.NoError(t, ParseErrorKind("whatever"))
}
