package domain

import (
	"errors"
	"fmt"

	"github.com/magnani/vip-club/backend/internal/format"
)

// Categorias de erro do fluxo de pagamento.
// Erros de adaptadores embrulham uma destas para que errors.Is funcione em
// qualquer camada.
var (
	// ErrNotConfigured indica credenciais do provedor ausentes
	ErrNotConfigured = errors.New("serviço de pagamento não configurado")

	// ErrAuthentication indica falha na troca de credenciais por token
	ErrAuthentication = errors.New("falha na autenticação com gateway de pagamento")

	// ErrChargeCreation indica que o provedor recusou ou não criou a cobrança
	ErrChargeCreation = errors.New("falha ao criar pagamento PIX")

	// ErrValidation indica dados do comprador ou valor inválidos
	ErrValidation = errors.New("dados de pagamento inválidos")

	// ErrNetwork indica falha de transporte ou timeout
	ErrNetwork = errors.New("falha de comunicação com gateway de pagamento")
)

// ErrAmountTooLow indica valor abaixo de MinimumAmount
var ErrAmountTooLow = fmt.Errorf("%w: valor mínimo é R$ 1,00", ErrValidation)

// ErrorKind é o nome estável de uma categoria, exposto na resposta HTTP
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindConfiguration  ErrorKind = "configuration"
	KindAuthentication ErrorKind = "authentication"
	KindCharge         ErrorKind = "charge"
	KindValidation     ErrorKind = "validation"
	KindNetwork        ErrorKind = "network"
	KindUnknown        ErrorKind = "unknown"
)

// KindOf classifica um erro numa das categorias acima
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrChargeCreation):
		return KindCharge
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	}
	return KindUnknown
}

// ParseErrorKind converte o valor recebido em uma resposta de volta para a
// categoria correspondente
func ParseErrorKind(s string) error {
	switch ErrorKind(s) {
	case KindConfiguration:
		return ErrNotConfigured
	case KindAuthentication:
		return ErrAuthentication
	case KindCharge:
		return ErrChargeCreation
	case KindValidation:
		return ErrValidation
	case KindNetwork:
		return ErrNetwork
	}
	return nil
}

// IsNotConfigured retorna true se o erro indica credenciais ausentes
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsValidation retorna true se o erro é de validação
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Mensagens exibidas ao comprador
const (
	MsgNotConfigured  = "Payment service not configured"
	MsgAmountTooLow   = "Valor mínimo é R$ 1,00"
	MsgMissingFields  = "Preencha todos os campos"
	MsgInvalidCPF     = "CPF inválido"
	MsgValidation     = "Dados de pagamento inválidos"
	MsgAuthentication = "Falha na autenticação com gateway de pagamento"
	MsgCharge         = "Falha ao criar pagamento PIX"
	MsgNetwork        = "Falha de comunicação com gateway de pagamento"
	MsgUnknown        = "Erro ao gerar pagamento"
)

// UserMessage traduz um erro para a mensagem exibida ao comprador.
// Nunca inclui o corpo da resposta do provedor.
func UserMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return MsgNotConfigured
	case errors.Is(err, ErrAmountTooLow):
		return MsgAmountTooLow
	case errors.Is(err, format.ErrMissingFields):
		return MsgMissingFields
	case errors.Is(err, format.ErrInvalidDocument):
		return MsgInvalidCPF
	case errors.Is(err, ErrValidation):
		return MsgValidation
	case errors.Is(err, ErrAuthentication):
		return MsgAuthentication
	case errors.Is(err, ErrChargeCreation):
		return MsgCharge
	case errors.Is(err, ErrNetwork):
		return MsgNetwork
	}
	return MsgUnknown
}
