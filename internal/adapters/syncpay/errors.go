package syncpay

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/magnani/vip-club/backend/internal/domain"
)

// Erros sentinela para condições comuns
var (
	// ErrInvalidResponse indica resposta 2xx sem os campos obrigatórios
	ErrInvalidResponse = errors.New("syncpay: resposta inválida do provedor")

	// ErrMissingToken indica autenticação 2xx sem access_token
	ErrMissingToken = errors.New("syncpay: access_token ausente")
)

// AuthError representa falha na troca de credenciais por token.
// Body é guardado apenas para log: nunca deve chegar ao comprador.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("syncpay: falha na autenticação (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("syncpay: falha na autenticação (status %d)", e.Status)
}

// Is permite errors.Is(err, domain.ErrAuthentication)
func (e *AuthError) Is(target error) bool {
	return target == domain.ErrAuthentication
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ChargeError representa falha na criação da cobrança
type ChargeError struct {
	Status int
	Body   string
	Err    error
}

func (e *ChargeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("syncpay: falha ao criar cobrança (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("syncpay: falha ao criar cobrança (status %d)", e.Status)
}

// Is permite errors.Is(err, domain.ErrChargeCreation)
func (e *ChargeError) Is(target error) bool {
	return target == domain.ErrChargeCreation
}

func (e *ChargeError) Unwrap() error {
	return e.Err
}

// IsAuthError retorna true se o erro veio da etapa de autenticação
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsRateLimited retorna true se o provedor respondeu 429
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsServerError retorna true se o erro é do servidor (5xx)
func IsServerError(err error) bool {
	return StatusCode(err) >= 500
}

// StatusCode extrai o status HTTP de um erro do provedor (0 se não houver)
func StatusCode(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	var chargeErr *ChargeError
	if errors.As(err, &chargeErr) {
		return chargeErr.Status
	}
	return 0
}

// networkError embrulha falhas de transporte em domain.ErrNetwork
func networkError(step string, err error) error {
	return fmt.Errorf("syncpay %s: %w: %w", step, domain.ErrNetwork, err)
}

// retryableStatus indica respostas que justificam nova tentativa
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
