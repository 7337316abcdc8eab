package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/ports"
)

// maxReplyBody limita o corpo lido da resposta do boundary
const maxReplyBody = 1 << 20

// HTTPBoundary envia o pedido de cobrança ao endpoint create-pix-payment
type HTTPBoundary struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPBoundary cria o cliente do endpoint informado.
// Sem httpClient, usa um cliente com timeout de 30s.
func NewHTTPBoundary(url string, httpClient *http.Client) *HTTPBoundary {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPBoundary{url: url, httpClient: httpClient}
}

// WithAPIKey envia a chave nos headers apikey e authorization
func (b *HTTPBoundary) WithAPIKey(key string) *HTTPBoundary {
	b.apiKey = key
	return b
}

// RequestCharge implementa ports.ChargeBoundary
func (b *HTTPBoundary) RequestCharge(ctx context.Context, req domain.PaymentRequest) (*domain.PixCharge, error) {
	body, err := json.Marshal(ports.NewChargeRequest(req))
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar pedido: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("erro ao criar requisição: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("apikey", b.apiKey)
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	if err != nil {
		return nil, fmt.Errorf("%w: erro ao ler resposta: %w", domain.ErrNetwork, err)
	}

	var reply ports.ChargeReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("%w: resposta ilegível (status %d)", domain.ErrNetwork, resp.StatusCode)
	}

	if !reply.Success {
		return nil, &ReplyError{Status: resp.StatusCode, Message: reply.Error, Kind: reply.ErrorKind}
	}
	if reply.PaymentCode == "" {
		return nil, fmt.Errorf("%w: código PIX ausente na resposta", domain.ErrChargeCreation)
	}

	return &domain.PixCharge{
		TransactionID:     reply.TransactionID,
		PaymentCode:       reply.PaymentCode,
		PaymentCodeBase64: reply.PaymentCodeBase64,
		Status:            domain.NormalizeStatus(reply.Status),
		CreatedAt:         time.Now(),
	}, nil
}

// ReplyError é uma resposta success:false do boundary
type ReplyError struct {
	Status  int
	Message string
	Kind    domain.ErrorKind
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("checkout: cobrança recusada (status %d, %s): %s", e.Status, e.Kind, e.Message)
}

// UserMessage retorna a mensagem enviada pelo servidor
func (e *ReplyError) UserMessage() string {
	return e.Message
}

// Is permite errors.Is com as categorias de domain
func (e *ReplyError) Is(target error) bool {
	kindErr := domain.ParseErrorKind(string(e.Kind))
	return kindErr != nil && target == kindErr
}

// Garante que HTTPBoundary implementa ChargeBoundary
var _ ports.ChargeBoundary = (*HTTPBoundary)(nil)
