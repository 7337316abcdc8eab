package syncpay

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/pkcs12"

	"github.com/magnani/vip-club/backend/internal/config"
	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/ports"
)

// Client implementa ports.PixGateway para a API SyncPayments.
// Não guarda estado entre cobranças: cada chamada carrega as credenciais,
// pede um token novo e cria a cobrança.
type Client struct {
	baseURL     string
	sellURL     string
	httpClient  *http.Client
	credentials config.CredentialsFunc
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// Option configura o Client
type Option func(*Client)

// WithHTTPClient substitui o cliente HTTP (útil em testes)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger define o logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBackoff define a espera base entre tentativas
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithClock substitui o relógio usado na data de expiração e na referência externa
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient cria um novo cliente SyncPayments.
// Se um certificado PKCS12 estiver configurado, as requisições usam mTLS.
func NewClient(cfg *config.SyncPayConfig, credentials config.CredentialsFunc, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}

	if cfg.CertificatePath != "" {
		tlsConfig, err := loadCertificate(cfg.CertificatePath, cfg.CertificatePassword)
		if err != nil {
			return nil, fmt.Errorf("erro ao carregar certificado: %w", err)
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURLProd
	}
	sellURL := strings.TrimRight(cfg.SellURL, "/")
	if sellURL == "" {
		sellURL = DefaultSellURL
	}

	c := &Client{
		baseURL:     baseURL,
		sellURL:     sellURL,
		httpClient:  httpClient,
		credentials: credentials,
		maxRetries:  cfg.MaxRetries,
		backoff:     DefaultBackoff,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	return c, nil
}

// loadCertificate carrega um certificado .p12 para mTLS
func loadCertificate(certPath, password string) (*tls.Config, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler certificado: %w", err)
	}

	privateKey, certificate, err := pkcs12.Decode(certData, password)
	if err != nil {
		return nil, fmt.Errorf("erro ao decodificar certificado PKCS12: %w", err)
	}

	tlsCert := tls.Certificate{
		Certificate: [][]byte{certificate.Raw},
		PrivateKey:  privateKey,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// CreateCharge cria uma nova cobrança PIX imediata
func (c *Client) CreateCharge(ctx context.Context, req domain.PaymentRequest) (*domain.PixCharge, error) {
	creds, err := c.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	if err := req.ValidateAmount(); err != nil {
		return nil, err
	}

	c.logger.Info("autenticando com SyncPayments")
	token, err := c.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	ref := c.externalReference(req.IdempotencyKey)
	body, err := json.Marshal(c.buildChargeRequest(req, ref))
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar body: %w", err)
	}

	c.logger.Info("autenticado, criando cobrança PIX", zap.String("external_ref", ref))

	// O mesmo corpo (e portanto a mesma referência) é reenviado em cada tentativa
	status, respBody, err := c.post(ctx, chargePath, token, body)
	if err != nil {
		return nil, networkError("cobrança", err)
	}
	if status < 200 || status >= 300 {
		c.logger.Error("falha ao criar cobrança PIX",
			zap.Int("status", status),
			zap.String("body", string(respBody)),
		)
		return nil, &ChargeError{Status: status, Body: string(respBody)}
	}

	var chargeResp ChargeResponse
	if err := json.Unmarshal(respBody, &chargeResp); err != nil {
		c.logger.Error("resposta de cobrança ilegível", zap.String("body", string(respBody)), zap.Error(err))
		return nil, &ChargeError{Status: status, Body: string(respBody), Err: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
	}
	if err := chargeResp.validate(); err != nil {
		c.logger.Error("resposta de cobrança incompleta", zap.String("body", string(respBody)), zap.Error(err))
		return nil, &ChargeError{Status: status, Body: string(respBody), Err: err}
	}

	c.logger.Info("cobrança PIX criada", zap.String("transaction_id", string(chargeResp.IDTransaction)))

	return &domain.PixCharge{
		TransactionID:     string(chargeResp.IDTransaction),
		PaymentCode:       chargeResp.PaymentCode,
		PaymentCodeBase64: chargeResp.PaymentCodeBase64,
		Status:            domain.NormalizeStatus(chargeResp.StatusTransaction),
		ExternalReference: ref,
		CreatedAt:         c.now(),
	}, nil
}

// loadCredentials obtém as credenciais desta chamada
func (c *Client) loadCredentials(ctx context.Context) (config.Credentials, error) {
	if c.credentials == nil {
		c.logger.Error("credenciais SyncPayments ausentes")
		return config.Credentials{}, domain.ErrNotConfigured
	}
	creds, err := c.credentials(ctx)
	if err != nil {
		c.logger.Error("erro ao carregar credenciais SyncPayments", zap.Error(err))
		return config.Credentials{}, fmt.Errorf("%w: %v", domain.ErrNotConfigured, err)
	}
	if !creds.Complete() {
		c.logger.Error("credenciais SyncPayments ausentes")
		return config.Credentials{}, domain.ErrNotConfigured
	}
	return creds, nil
}

// externalReference gera club_<chave> ou club_<unix-millis>
func (c *Client) externalReference(idempotencyKey string) string {
	if idempotencyKey != "" {
		return ExternalRefPrefix + idempotencyKey
	}
	return ExternalRefPrefix + strconv.FormatInt(c.now().UnixMilli(), 10)
}

// buildChargeRequest monta o corpo enviado ao provedor
func (c *Client) buildChargeRequest(req domain.PaymentRequest, ref string) ChargeRequest {
	amount := json.Number(req.Amount.StringFixed(2))

	return ChargeRequest{
		IP: chargeIP,
		Pix: ChargePix{
			ExpiresInDays: c.now().UTC().AddDate(0, 0, expiresAfterDays).Format(dateLayout),
		},
		Items: []ChargeItem{
			{
				Title:     domain.DefaultProductName,
				Quantity:  1,
				Tangible:  false,
				UnitPrice: amount,
			},
		},
		Amount: amount,
		Customer: Customer{
			CPF:         req.DocumentDigits(),
			Name:        req.CustomerName,
			Email:       req.CustomerEmail,
			Phone:       req.PhoneDigits(),
			ExternalRef: ref,
			Address:     defaultAddress,
		},
		Metadata: Metadata{
			Provider:  MetadataProvider,
			SellURL:   c.sellURL,
			OrderURL:  c.sellURL + "/order",
			UserEmail: req.CustomerEmail,
		},
		Traceable: true,
	}
}

// post envia JSON ao provedor com novas tentativas limitadas.
// Tenta de novo apenas em falha de transporte, 429 ou 5xx.
// Retorna o status e o corpo da última tentativa.
func (c *Client) post(ctx context.Context, path, token string, body []byte) (int, []byte, error) {
	var (
		status   int
		respBody []byte
		err      error
	)
	for attempt := 0; ; attempt++ {
		status, respBody, err = c.doRequest(ctx, path, token, body)
		if err == nil && !retryableStatus(status) {
			return status, respBody, nil
		}
		if attempt >= c.maxRetries || ctx.Err() != nil {
			return status, respBody, err
		}

		c.logger.Warn("nova tentativa na SyncPayments",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Int("status", status),
			zap.Error(err),
		)
		if waitErr := sleepContext(ctx, c.jitter(attempt)); waitErr != nil {
			if err == nil {
				return status, respBody, nil
			}
			return status, respBody, err
		}
	}
}

// doRequest executa uma única requisição POST
func (c *Client) doRequest(ctx context.Context, path, token string, body []byte) (int, []byte, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("erro ao criar requisição: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("erro na requisição HTTP: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("erro ao ler resposta: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// jitter retorna a espera da tentativa: backoff * 2^attempt, mais até 50%
func (c *Client) jitter(attempt int) time.Duration {
	if c.backoff <= 0 {
		return 0
	}
	d := c.backoff << attempt
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Garante que Client implementa PixGateway
var _ ports.PixGateway = (*Client)(nil)
