// Package config gerencia as configurações do aplicativo
// carregando variáveis de ambiente do arquivo .env
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena todas as configurações da aplicação
type Config struct {
	// Servidor
	Port string
	Env  string

	// SyncPayments
	SyncPay SyncPayConfig

	// Webhook
	Webhook WebhookConfig

	// Checkout
	Checkout CheckoutConfig

	// Rate limit do endpoint de cobrança
	RateLimit RateLimitConfig
}

// SyncPayConfig armazena configurações específicas da SyncPayments.
// As credenciais ficam fora daqui: são lidas a cada cobrança via Credentials.
type SyncPayConfig struct {
	BaseURL             string
	CertificatePath     string
	CertificatePassword string
	Timeout             time.Duration
	MaxRetries          int
	SellURL             string
}

// WebhookConfig armazena configurações de webhook
type WebhookConfig struct {
	Secret string
}

// CheckoutConfig armazena configurações da sessão de compra
type CheckoutConfig struct {
	SessionSecret   string
	CatalogFile     string
	DeliverableLink string
	SessionTTL      time.Duration
}

// RateLimitConfig armazena configurações de rate limit
type RateLimitConfig struct {
	RedisURL string
	Requests int
	Window   time.Duration

	// TrustedProxies são IPs/CIDRs cujos headers X-Forwarded-For são aceitos
	TrustedProxies []string
}

// Load carrega as configurações do arquivo .env e variáveis de ambiente
// O arquivo .env é opcional - variáveis de ambiente têm prioridade
func Load() (*Config, error) {
	// Tenta carregar .env (ignora erro se não existir)
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),
		SyncPay: SyncPayConfig{
			BaseURL:             getEnv("SYNCPAYMENTS_BASE_URL", "https://api.syncpayments.com.br"),
			CertificatePath:     getEnv("SYNCPAYMENTS_CERTIFICATE_PATH", ""),
			CertificatePassword: getEnv("SYNCPAYMENTS_CERTIFICATE_PASSWORD", ""),
			Timeout:             getEnvDuration("SYNCPAYMENTS_TIMEOUT", 30*time.Second),
			MaxRetries:          getEnvInt("SYNCPAYMENTS_MAX_RETRIES", 1),
			SellURL:             getEnv("SELL_URL", ""),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		Checkout: CheckoutConfig{
			SessionSecret:   getEnv("SESSION_SECRET", ""),
			CatalogFile:     getEnv("CATALOG_FILE", ""),
			DeliverableLink: getEnv("DELIVERABLE_LINK", ""),
			SessionTTL:      getEnvDuration("CHECKOUT_SESSION_TTL", 2*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

			TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		},
	}

	// Validação básica
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate verifica se as configurações obrigatórias estão presentes.
// Credenciais ausentes não impedem o boot: cada cobrança responde
// "Payment service not configured".
func (c *Config) validate() error {
	if c.SyncPay.BaseURL == "" {
		return fmt.Errorf("SYNCPAYMENTS_BASE_URL é obrigatório")
	}
	if c.SyncPay.Timeout <= 0 {
		return fmt.Errorf("SYNCPAYMENTS_TIMEOUT deve ser positivo")
	}
	if c.SyncPay.MaxRetries < 0 {
		return fmt.Errorf("SYNCPAYMENTS_MAX_RETRIES não pode ser negativo")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS e RATE_LIMIT_WINDOW devem ser positivos")
	}
	if c.IsProduction() && c.Checkout.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET é obrigatório em produção")
	}
	return nil
}

// IsDevelopment retorna true se estiver em ambiente de desenvolvimento
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction retorna true se estiver em ambiente de produção
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Credentials são o client id e o secret da SyncPayments
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Complete retorna true se os dois valores estão presentes
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// CredentialsFunc carrega as credenciais no momento da cobrança
type CredentialsFunc func(ctx context.Context) (Credentials, error)

// EnvCredentials lê SYNCPAYMENTS_CLIENT_ID e SYNCPAYMENTS_CLIENT_SECRET
// a cada chamada, permitindo rotação sem reiniciar o processo
func EnvCredentials(ctx context.Context) (Credentials, error) {
	return Credentials{
		ClientID:     os.Getenv("SYNCPAYMENTS_CLIENT_ID"),
		ClientSecret: os.Getenv("SYNCPAYMENTS_CLIENT_SECRET"),
	}, nil
}

// StaticCredentials retorna um CredentialsFunc com valores fixos
func StaticCredentials(clientID, clientSecret string) CredentialsFunc {
	return func(context.Context) (Credentials, error) {
		return Credentials{ClientID: clientID, ClientSecret: clientSecret}, nil
	}
}

// getEnv obtém uma variável de ambiente ou retorna o valor padrão
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt obtém uma variável de ambiente como int
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration obtém uma variável de ambiente como time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvList obtém uma lista separada por vírgulas
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
