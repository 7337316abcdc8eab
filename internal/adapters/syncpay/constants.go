package syncpay

import "time"

const (
	// BaseURLProd é o endereço da API SyncPayments
	BaseURLProd = "https://api.syncpayments.com.br"

	authPath   = "/api/partner/v1/auth-token"
	chargePath = "/v1/gateway/api"
)

// Valores fixos enviados em toda cobrança
const (
	DefaultSellURL    = "https://club.example.com"
	MetadataProvider  = "ClubSystem"
	ExternalRefPrefix = "club_"
	chargeIP          = "127.0.0.1"
	expiresAfterDays  = 2
	dateLayout        = "2006-01-02"
)

const (
	// DefaultTimeout limita cada requisição ao provedor
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries é o número de novas tentativas por etapa
	DefaultMaxRetries = 1

	// DefaultBackoff é a espera base antes de uma nova tentativa
	DefaultBackoff = 300 * time.Millisecond
)

// defaultAddress é enviado porque o provedor exige endereço e o formulário não coleta
var defaultAddress = Address{
	City:         "São Paulo",
	State:        "SP",
	Street:       "Rua Principal",
	Country:      "BR",
	ZipCode:      "01000-000",
	Complement:   "",
	Neighborhood: "Centro",
	StreetNumber: "1",
}
