// Package domain contém as entidades de domínio da aplicação
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultProductName é o título da oferta usado quando o catálogo não define um
const DefaultProductName = "Acesso VIP - Conteúdo Exclusivo"

// Product representa um perfil à venda no catálogo
// Alinhado com a tabela club_profile mantida pelo painel administrativo
type Product struct {
	ID    string          `json:"id"`
	Slug  string          `json:"slug"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`

	// DeliverableLink é revelado ao comprador após a confirmação do pagamento
	DeliverableLink string `json:"-"`

	// AccessDays é a duração do acesso vendido (0 = vitalício)
	AccessDays int `json:"access_days,omitempty"`
}

// PriceLabel retorna o preço no formato exibido ao comprador (ex: "R$ 29,90")
func (p *Product) PriceLabel() string {
	return "R$ " + strings.Replace(p.Price.StringFixed(2), ".", ",", 1)
}

// HasDeliverable verifica se o produto tem link de entrega configurado
func (p *Product) HasDeliverable() bool {
	return p.DeliverableLink != ""
}

// NewProduct cria um produto com os valores padrão do painel
func NewProduct(slug, name string, price decimal.Decimal) *Product {
	if name == "" {
		name = DefaultProductName
	}
	return &Product{
		ID:    slug,
		Slug:  slug,
		Name:  name,
		Price: price,
	}
}
