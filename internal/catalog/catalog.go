// Package catalog fornece os perfis à venda a partir de um arquivo YAML.
// Substitui a leitura da tabela club_profile feita pelo painel administrativo.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/ports"
)

// DefaultSlug é o slug do perfil padrão
const DefaultSlug = "vip"

// DefaultPrice é o preço padrão do painel (R$ 29,90)
var DefaultPrice = decimal.New(2990, -2)

// ErrProductNotFound indica slug desconhecido
var ErrProductNotFound = errors.New("catalog: produto não encontrado")

// File é o formato do arquivo de catálogo
type File struct {
	Products []Entry `yaml:"products"`
}

// Entry é um produto no arquivo. O preço é string para não perder precisão.
type Entry struct {
	Slug            string `yaml:"slug"`
	Name            string `yaml:"name"`
	Price           string `yaml:"price"`
	DeliverableLink string `yaml:"deliverable_link"`
	AccessDays      int    `yaml:"access_days"`
}

// Static é um catálogo em memória, imutável após a carga
type Static struct {
	products map[string]*domain.Product
}

// New cria um catálogo com os produtos informados
func New(products ...*domain.Product) *Static {
	s := &Static{products: make(map[string]*domain.Product, len(products))}
	for _, p := range products {
		s.products[p.Slug] = p
	}
	return s
}

// Default retorna um catálogo com um único perfil ao preço padrão
func Default(deliverableLink string) *Static {
	p := domain.NewProduct(DefaultSlug, "", DefaultPrice)
	p.DeliverableLink = deliverableLink
	return New(p)
}

// LoadFile lê um catálogo YAML do disco
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler catálogo: %w", err)
	}
	return Parse(data)
}

// Parse decodifica e valida um catálogo YAML
func Parse(data []byte) (*Static, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("erro ao decodificar catálogo: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, fmt.Errorf("catálogo vazio")
	}

	products := make([]*domain.Product, 0, len(f.Products))
	seen := make(map[string]bool, len(f.Products))
	for i, e := range f.Products {
		p, err := e.product()
		if err != nil {
			return nil, fmt.Errorf("produto %d: %w", i, err)
		}
		if seen[p.Slug] {
			return nil, fmt.Errorf("produto %d: slug duplicado %q", i, p.Slug)
		}
		seen[p.Slug] = true
		products = append(products, p)
	}
	return New(products...), nil
}

func (e Entry) product() (*domain.Product, error) {
	slug := strings.TrimSpace(e.Slug)
	if slug == "" {
		return nil, fmt.Errorf("slug é obrigatório")
	}

	price := DefaultPrice
	if e.Price != "" {
		parsed, err := decimal.NewFromString(strings.Replace(e.Price, ",", ".", 1))
		if err != nil {
			return nil, fmt.Errorf("preço inválido %q: %w", e.Price, err)
		}
		price = parsed
	}
	if price.LessThan(domain.MinimumAmount) {
		return nil, fmt.Errorf("preço %s abaixo do mínimo", price.StringFixed(2))
	}

	p := domain.NewProduct(slug, strings.TrimSpace(e.Name), price)
	p.DeliverableLink = strings.TrimSpace(e.DeliverableLink)
	p.AccessDays = e.AccessDays
	return p, nil
}

// GetBySlug busca o produto pelo slug
func (s *Static) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, ok := s.products[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
	}
	cp := *p
	return &cp, nil
}

// List lista todos os produtos ordenados por slug
func (s *Static) List(ctx context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Garante que Static implementa Catalog
var _ ports.Catalog = (*Static)(nil)
