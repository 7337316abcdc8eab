// Package storefront associa cada navegador a uma sessão de compra e
// encaminha as confirmações de pagamento para a sessão certa.
package storefront

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/checkout"
	"github.com/magnani/vip-club/backend/internal/ports"
)

const (
	// CookieName é o nome do cookie que guarda o id da sessão de compra
	CookieName = "checkout-session"

	sessionIDKey = "sid"
)

// NewCookieStore cria o cookie store assinado com o secret informado
func NewCookieStore(secret string, secure bool, maxAge time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Registry guarda as sessões de compra em memória
type Registry struct {
	store    sessions.Store
	catalog  ports.Catalog
	boundary ports.ChargeBoundary
	logger   *zap.Logger
	opts     []checkout.Option

	mu       sync.RWMutex
	sessions map[string]*checkout.Session
}

// NewRegistry cria um registry vazio
func NewRegistry(store sessions.Store, catalog ports.Catalog, boundary ports.ChargeBoundary, logger *zap.Logger, opts ...checkout.Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:    store,
		catalog:  catalog,
		boundary: boundary,
		logger:   logger,
		opts:     append([]checkout.Option{checkout.WithLogger(logger)}, opts...),
		sessions: make(map[string]*checkout.Session),
	}
}

// Open abre a compra do produto na sessão do navegador, criando-a se preciso
func (r *Registry) Open(ctx context.Context, w http.ResponseWriter, req *http.Request, slug string) (*checkout.Session, error) {
	product, err := r.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	s, err := r.SessionFor(w, req)
	if err != nil {
		return nil, err
	}
	s.Open(product)
	return s, nil
}

// SessionFor retorna a sessão do navegador, criando uma nova se o cookie
// estiver ausente, inválido ou apontar para uma sessão expirada
func (r *Registry) SessionFor(w http.ResponseWriter, req *http.Request) (*checkout.Session, error) {
	cookie, err := r.store.Get(req, CookieName)
	if err != nil {
		// Cookie assinado com outro secret: segue com um novo
		r.logger.Debug("cookie de sessão inválido", zap.Error(err))
	}

	if id, ok := cookie.Values[sessionIDKey].(string); ok {
		if s, found := r.get(id); found {
			return s, nil
		}
	}

	id := uuid.NewString()
	s := checkout.NewSession(r.boundary, nil, r.opts...)

	cookie.Values[sessionIDKey] = id
	if err := cookie.Save(req, w); err != nil {
		return nil, fmt.Errorf("erro ao salvar cookie de sessão: %w", err)
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Debug("sessão de compra criada", zap.String("session_id", id))
	return s, nil
}

// Lookup retorna a sessão do navegador sem criar uma nova
func (r *Registry) Lookup(req *http.Request) (*checkout.Session, bool) {
	cookie, err := r.store.Get(req, CookieName)
	if err != nil {
		return nil, false
	}
	id, ok := cookie.Values[sessionIDKey].(string)
	if !ok {
		return nil, false
	}
	return r.get(id)
}

func (r *Registry) get(id string) (*checkout.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// ConfirmTransaction libera o link de entrega da sessão que exibe a transação
func (r *Registry) ConfirmTransaction(ctx context.Context, transactionID string) bool {
	r.mu.RLock()
	candidates := make([]*checkout.Session, 0, 1)
	for _, s := range r.sessions {
		if s.TransactionID() == transactionID {
			candidates = append(candidates, s)
		}
	}
	r.mu.RUnlock()

	confirmed := false
	for _, s := range candidates {
		product := s.Product()
		if product == nil {
			continue
		}
		if s.Confirm(transactionID, product.DeliverableLink) {
			confirmed = true
			r.logger.Info("pagamento confirmado",
				zap.String("transaction_id", transactionID),
				zap.String("slug", product.Slug),
			)
		}
	}
	return confirmed
}

// Prune remove sessões sem alteração há mais de maxIdle
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			s.Close()
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len retorna o número de sessões ativas
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Garante que Registry implementa PaymentConfirmer
var _ ports.PaymentConfirmer = (*Registry)(nil)
