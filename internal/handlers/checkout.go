package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/catalog"
	"github.com/magnani/vip-club/backend/internal/checkout"
	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/storefront"
)

// CheckoutHandler expõe a sessão de compra do navegador
type CheckoutHandler struct {
	registry *storefront.Registry
	logger   *zap.Logger
}

// NewCheckoutHandler cria um novo handler de checkout
func NewCheckoutHandler(registry *storefront.Registry, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{registry: registry, logger: logger}
}

// fieldsUpdate aceita atualização parcial dos campos
type fieldsUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Document *string `json:"cpf"`
	Phone    *string `json:"phone"`
}

// Open abre a compra de um perfil
// Endpoint: POST /api/checkout/{slug}
func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	s, err := h.registry.Open(r.Context(), w, r, slug)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeMessage(w, http.StatusNotFound, "Perfil não encontrado")
			return
		}
		h.logger.Error("erro ao abrir checkout", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Erro ao abrir checkout")
		return
	}

	writeJSON(w, http.StatusOK, s.TakeNotice())
}

// Get retorna o estado atual da sessão
// Endpoint: GET /api/checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.TakeNotice())
}

// UpdateFields altera os campos do formulário, aplicando as máscaras
// Endpoint: PUT /api/checkout/fields
func (h *CheckoutHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var body fieldsUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChargeBody)).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida")
		return
	}

	setters := []struct {
		value *string
		set   func(string) error
	}{
		{body.Name, s.SetName},
		{body.Email, s.SetEmail},
		{body.Document, s.SetDocument},
		{body.Phone, s.SetPhone},
	}
	for _, f := range setters {
		if f.value == nil {
			continue
		}
		if err := f.set(*f.value); err != nil {
			writeJSON(w, http.StatusConflict, s.TakeNotice())
			return
		}
	}

	writeJSON(w, http.StatusOK, s.TakeNotice())
}

// Submit envia o formulário e gera o PIX
// Endpoint: POST /api/checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	_, err := s.Submit(r.Context())
	writeJSON(w, submitStatus(err), s.TakeNotice())
}

// Copy copia o código PIX e liga o indicador "copiado"
// Endpoint: POST /api/checkout/copy
func (h *CheckoutHandler) Copy(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := s.Copy(r.Context()); err != nil {
		writeJSON(w, http.StatusConflict, s.TakeNotice())
		return
	}
	writeJSON(w, http.StatusOK, s.TakeNotice())
}

// Close fecha o modal e limpa a sessão
// Endpoint: DELETE /api/checkout
func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Close()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	s, ok := h.registry.Lookup(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Sessão de compra não encontrada")
		return nil, false
	}
	return s, true
}

func submitStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, checkout.ErrSubmitInFlight),
		errors.Is(err, checkout.ErrNotEditable),
		errors.Is(err, checkout.ErrNoProduct),
		errors.Is(err, checkout.ErrSessionClosed):
		return http.StatusConflict
	case domain.IsNotConfigured(err):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
