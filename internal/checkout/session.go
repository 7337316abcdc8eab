// Package checkout implementa a sessão de compra do comprador: coleta e
// formata os dados, envia o pedido de cobrança uma única vez por tentativa
// e exibe o PIX gerado.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/format"
	"github.com/magnani/vip-club/backend/internal/ports"
)

// CopiedResetDelay é o tempo até o indicador "copiado" voltar ao normal
const CopiedResetDelay = 3 * time.Second

// Mensagens de sucesso exibidas ao comprador
const (
	MsgChargeCreated = "Pagamento PIX gerado!"
	MsgCodeCopied    = "Código PIX copiado!"
)

var (
	// ErrSubmitInFlight indica que já existe um envio em andamento
	ErrSubmitInFlight = errors.New("checkout: envio em andamento")

	// ErrNotEditable indica tentativa de editar fora do formulário
	ErrNotEditable = errors.New("checkout: formulário indisponível")

	// ErrNoProduct indica sessão sem produto aberto
	ErrNoProduct = errors.New("checkout: nenhum produto selecionado")

	// ErrNoCharge indica que não há código PIX para copiar
	ErrNoCharge = errors.New("checkout: nenhum PIX gerado")

	// ErrSessionClosed indica que a sessão foi fechada durante o envio
	ErrSessionClosed = errors.New("checkout: sessão fechada")
)

// Clipboard recebe o código PIX copiado. Opcional.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Option configura a Session
type Option func(*Session)

// WithCopiedResetDelay altera o tempo do indicador "copiado"
func WithCopiedResetDelay(d time.Duration) Option {
	return func(s *Session) { s.copiedDelay = d }
}

// WithLogger define o logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithKeyGenerator substitui o gerador de chave de idempotência
func WithKeyGenerator(fn func() string) Option {
	return func(s *Session) { s.newKey = fn }
}

// Session é a máquina de estados de uma compra.
// Segura para uso concorrente; a chamada de rede ocorre fora do lock.
type Session struct {
	boundary    ports.ChargeBoundary
	clipboard   Clipboard
	copiedDelay time.Duration
	logger      *zap.Logger
	newKey      func() string

	mu           sync.Mutex
	state        State
	product      *domain.Product
	fields       format.Fields
	charge       *domain.PixCharge
	deliveryLink string
	notice       *Notice
	copied       bool
	copyTimer    *time.Timer
	copySeq      uint64
	key          string
	generation   uint64
	updatedAt    time.Time
}

// NewSession cria uma sessão no estado Form, sem produto
func NewSession(boundary ports.ChargeBoundary, clipboard Clipboard, opts ...Option) *Session {
	s := &Session{
		boundary:    boundary,
		clipboard:   clipboard,
		copiedDelay: CopiedResetDelay,
		logger:      zap.NewNop(),
		newKey:      func() string { return uuid.NewString() },
		state:       StateForm,
		updatedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open inicia uma compra do produto, descartando qualquer estado anterior
func (s *Session) Open(product *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.product = product
	s.key = s.newKey()
	s.logger.Debug("sessão aberta", zap.String("slug", product.Slug))
}

// Close volta ao formulário vazio. Um envio em andamento tem o resultado descartado.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.product = nil
}

func (s *Session) resetLocked() {
	s.generation++
	s.state = StateForm
	s.fields = format.Fields{}
	s.charge = nil
	s.deliveryLink = ""
	s.notice = nil
	s.copied = false
	s.key = ""
	s.copySeq++
	if s.copyTimer != nil {
		s.copyTimer.Stop()
		s.copyTimer = nil
	}
	s.touchLocked()
}

// SetName altera o nome do comprador
func (s *Session) SetName(v string) error {
	return s.edit(func(f *format.Fields) { f.Name = v })
}

// SetEmail altera o e-mail do comprador
func (s *Session) SetEmail(v string) error {
	return s.edit(func(f *format.Fields) { f.Email = v })
}

// SetDocument aplica a máscara de CPF ao valor digitado
func (s *Session) SetDocument(v string) error {
	return s.edit(func(f *format.Fields) { f.Document = format.FormatDocument(v) })
}

// SetPhone aplica a máscara de telefone ao valor digitado
func (s *Session) SetPhone(v string) error {
	return s.edit(func(f *format.Fields) { f.Phone = format.FormatPhone(v) })
}

// SetFields aplica todos os campos de uma vez, com as máscaras
func (s *Session) SetFields(f format.Fields) error {
	return s.edit(func(dst *format.Fields) {
		dst.Name = f.Name
		dst.Email = f.Email
		dst.Document = format.FormatDocument(f.Document)
		dst.Phone = format.FormatPhone(f.Phone)
	})
}

func (s *Session) edit(fn func(f *format.Fields)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateForm {
		return ErrNotEditable
	}
	fn(&s.fields)
	s.touchLocked()
	return nil
}

// Submit valida o formulário e pede a cobrança ao boundary.
// Apenas um envio por vez: um segundo Submit durante o envio retorna
// ErrSubmitInFlight sem chamar o boundary.
func (s *Session) Submit(ctx context.Context) (*domain.PixCharge, error) {
	s.mu.Lock()
	switch {
	case s.state == StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	case s.state != StateForm:
		s.mu.Unlock()
		return nil, ErrNotEditable
	case s.product == nil:
		s.mu.Unlock()
		return nil, ErrNoProduct
	}

	if err := format.ValidateSubmission(s.fields); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrValidation, err)
		s.notice = errorNotice(err)
		s.touchLocked()
		s.mu.Unlock()
		return nil, err
	}

	req := domain.PaymentRequest{
		Amount:           s.product.Price,
		CustomerName:     s.fields.Name,
		CustomerEmail:    s.fields.Email,
		CustomerDocument: s.fields.Document,
		CustomerPhone:    s.fields.Phone,
		IdempotencyKey:   s.key,
	}
	gen := s.generation
	s.state = StateSubmitting
	s.notice = nil
	s.touchLocked()
	s.mu.Unlock()

	charge, err := s.boundary.RequestCharge(ctx, req)
	if err == nil && (charge == nil || charge.PaymentCode == "") {
		err = fmt.Errorf("%w: código PIX ausente na resposta", domain.ErrChargeCreation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.Info("resultado descartado: sessão fechada durante o envio")
		return nil, ErrSessionClosed
	}

	if err != nil {
		s.logger.Warn("falha ao gerar PIX", zap.Error(err), zap.String("kind", string(domain.KindOf(err))))
		s.state = StateForm
		s.notice = errorNotice(err)
		s.touchLocked()
		return nil, err
	}

	s.charge = charge
	s.state = StateShown
	s.notice = &Notice{Level: NoticeSuccess, Message: MsgChargeCreated}
	s.touchLocked()
	return charge, nil
}

// Copy envia o código PIX ao clipboard e liga o indicador "copiado" por
// copiedDelay. Repetir o Copy reinicia o prazo.
func (s *Session) Copy(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.charge == nil || (s.state != StateShown && s.state != StateConfirmed) {
		s.mu.Unlock()
		return "", ErrNoCharge
	}
	code := s.charge.PaymentCode
	gen := s.generation
	s.mu.Unlock()

	if s.clipboard != nil {
		if err := s.clipboard.WriteText(ctx, code); err != nil {
			return "", fmt.Errorf("erro ao copiar código PIX: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return "", ErrSessionClosed
	}

	s.copied = true
	s.notice = &Notice{Level: NoticeSuccess, Message: MsgCodeCopied}
	if s.copyTimer != nil {
		s.copyTimer.Stop()
	}
	// Um timer antigo que já disparou encontra copySeq avançado e não faz nada
	s.copySeq++
	seq := s.copySeq
	s.copyTimer = time.AfterFunc(s.copiedDelay, func() { s.expireCopied(seq) })
	s.touchLocked()
	return code, nil
}

// expireCopied desliga o indicador se seq ainda é a cópia mais recente
func (s *Session) expireCopied(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.copySeq == seq {
		s.copied = false
	}
}

// Confirm libera o link de entrega quando a transação informada é a desta
// sessão. Retorna false se nada mudou.
func (s *Session) Confirm(transactionID, deliveryLink string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateShown || s.charge == nil || s.charge.TransactionID != transactionID {
		return false
	}
	charge := *s.charge
	charge.Status = domain.ChargeStatusPaid
	s.charge = &charge
	s.deliveryLink = deliveryLink
	s.state = StateConfirmed
	s.touchLocked()
	return true
}

// TransactionID retorna a transação exibida, se houver
func (s *Session) TransactionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.charge == nil {
		return ""
	}
	return s.charge.TransactionID
}

// Product retorna o produto aberto
func (s *Session) Product() *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.product
}

// IdleSince retorna o instante da última alteração
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touchLocked() {
	s.updatedAt = time.Now()
}
