package checkout

import (
	"github.com/magnani/vip-club/backend/internal/domain"
	"github.com/magnani/vip-club/backend/internal/format"
)

// State é a etapa da compra
type State string

const (
	StateForm       State = "form"
	StateSubmitting State = "submitting"
	StateShown      State = "payment"
	StateConfirmed  State = "confirmed"
)

// NoticeLevel indica o tipo de aviso
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice é um aviso transitório (toast)
type Notice struct {
	Level   NoticeLevel      `json:"level"`
	Message string           `json:"message"`
	Kind    domain.ErrorKind `json:"kind,omitempty"`
}

func errorNotice(err error) *Notice {
	return &Notice{
		Level:   NoticeError,
		Message: domain.UserMessage(err),
		Kind:    domain.KindOf(err),
	}
}

// View é uma cópia imutável da sessão para renderização
type View struct {
	State        State         `json:"step"`
	Loading      bool          `json:"loading"`
	Product      *ProductView  `json:"product,omitempty"`
	Fields       format.Fields `json:"fields"`
	Charge       *ChargeView   `json:"charge,omitempty"`
	DeliveryLink string        `json:"deliveryLink,omitempty"`
	Copied       bool          `json:"copied"`
	Notice       *Notice       `json:"notice,omitempty"`
}

// ProductView é o produto como exibido no modal
type ProductView struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	PriceLabel string `json:"priceLabel"`
}

// ChargeView é o PIX como exibido no modal
type ChargeView struct {
	TransactionID string `json:"transactionId"`
	PaymentCode   string `json:"paymentCode"`
	QRCodeImage   string `json:"qrCodeImage,omitempty"` // data URI
	Status        string `json:"status,omitempty"`
}

// Snapshot retorna o estado atual para renderização
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TakeNotice retorna a view e consome o aviso, que é exibido uma única vez
func (s *Session) TakeNotice() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.snapshotLocked()
	s.notice = nil
	return v
}

func (s *Session) snapshotLocked() View {
	v := View{
		State:        s.state,
		Loading:      s.state == StateSubmitting,
		Fields:       s.fields,
		DeliveryLink: s.deliveryLink,
		Copied:       s.copied,
	}
	if s.product != nil {
		v.Product = &ProductView{
			Slug:       s.product.Slug,
			Name:       s.product.Name,
			PriceLabel: s.product.PriceLabel(),
		}
	}
	if s.charge != nil {
		v.Charge = &ChargeView{
			TransactionID: s.charge.TransactionID,
			PaymentCode:   s.charge.PaymentCode,
			QRCodeImage:   s.charge.QRCodeDataURI(),
			Status:        string(s.charge.Status),
		}
	}
	if s.notice != nil {
		n := *s.notice
		v.Notice = &n
	}
	return v
}
