package format

import (
	"errors"
	"fmt"
	"strings"
)

// Nomes dos campos do formulário, usados em MissingFieldsError
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldDocument = "cpf"
	FieldPhone    = "phone"
)

var (
	// ErrMissingFields indica que algum campo obrigatório está vazio
	ErrMissingFields = errors.New("preencha todos os campos")

	// ErrInvalidDocument indica CPF com quantidade de dígitos diferente de 11
	ErrInvalidDocument = errors.New("CPF inválido")
)

// Fields são os dados do comprador como digitados no formulário
type Fields struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"cpf"`
	Phone    string `json:"phone"`
}

// MissingFieldsError lista os campos vazios após remover a formatação
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFields.Error(), strings.Join(e.Fields, ", "))
}

// Is permite errors.Is(err, ErrMissingFields)
func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}

// ValidateSubmission verifica se o formulário pode ser enviado.
// Retorna nil, *MissingFieldsError ou ErrInvalidDocument.
func ValidateSubmission(f Fields) error {
	var missing []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, FieldEmail)
	}
	if Digits(f.Document) == "" {
		missing = append(missing, FieldDocument)
	}
	if Digits(f.Phone) == "" {
		missing = append(missing, FieldPhone)
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	if len(Digits(f.Document)) != DocumentDigits {
		return ErrInvalidDocument
	}
	return nil
}
