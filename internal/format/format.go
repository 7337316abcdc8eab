// Package format aplica as máscaras de exibição de CPF e telefone e valida
// os dados do comprador antes de qualquer chamada de rede.
//
// Todas as funções são puras e totais: qualquer entrada produz uma string,
// nunca um panic.
package format

import "strings"

const (
	// DocumentDigits é a quantidade de dígitos de um CPF
	DocumentDigits = 11

	// PhoneDigits é a quantidade máxima de dígitos de um telefone com DDD
	PhoneDigits = 11
)

// Digits remove tudo que não for dígito ASCII
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// FormatDocument aplica a máscara ###.###.###-## sobre os dígitos informados.
// Dígitos além do 11º são descartados; entrada parcial gera máscara parcial.
func FormatDocument(raw string) string {
	d := truncate(Digits(raw), DocumentDigits)

	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// FormatPhone aplica a máscara (##) #####-#### sobre os dígitos informados.
// Um fixo completo de 10 dígitos vira (##) ####-####.
func FormatPhone(raw string) string {
	d := truncate(Digits(raw), PhoneDigits)
	if len(d) <= 2 {
		return d
	}

	// Celular usa 5 dígitos antes do traço; fixo completo usa 4
	split := 7
	if len(d) == 10 {
		split = 6
	}

	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(d[:2])
	b.WriteString(") ")
	if len(d) <= split {
		b.WriteString(d[2:])
		return b.String()
	}
	b.WriteString(d[2:split])
	b.WriteByte('-')
	b.WriteString(d[split:])
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
