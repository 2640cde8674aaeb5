package domain

import (
	"regexp"
	"strings"
)

// Endereço canônico: prefixo 0x seguido de 64 dígitos hex minúsculos.
var formatoEndereco = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// CanonizarEndereco aplica trim e caixa baixa e só então valida o formato.
func CanonizarEndereco(bruto string) (Endereco, bool) {
	endereco := strings.ToLower(strings.TrimSpace(bruto))
	if !formatoEndereco.MatchString(endereco) {
		return "", false
	}
	return Endereco(endereco), true
}
