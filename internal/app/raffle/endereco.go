package raffle

import (
	"github.com/marcelojr/rifa/internal/domain"
)

// NormalizarEndereco devolve o endereço canônico ou ErrEnderecoInvalido.
func NormalizarEndereco(bruto string) (domain.Endereco, error) {
	endereco, ok := domain.CanonizarEndereco(bruto)
	if !ok {
		return "", ErrEnderecoInvalido
	}
	return endereco, nil
}
