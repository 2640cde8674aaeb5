package antifraude

import (
	"context"

	"github.com/marcelojr/rifa/internal/domain"
)

// Noop representa uma estratégia de antifraude desabilitada.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Validar(ctx context.Context, endereco domain.Endereco) error {
	return nil
}

var _ domain.Antifraude = Noop{}
