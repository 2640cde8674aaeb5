package raffle

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/marcelojr/rifa/internal/domain"
)

// Selecionador sorteia um endereço com probabilidade proporcional aos bilhetes.
type Selecionador struct {
	mu      sync.Mutex
	sortear func(n int64) int64
}

func NewSelecionador() *Selecionador {
	return &Selecionador{sortear: rand.Int64N}
}

// NewSelecionadorComFonte usa uma fonte fixa, útil para reproduzir distribuições em testes.
func NewSelecionadorComFonte(src rand.Source) *Selecionador {
	rng := rand.New(src)
	return &Selecionador{sortear: rng.Int64N}
}

// Selecionar percorre as entradas na ordem recebida acumulando bilhetes; vence a primeira
// cuja soma acumulada ultrapassa r, com r uniforme em [0, total). Custo O(entradas).
func (s *Selecionador) Selecionar(entradas []domain.Entrada) (domain.Endereco, error) {
	var total int64
	for _, e := range entradas {
		if e.Bilhetes <= 0 {
			continue
		}
		if total > math.MaxInt64-e.Bilhetes {
			return "", ErrTotalBilhetesExcedido
		}
		total += e.Bilhetes
	}
	if total == 0 {
		return "", ErrConjuntoVazio
	}

	s.mu.Lock()
	r := s.sortear(total)
	s.mu.Unlock()

	var acumulado int64
	for _, e := range entradas {
		if e.Bilhetes <= 0 {
			continue
		}
		acumulado += e.Bilhetes
		if acumulado > r {
			return e.Endereco, nil
		}
	}

	// Inalcançável com r em [0, total).
	return "", ErrConjuntoVazio
}
