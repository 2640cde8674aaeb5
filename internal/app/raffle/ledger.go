package raffle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/marcelojr/rifa/internal/domain"
)

// Ledger é o dono da rodada viva. Toda mutação monta um novo estado, grava no store
// e só depois troca o estado em memória; se a gravação falha nada muda.
type Ledger struct {
	mu     sync.RWMutex
	store  domain.RodadaStore
	rodada domain.Rodada
}

type encerramento struct {
	vencedor      domain.Endereco
	totalBilhetes int64
	participantes int
}

// NewLedger carrega a rodada persistida; no primeiro boot grava uma rodada vazia.
func NewLedger(ctx context.Context, store domain.RodadaStore) (*Ledger, error) {
	rodada, err := store.Carregar(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		rodada = domain.RodadaVazia()
		if err := store.Substituir(ctx, rodada); err != nil {
			return nil, fmt.Errorf("ledger: criar rodada inicial: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("ledger: carregar rodada: %w", err)
	}

	return &Ledger{store: store, rodada: rodada.Clone()}, nil
}

// RegistrarEntrada aceita no máximo uma entrada por endereço e devolve o total de bilhetes da rodada.
func (l *Ledger) RegistrarEntrada(ctx context.Context, endereco string, bilhetes int64) (int64, error) {
	normalizado, err := NormalizarEndereco(endereco)
	if err != nil {
		return 0, err
	}
	if bilhetes < 1 {
		return 0, ErrBilhetesInvalidos
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.rodada.Entradas {
		if e.Endereco == normalizado {
			return 0, ErrEntradaDuplicada
		}
	}
	// Uma rodada cuja soma estoura int64 nunca mais poderia ser sorteada.
	if l.rodada.TotalBilhetes() > math.MaxInt64-bilhetes {
		return 0, ErrBilhetesInvalidos
	}

	nova := l.rodada.Clone()
	nova.Entradas = append(nova.Entradas, domain.Entrada{Endereco: normalizado, Bilhetes: bilhetes})
	if err := l.gravar(ctx, nova); err != nil {
		return 0, err
	}
	return nova.TotalBilhetes(), nil
}

// SubstituirPorSnapshot troca o conjunto inteiro de entradas pelo snapshot. A ordem é
// bilhetes desc e endereço asc, então aplicar o mesmo snapshot duas vezes dá o mesmo estado.
// Um snapshot cuja soma estoura int64 é recusado com ErrTotalBilhetesExcedido sem tocar na rodada.
func (l *Ledger) SubstituirPorSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	entradas := make([]domain.Entrada, 0, len(snapshot))
	var total int64
	for endereco, bilhetes := range snapshot {
		if bilhetes <= 0 {
			continue
		}
		if total > math.MaxInt64-bilhetes {
			return ErrTotalBilhetesExcedido
		}
		total += bilhetes
		entradas = append(entradas, domain.Entrada{Endereco: endereco, Bilhetes: bilhetes})
	}
	sort.Slice(entradas, func(i, j int) bool {
		if entradas[i].Bilhetes != entradas[j].Bilhetes {
			return entradas[i].Bilhetes > entradas[j].Bilhetes
		}
		return entradas[i].Endereco < entradas[j].Endereco
	})

	l.mu.Lock()
	defer l.mu.Unlock()

	if slices.Equal(entradas, l.rodada.Entradas) {
		return nil
	}

	nova := l.rodada.Clone()
	nova.Entradas = entradas
	return l.gravar(ctx, nova)
}

// Listar devolve uma cópia; a ordem só muda quando a rodada muda.
func (l *Ledger) Listar() []domain.Entrada {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rodada.Clone().Entradas
}

func (l *Ledger) Rodada() domain.Rodada {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rodada.Clone()
}

// encerrar escolhe o vencedor e reseta a rodada sob o mesmo lock; o conjunto
// sorteado é exatamente o conjunto apagado.
func (l *Ledger) encerrar(ctx context.Context, escolher func([]domain.Entrada) (domain.Endereco, error)) (encerramento, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.rodada.Entradas) == 0 {
		return encerramento{}, ErrSemEntradas
	}

	atual := l.rodada.Clone()
	vencedor, err := escolher(atual.Entradas)
	if err != nil {
		if errors.Is(err, ErrConjuntoVazio) {
			return encerramento{}, ErrSemEntradas
		}
		return encerramento{}, err
	}

	if err := l.resetar(ctx, vencedor); err != nil {
		return encerramento{}, err
	}

	return encerramento{
		vencedor:      vencedor,
		totalBilhetes: atual.TotalBilhetes(),
		participantes: len(atual.Entradas),
	}, nil
}

// resetar esvazia a rodada e registra o vencedor; exige l.mu travado para escrita.
func (l *Ledger) resetar(ctx context.Context, vencedor domain.Endereco) error {
	v := vencedor
	return l.gravar(ctx, domain.Rodada{Entradas: []domain.Entrada{}, UltimoVencedor: &v})
}

// gravar exige l.mu travado para escrita.
func (l *Ledger) gravar(ctx context.Context, nova domain.Rodada) error {
	if err := l.store.Substituir(ctx, nova); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistencia, err)
	}
	l.rodada = nova
	return nil
}
