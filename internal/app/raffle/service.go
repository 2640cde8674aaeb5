// Pacote raffle implementa as regras da rodada: entradas, listagem, sorteio ponderado e reset.
package raffle

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/marcelojr/rifa/internal/domain"
	"github.com/marcelojr/rifa/internal/platform/ids"
	"github.com/marcelojr/rifa/internal/platform/logger"
	"github.com/marcelojr/rifa/internal/platform/metrics"
)

var (
	ErrEnderecoInvalido      = errors.New("endereco invalido")
	ErrBilhetesInvalidos     = errors.New("quantidade de bilhetes invalida")
	ErrEntradaDuplicada      = errors.New("endereco ja entrou nesta rodada")
	ErrSemEntradas           = errors.New("nenhuma entrada nesta rodada")
	ErrSorteioEmAndamento    = errors.New("sorteio ja em andamento")
	ErrProibido              = errors.New("acesso proibido")
	ErrModoSnapshot          = errors.New("entradas vem do snapshot de holders")
	ErrConjuntoVazio         = errors.New("conjunto de entradas vazio")
	ErrTotalBilhetesExcedido = errors.New("total de bilhetes excede o limite")
	ErrPersistencia          = errors.New("falha ao persistir rodada")
)

// Service orquestra ledger, fonte de holders e selecionador. Sem fonte, opera em modo manual.
type Service struct {
	ledger       *Ledger
	fonte        *FonteComCache
	selecionador *Selecionador
	antifraude   domain.Antifraude
	clock        domain.Clock
	ids          *ids.Generator

	// sorteando é o portão DrawInFlight: quem não consegue o CAS desiste na hora.
	sorteando atomic.Bool
}

func NewService(
	ledger *Ledger,
	fonte *FonteComCache,
	selecionador *Selecionador,
	antifraude domain.Antifraude,
	clock domain.Clock,
	idsGen *ids.Generator,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	if selecionador == nil {
		selecionador = NewSelecionador()
	}
	return &Service{
		ledger:       ledger,
		fonte:        fonte,
		selecionador: selecionador,
		antifraude:   antifraude,
		clock:        clock,
		ids:          idsGen,
	}
}

func (s *Service) ModoSnapshot() bool {
	return s.fonte != nil
}

// Entrar registra a entrada manual e devolve o total de bilhetes da rodada.
func (s *Service) Entrar(ctx context.Context, endereco string, bilhetes int64) (int64, error) {
	if s.ModoSnapshot() {
		metrics.ObserveEntryRequest("snapshot_mode")
		return 0, ErrModoSnapshot
	}

	normalizado, err := NormalizarEndereco(endereco)
	if err != nil {
		metrics.ObserveEntryRequest("invalid")
		return 0, err
	}

	if s.antifraude != nil {
		if err := s.antifraude.Validar(ctx, normalizado); err != nil {
			metrics.ObserveEntryRequest("rate_limited")
			return 0, err
		}
	}

	total, err := s.ledger.RegistrarEntrada(ctx, string(normalizado), bilhetes)
	if err != nil {
		metrics.ObserveEntryRequest(statusEntrada(err))
		return 0, err
	}

	metrics.ObserveEntryRequest("accepted")
	metrics.SetRoundTickets(total)
	logger.Info("entrada registrada", "endereco", normalizado, "bilhetes", bilhetes, "total", total)
	return total, nil
}

// ListarEntradas aplica a mesma regra de atualização do sorteio, então o que é exibido é o que será sorteado.
func (s *Service) ListarEntradas(ctx context.Context) (domain.Listagem, error) {
	origem := domain.OrigemLedger
	if s.ModoSnapshot() {
		var err error
		if origem, err = s.fonte.Atualizar(ctx); err != nil {
			return domain.Listagem{}, err
		}
	}

	entradas := s.ledger.Listar()
	listagem := domain.Listagem{Entradas: entradas, Origem: origem}
	for _, e := range entradas {
		listagem.TotalBilhetes += e.Bilhetes
	}
	metrics.SetRoundTickets(listagem.TotalBilhetes)
	return listagem, nil
}

func (s *Service) UltimoVencedor(ctx context.Context) (*domain.Endereco, error) {
	return s.ledger.Rodada().UltimoVencedor, nil
}

// Sortear escolhe um vencedor e reseta a rodada. Um segundo pedido enquanto outro está em
// andamento falha com ErrSorteioEmAndamento; pedidos não são enfileirados.
func (s *Service) Sortear(ctx context.Context, gatilho domain.Gatilho) (domain.ResultadoSorteio, error) {
	if !s.sorteando.CompareAndSwap(false, true) {
		metrics.ObserveDraw(string(gatilho), "in_progress")
		return domain.ResultadoSorteio{}, ErrSorteioEmAndamento
	}
	defer s.sorteando.Store(false)

	origem := domain.OrigemLedger
	if s.ModoSnapshot() {
		var err error
		if origem, err = s.fonte.Atualizar(ctx); err != nil {
			metrics.ObserveDraw(string(gatilho), "error")
			return domain.ResultadoSorteio{}, err
		}
	}

	fim, err := s.ledger.encerrar(ctx, s.selecionador.Selecionar)
	if err != nil {
		if errors.Is(err, ErrSemEntradas) {
			metrics.ObserveDraw(string(gatilho), "no_entries")
		} else {
			metrics.ObserveDraw(string(gatilho), "error")
		}
		return domain.ResultadoSorteio{}, err
	}

	agora := s.clock.Agora()
	resultado := domain.ResultadoSorteio{
		ID:            domain.SorteioID(s.ids.NewAt(agora)),
		Vencedor:      fim.vencedor,
		TotalBilhetes: fim.totalBilhetes,
		Participantes: fim.participantes,
		Gatilho:       gatilho,
		Origem:        origem,
		RealizadoEm:   agora,
	}

	metrics.ObserveDraw(string(gatilho), "drawn")
	metrics.SetRoundTickets(0)
	logger.Info("sorteio realizado",
		"sorteio", resultado.ID,
		"gatilho", gatilho,
		"vencedor", resultado.Vencedor,
		"bilhetes", resultado.TotalBilhetes,
		"participantes", resultado.Participantes,
		"origem", origem,
	)
	return resultado, nil
}

func statusEntrada(err error) string {
	switch {
	case errors.Is(err, ErrEnderecoInvalido), errors.Is(err, ErrBilhetesInvalidos):
		return "invalid"
	case errors.Is(err, ErrEntradaDuplicada):
		return "duplicate"
	default:
		return "error"
	}
}

var _ domain.RaffleService = (*Service)(nil)
