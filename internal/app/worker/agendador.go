// Pacote worker dispara os sorteios agendados nas horas configuradas.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marcelojr/rifa/internal/app/raffle"
	"github.com/marcelojr/rifa/internal/domain"
	"github.com/marcelojr/rifa/internal/platform/logger"
)

// janelaBusca cobre o pior caso: a única hora configurada acabou de passar.
const janelaBusca = 48

type Sorteador interface {
	Sortear(ctx context.Context, gatilho domain.Gatilho) (domain.ResultadoSorteio, error)
}

// Agendador dispara um sorteio no minuto zero de cada hora configurada. Disparos
// perdidos enquanto o processo estava parado não são recuperados.
type Agendador struct {
	sorteador Sorteador
	horas     [24]bool
	ativo     bool
	fuso      *time.Location
	clock     domain.Clock
	timeout   time.Duration
	depois    func(d time.Duration) (<-chan time.Time, func() bool)

	wg sync.WaitGroup
}

func NewAgendador(sorteador Sorteador, horas []int, fuso *time.Location, clock domain.Clock, timeout time.Duration) *Agendador {
	if fuso == nil {
		fuso = time.Local
	}
	a := &Agendador{
		sorteador: sorteador,
		fuso:      fuso,
		clock:     clock,
		timeout:   timeout,
		depois: func(d time.Duration) (<-chan time.Time, func() bool) {
			t := time.NewTimer(d)
			return t.C, t.Stop
		},
	}
	for _, h := range horas {
		if h >= 0 && h < 24 {
			a.horas[h] = true
			a.ativo = true
		}
	}
	return a
}

// ProximoDisparo devolve o primeiro HH:00 configurado estritamente depois de agora.
// Sem horas configuradas devolve o instante zero.
func (a *Agendador) ProximoDisparo(agora time.Time) time.Time {
	if !a.ativo {
		return time.Time{}
	}

	local := agora.In(a.fuso)
	for i := 0; i <= janelaBusca; i++ {
		candidato := time.Date(local.Year(), local.Month(), local.Day(), local.Hour()+i, 0, 0, 0, a.fuso)
		if candidato.After(agora) && a.horas[candidato.Hour()] {
			return candidato
		}
	}
	return time.Time{}
}

// Run bloqueia até ctx ser cancelado. Cada disparo roda na própria goroutine; ao sair,
// espera os sorteios em andamento terminarem.
func (a *Agendador) Run(ctx context.Context) error {
	defer a.wg.Wait()

	if !a.ativo {
		logger.Info("agendador desativado: nenhuma hora configurada")
		<-ctx.Done()
		return ctx.Err()
	}

	var ultimo time.Time
	for {
		base := a.clock.Agora()
		if !base.After(ultimo) {
			base = ultimo
		}
		proximo := a.ProximoDisparo(base)
		logger.Info("proximo sorteio agendado", "em", proximo)

		espera, parar := a.depois(proximo.Sub(a.clock.Agora()))
		select {
		case <-ctx.Done():
			parar()
			return ctx.Err()
		case <-espera:
		}

		ultimo = proximo
		a.wg.Add(1)
		go func(previsto time.Time) {
			defer a.wg.Done()
			a.disparar(ctx, previsto)
		}(proximo)
	}
}

func (a *Agendador) disparar(ctx context.Context, previsto time.Time) {
	// O sorteio termina mesmo durante o shutdown; só o timeout o interrompe.
	drawCtx := context.WithoutCancel(ctx)
	if a.timeout > 0 {
		var cancel context.CancelFunc
		drawCtx, cancel = context.WithTimeout(drawCtx, a.timeout)
		defer cancel()
	}

	resultado, err := a.sorteador.Sortear(drawCtx, domain.GatilhoAgendado)
	switch {
	case errors.Is(err, raffle.ErrSorteioEmAndamento):
		logger.Warn("disparo agendado descartado: sorteio em andamento", "previsto", previsto)
	case errors.Is(err, raffle.ErrSemEntradas):
		logger.Info("disparo agendado sem entradas", "previsto", previsto)
	case err != nil:
		logger.Error("sorteio agendado falhou", "previsto", previsto, "err", err)
	default:
		logger.Info("sorteio agendado concluido", "previsto", previsto, "sorteio", resultado.ID, "vencedor", resultado.Vencedor)
	}
}
