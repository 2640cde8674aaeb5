package raffle

import (
	"context"
	"errors"
	"time"

	"github.com/marcelojr/rifa/internal/domain"
	"github.com/marcelojr/rifa/internal/platform/logger"
	"github.com/marcelojr/rifa/internal/platform/metrics"
)

const timeoutPadrao = 10 * time.Second

// FonteComCache aplica a regra única de atualização: tenta o snapshot ao vivo com timeout,
// grava no ledger quando dá certo e, em qualquer falha, segue com o que já está gravado.
type FonteComCache struct {
	provider domain.SnapshotProvider
	ledger   *Ledger
	timeout  time.Duration
}

func NewFonteComCache(provider domain.SnapshotProvider, ledger *Ledger, timeout time.Duration) *FonteComCache {
	if timeout <= 0 {
		timeout = timeoutPadrao
	}
	return &FonteComCache{provider: provider, ledger: ledger, timeout: timeout}
}

// Atualizar só devolve erro quando o snapshot chegou mas não pôde ser persistido. Um snapshot
// cuja soma de bilhetes estoura conta como falha de fetch.
func (f *FonteComCache) Atualizar(ctx context.Context) (domain.Origem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	inicio := time.Now()
	snapshot, err := f.provider.BuscarSnapshot(fetchCtx)
	cancel()
	metrics.ObserveSnapshotFetch(time.Since(inicio).Seconds())

	if err != nil {
		metrics.IncSnapshotFallback()
		logger.Warn("snapshot de holders indisponivel, usando cache local", "err", err)
		return domain.OrigemCache, nil
	}

	if err := f.ledger.SubstituirPorSnapshot(ctx, snapshot); err != nil {
		if errors.Is(err, ErrTotalBilhetesExcedido) {
			metrics.IncSnapshotFallback()
			logger.Warn("snapshot de holders recusado, usando cache local", "err", err, "holders", len(snapshot))
			return domain.OrigemCache, nil
		}
		return "", err
	}
	return domain.OrigemLive, nil
}
