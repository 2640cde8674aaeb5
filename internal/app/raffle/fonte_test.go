package raffle

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/rifa/internal/domain"
)

func TestAtualizar_QuandoLiveResponde_DeveSobrescreverLedger(t *testing.T) {
	ledger, store := novoLedger(t)
	provider := &fakeProvider{}
	provider.definir(domain.Snapshot{domain.Endereco(endereco("1")): 4}, nil)
	fonte := NewFonteComCache(provider, ledger, time.Second)

	origem, err := fonte.Atualizar(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.OrigemLive, origem)
	assert.Equal(t, []domain.Entrada{{Endereco: domain.Endereco(endereco("1")), Bilhetes: 4}}, ledger.Listar())
	assert.Equal(t, ledger.Listar(), store.snapshot().Entradas)
}

func TestAtualizar_QuandoLiveFalha_DeveManterCacheSemGravar(t *testing.T) {
	ledger, store := novoLedger(t)
	provider := &fakeProvider{}
	provider.definir(domain.Snapshot{domain.Endereco(endereco("1")): 4}, nil)
	fonte := NewFonteComCache(provider, ledger, time.Second)
	_, err := fonte.Atualizar(context.Background())
	require.NoError(t, err)
	antes := ledger.Listar()
	gravacoes := store.gravacoes

	provider.definir(nil, errors.New("indexador fora"))
	for i := 0; i < 3; i++ {
		origem, err := fonte.Atualizar(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.OrigemCache, origem)
	}

	assert.Equal(t, antes, ledger.Listar())
	assert.Equal(t, gravacoes, store.gravacoes)
}

func TestAtualizar_QuandoLiveEstouraTimeout_DeveUsarCache(t *testing.T) {
	ledger, _ := novoLedger(t)
	provider := newBloqueanteProvider(domain.Snapshot{domain.Endereco(endereco("1")): 1})
	fonte := NewFonteComCache(provider, ledger, 20*time.Millisecond)

	origem, err := fonte.Atualizar(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.OrigemCache, origem)
	assert.Empty(t, ledger.Listar())
}

func TestAtualizar_QuandoPersistenciaFalha_DeveRetornarErro(t *testing.T) {
	ledger, store := novoLedger(t)
	provider := &fakeProvider{}
	provider.definir(domain.Snapshot{domain.Endereco(endereco("1")): 4}, nil)
	fonte := NewFonteComCache(provider, ledger, time.Second)
	store.falhar(errStoreFora)

	_, err := fonte.Atualizar(context.Background())

	assert.ErrorIs(t, err, ErrPersistencia)
	assert.Empty(t, ledger.Listar())
}

func TestAtualizar_QuandoSnapshotEstouraSomaDeBilhetes_DeveUsarCache(t *testing.T) {
	ledger, store := novoLedger(t)
	provider := &fakeProvider{}
	provider.definir(domain.Snapshot{domain.Endereco(endereco("1")): 4}, nil)
	fonte := NewFonteComCache(provider, ledger, time.Second)
	_, err := fonte.Atualizar(context.Background())
	require.NoError(t, err)
	gravacoes := store.gravacoes

	provider.definir(domain.Snapshot{
		domain.Endereco(endereco("1")): math.MaxInt64,
		domain.Endereco(endereco("2")): 1,
	}, nil)
	origem, err := fonte.Atualizar(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.OrigemCache, origem)
	assert.Equal(t, []domain.Entrada{{Endereco: domain.Endereco(endereco("1")), Bilhetes: 4}}, ledger.Listar())
	assert.Equal(t, gravacoes, store.gravacoes)
}

func TestNewFonteComCache_QuandoTimeoutZero_DeveUsarPadrao(t *testing.T) {
	fonte := NewFonteComCache(&fakeProvider{}, nil, 0)

	assert.Equal(t, timeoutPadrao, fonte.timeout)
}
