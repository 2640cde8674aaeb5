package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/marcelojr/rifa/internal/domain"
)

func setupBolt(t *testing.T) *bolt.DB {
	db, err := Open(filepath.Join(t.TempDir(), "rifa.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestRodadaStore_Carregar_QuandoVazio_DeveRetornarNotFound(t *testing.T) {
	store := NewRodadaStore(setupBolt(t))

	_, err := store.Carregar(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRodadaStore_Substituir_DeveSobrescreverEstadoAnterior(t *testing.T) {
	store := NewRodadaStore(setupBolt(t))
	ctx := context.Background()

	primeira := domain.Rodada{Entradas: []domain.Entrada{{Endereco: "0xaaa", Bilhetes: 2}}}
	require.NoError(t, store.Substituir(ctx, primeira))

	vencedor := domain.Endereco("0xaaa")
	segunda := domain.Rodada{Entradas: []domain.Entrada{}, UltimoVencedor: &vencedor}
	require.NoError(t, store.Substituir(ctx, segunda))

	carregada, err := store.Carregar(ctx)

	require.NoError(t, err)
	assert.Equal(t, segunda, carregada)
}

func TestRodadaStore_Carregar_QuandoContextoCancelado_DeveFalhar(t *testing.T) {
	store := NewRodadaStore(setupBolt(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Carregar(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
