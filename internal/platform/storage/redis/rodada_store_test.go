package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/rifa/internal/domain"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestRodadaStore_Carregar_QuandoChaveNaoExiste_DeveRetornarNotFound(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewRodadaStore(client, "rifa:rodada")

	_, err := store.Carregar(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRodadaStore_SubstituirECarregar_DeveReproduzirRodada(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRodadaStore(client, "rifa:rodada")
	ctx := context.Background()

	vencedor := domain.Endereco("0xccc")
	rodada := domain.Rodada{
		Entradas: []domain.Entrada{
			{Endereco: "0xaaa", Bilhetes: 10},
			{Endereco: "0xbbb", Bilhetes: 5},
		},
		UltimoVencedor: &vencedor,
	}

	// Act
	require.NoError(t, store.Substituir(ctx, rodada))
	carregada, err := store.Carregar(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, rodada, carregada)

	bruto, err := mr.Get("rifa:rodada")
	require.NoError(t, err)
	assert.Contains(t, bruto, `"lastWinner": "0xccc"`)
}

func TestRodadaStore_Carregar_QuandoPayloadInvalido_DeveFalhar(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRodadaStore(client, "rifa:rodada")
	require.NoError(t, mr.Set("rifa:rodada", "nao-json"))

	_, err := store.Carregar(context.Background())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestRodadaStore_Substituir_QuandoRedisIndisponivel_DeveFalhar(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRodadaStore(client, "")
	mr.Close()

	err := store.Substituir(context.Background(), domain.RodadaVazia())

	assert.Error(t, err)
}

func TestNewRodadaStore_QuandoChaveVazia_DeveUsarPadrao(t *testing.T) {
	client, _ := setupRedis(t)

	store := NewRodadaStore(client, "")

	assert.Equal(t, "rifa:rodada", store.key)
}
