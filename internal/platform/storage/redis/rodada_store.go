package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/rifa/internal/domain"
)

// RodadaStore guarda o documento inteiro numa única chave; SET é atômico no Redis.
type RodadaStore struct {
	client *redis.Client
	key    string
}

func NewRodadaStore(client *redis.Client, key string) *RodadaStore {
	if key == "" {
		key = "rifa:rodada"
	}
	return &RodadaStore{
		client: client,
		key:    key,
	}
}

func (s *RodadaStore) Carregar(ctx context.Context) (domain.Rodada, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Rodada{}, domain.ErrNotFound
		}
		return domain.Rodada{}, fmt.Errorf("redis rodada: ler: %w", err)
	}

	rodada, err := domain.DecodificarRodada(payload)
	if err != nil {
		return domain.Rodada{}, fmt.Errorf("redis rodada: %w", err)
	}
	return rodada, nil
}

func (s *RodadaStore) Substituir(ctx context.Context, rodada domain.Rodada) error {
	payload, err := domain.CodificarRodada(rodada)
	if err != nil {
		return fmt.Errorf("redis rodada: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis rodada: gravar: %w", err)
	}
	return nil
}

var _ domain.RodadaStore = (*RodadaStore)(nil)
