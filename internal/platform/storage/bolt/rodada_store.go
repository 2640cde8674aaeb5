// Pacote bolt guarda a rodada num arquivo bbolt embutido, útil quando não há Postgres nem Redis.
package bolt

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/marcelojr/rifa/internal/domain"
)

var (
	bucketRodada = []byte("rodada")
	chaveAtual   = []byte("atual")
)

type RodadaStore struct {
	db *bolt.DB
}

func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: abrir %s: %w", path, err)
	}
	return db, nil
}

func NewRodadaStore(db *bolt.DB) *RodadaStore {
	return &RodadaStore{db: db}
}

func (s *RodadaStore) Carregar(ctx context.Context) (domain.Rodada, error) {
	if err := ctx.Err(); err != nil {
		return domain.Rodada{}, err
	}

	var payload []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRodada)
		if b == nil {
			return nil
		}
		if v := b.Get(chaveAtual); v != nil {
			// O slice só vale dentro da transação.
			payload = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return domain.Rodada{}, fmt.Errorf("bolt rodada: ler: %w", err)
	}
	if payload == nil {
		return domain.Rodada{}, domain.ErrNotFound
	}

	rodada, err := domain.DecodificarRodada(payload)
	if err != nil {
		return domain.Rodada{}, fmt.Errorf("bolt rodada: %w", err)
	}
	return rodada, nil
}

func (s *RodadaStore) Substituir(ctx context.Context, rodada domain.Rodada) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := domain.CodificarRodada(rodada)
	if err != nil {
		return fmt.Errorf("bolt rodada: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketRodada)
		if err != nil {
			return err
		}
		return b.Put(chaveAtual, payload)
	})
	if err != nil {
		return fmt.Errorf("bolt rodada: gravar: %w", err)
	}
	return nil
}

var _ domain.RodadaStore = (*RodadaStore)(nil)
