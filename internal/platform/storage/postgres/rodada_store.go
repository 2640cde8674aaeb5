package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/rifa/internal/domain"
)

// estadoID é a única linha de rodada_estado; só existe uma rodada viva.
const estadoID = 1

// RodadaStore mapeia a rodada para as tabelas rodada_entradas e rodada_estado.
type RodadaStore struct {
	db *gorm.DB
}

func NewRodadaStore(db *gorm.DB) *RodadaStore {
	return &RodadaStore{db: db}
}

func (s *RodadaStore) Carregar(ctx context.Context) (domain.Rodada, error) {
	var estado domain.EstadoRodada
	if err := s.db.WithContext(ctx).First(&estado, "id = ?", estadoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Rodada{}, domain.ErrNotFound
		}
		return domain.Rodada{}, fmt.Errorf("gorm rodada: buscar estado: %w", err)
	}

	var linhas []domain.EntradaRodada
	if err := s.db.WithContext(ctx).
		// Posicao preserva a ordem de exibição entre recargas.
		Order("posicao ASC").
		Find(&linhas).Error; err != nil {
		return domain.Rodada{}, fmt.Errorf("gorm rodada: listar entradas: %w", err)
	}

	rodada := domain.Rodada{Entradas: make([]domain.Entrada, len(linhas))}
	for i, l := range linhas {
		rodada.Entradas[i] = domain.Entrada{Endereco: domain.Endereco(l.Endereco), Bilhetes: l.Bilhetes}
	}
	if estado.UltimoVencedor != nil {
		v := domain.Endereco(*estado.UltimoVencedor)
		rodada.UltimoVencedor = &v
	}
	return rodada, nil
}

// Substituir troca entradas e último vencedor numa única transação.
func (s *RodadaStore) Substituir(ctx context.Context, rodada domain.Rodada) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.EntradaRodada{}).Error; err != nil {
			return fmt.Errorf("limpar entradas: %w", err)
		}

		if len(rodada.Entradas) > 0 {
			linhas := make([]domain.EntradaRodada, len(rodada.Entradas))
			for i, e := range rodada.Entradas {
				linhas[i] = domain.EntradaRodada{Endereco: string(e.Endereco), Bilhetes: e.Bilhetes, Posicao: i}
			}
			if err := tx.CreateInBatches(linhas, 500).Error; err != nil {
				return fmt.Errorf("inserir entradas: %w", err)
			}
		}

		estado := domain.EstadoRodada{ID: estadoID}
		if rodada.UltimoVencedor != nil {
			v := string(*rodada.UltimoVencedor)
			estado.UltimoVencedor = &v
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"ultimo_vencedor", "atualizado_em"}),
		}).Create(&estado).Error; err != nil {
			return fmt.Errorf("gravar estado: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gorm rodada: substituir: %w", err)
	}
	return nil
}

var _ domain.RodadaStore = (*RodadaStore)(nil)
