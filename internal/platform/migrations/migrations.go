// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/rifa/internal/domain"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202507010001_rodada",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.EntradaRodada{}, &domain.EstadoRodada{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("rodada_entradas", "rodada_estado")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
