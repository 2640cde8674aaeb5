// Pacote arquivo persiste a rodada num arquivo JSON no layout {entries, lastWinner}.
package arquivo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/marcelojr/rifa/internal/domain"
)

// RodadaStore grava em arquivo temporário e renomeia, então leitores nunca veem escrita parcial.
type RodadaStore struct {
	path string
}

func NewRodadaStore(path string) *RodadaStore {
	return &RodadaStore{path: path}
}

func (s *RodadaStore) Carregar(ctx context.Context) (domain.Rodada, error) {
	if err := ctx.Err(); err != nil {
		return domain.Rodada{}, err
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Rodada{}, domain.ErrNotFound
		}
		return domain.Rodada{}, fmt.Errorf("arquivo rodada: ler %s: %w", s.path, err)
	}

	rodada, err := domain.DecodificarRodada(payload)
	if err != nil {
		return domain.Rodada{}, fmt.Errorf("arquivo rodada: %w", err)
	}
	return rodada, nil
}

func (s *RodadaStore) Substituir(ctx context.Context, rodada domain.Rodada) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := domain.CodificarRodada(rodada)
	if err != nil {
		return fmt.Errorf("arquivo rodada: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".rodada-*.tmp")
	if err != nil {
		return fmt.Errorf("arquivo rodada: criar temporario: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("arquivo rodada: escrever: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("arquivo rodada: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("arquivo rodada: fechar: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("arquivo rodada: renomear: %w", err)
	}
	return nil
}

var _ domain.RodadaStore = (*RodadaStore)(nil)
