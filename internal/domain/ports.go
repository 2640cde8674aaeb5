package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound sinaliza que o store ainda não tem rodada gravada (primeiro boot).
var ErrNotFound = errors.New("registro nao encontrado")

// RodadaStore grava a rodada inteira de uma vez; Substituir é tudo-ou-nada.
type RodadaStore interface {
	Carregar(ctx context.Context) (Rodada, error)
	Substituir(ctx context.Context, rodada Rodada) error
}

// SnapshotProvider lê os saldos externos; qualquer erro conta como falha de fetch.
type SnapshotProvider interface {
	BuscarSnapshot(ctx context.Context) (Snapshot, error)
}

type Antifraude interface {
	Validar(ctx context.Context, endereco Endereco) error
}

type Clock interface {
	Agora() time.Time
}

type RaffleService interface {
	Entrar(ctx context.Context, endereco string, bilhetes int64) (int64, error)
	ListarEntradas(ctx context.Context) (Listagem, error)
	UltimoVencedor(ctx context.Context) (*Endereco, error)
	Sortear(ctx context.Context, gatilho Gatilho) (ResultadoSorteio, error)
}

type Listagem struct {
	Entradas      []Entrada
	TotalBilhetes int64
	Origem        Origem
}
