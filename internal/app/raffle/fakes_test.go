package raffle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/marcelojr/rifa/internal/domain"
)

var errStoreFora = errors.New("disco cheio")

func endereco(sufixo string) string {
	return "0x" + strings.Repeat("0", 64-len(sufixo)) + sufixo
}

type memStore struct {
	mu        sync.Mutex
	rodada    *domain.Rodada
	gravacoes int
	falha     error
}

func newMemStore() *memStore {
	return &memStore{}
}

func (m *memStore) Carregar(context.Context) (domain.Rodada, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rodada == nil {
		return domain.Rodada{}, domain.ErrNotFound
	}
	return m.rodada.Clone(), nil
}

func (m *memStore) Substituir(_ context.Context, r domain.Rodada) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.falha != nil {
		return m.falha
	}
	c := r.Clone()
	m.rodada = &c
	m.gravacoes++
	return nil
}

func (m *memStore) falhar(err error) {
	m.mu.Lock()
	m.falha = err
	m.mu.Unlock()
}

func (m *memStore) snapshot() domain.Rodada {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rodada.Clone()
}

type fakeProvider struct {
	mu       sync.Mutex
	snapshot domain.Snapshot
	err      error
	chamadas int
}

func (f *fakeProvider) BuscarSnapshot(ctx context.Context) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chamadas++
	if f.err != nil {
		return nil, f.err
	}
	copia := make(domain.Snapshot, len(f.snapshot))
	for k, v := range f.snapshot {
		copia[k] = v
	}
	return copia, nil
}

func (f *fakeProvider) definir(s domain.Snapshot, err error) {
	f.mu.Lock()
	f.snapshot, f.err = s, err
	f.mu.Unlock()
}

// bloqueanteProvider trava somente a primeira chamada até liberar ser fechado;
// as demais falham na hora.
type bloqueanteProvider struct {
	snapshot domain.Snapshot
	chamado  chan struct{}
	liberar  chan struct{}
	once     sync.Once
}

func newBloqueanteProvider(s domain.Snapshot) *bloqueanteProvider {
	return &bloqueanteProvider{snapshot: s, chamado: make(chan struct{}), liberar: make(chan struct{})}
}

func (b *bloqueanteProvider) BuscarSnapshot(ctx context.Context) (domain.Snapshot, error) {
	primeira := false
	b.once.Do(func() { primeira = true })
	if !primeira {
		return nil, errors.New("indexador ocupado")
	}

	close(b.chamado)
	select {
	case <-b.liberar:
		return b.snapshot, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type staticClock struct {
	now time.Time
}

func (c staticClock) Agora() time.Time {
	return c.now
}

type antifraudeFunc func(context.Context, domain.Endereco) error

func (f antifraudeFunc) Validar(ctx context.Context, e domain.Endereco) error {
	return f(ctx, e)
}
