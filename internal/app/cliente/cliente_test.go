package cliente

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/rifa/internal/app/httpapi"
	"github.com/marcelojr/rifa/internal/app/raffle"
	"github.com/marcelojr/rifa/internal/platform/antifraude"
	"github.com/marcelojr/rifa/internal/platform/auth"
	"github.com/marcelojr/rifa/internal/platform/clock"
	"github.com/marcelojr/rifa/internal/platform/holders"
	"github.com/marcelojr/rifa/internal/platform/storage/arquivo"
)

const (
	adminKey = "chave-admin"
	endereco = "0x000000000000000000000000000000000000000000000000000000000000beef"
)

// setupServidor sobe a API real sobre um store em arquivo temporário.
func setupServidor(t *testing.T, emissor *auth.Emissor) *Cliente {
	store := arquivo.NewRodadaStore(filepath.Join(t.TempDir(), "entries.json"))
	ledger, err := raffle.NewLedger(context.Background(), store)
	require.NoError(t, err)
	servico := raffle.NewService(ledger, nil, nil, antifraude.NewNoop(), clock.NewSystemClock(), nil)

	mux := http.NewServeMux()
	httpapi.New(servico, emissor, adminKey, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", adminKey)
}

func TestCliente_FluxoCompletoDaRodada(t *testing.T) {
	c := setupServidor(t, nil)
	ctx := context.Background()

	vencedor, err := c.UltimoVencedor(ctx)
	require.NoError(t, err)
	assert.Nil(t, vencedor)

	total, err := c.Entrar(ctx, "", endereco, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	entradas, err := c.Entradas(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), entradas.TotalTickets)
	require.Len(t, entradas.Entries, 1)

	ganhador, err := c.Sortear(ctx)
	require.NoError(t, err)
	assert.Equal(t, endereco, string(ganhador))

	vencedor, err = c.UltimoVencedor(ctx)
	require.NoError(t, err)
	require.NotNil(t, vencedor)
	assert.Equal(t, ganhador, *vencedor)

	entradas, err = c.Entradas(ctx)
	require.NoError(t, err)
	assert.Empty(t, entradas.Entries)
}

func TestCliente_Sortear_QuandoRodadaVazia_DeveRetornarErrAPI(t *testing.T) {
	c := setupServidor(t, nil)

	_, err := c.Sortear(context.Background())

	assert.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "No entries this round")
}

func TestCliente_Sortear_QuandoChaveErrada_DeveRetornarForbidden(t *testing.T) {
	c := setupServidor(t, nil)
	c.adminKey = "errada"

	_, err := c.Sortear(context.Background())

	assert.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "403")
}

func TestCliente_AutenticarEEntrar_QuandoJWTLigado(t *testing.T) {
	c := setupServidor(t, auth.NewEmissor("segredo", time.Hour))
	ctx := context.Background()

	_, err := c.Entrar(ctx, "", endereco, 1)
	require.ErrorIs(t, err, ErrAPI)

	token, err := c.Autenticar(ctx, endereco)
	require.NoError(t, err)

	total, err := c.Entrar(ctx, token, endereco, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCliente_Saldos_DeveRepassarRespostaDoFullnode(t *testing.T) {
	fullnode := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string   `json:"method"`
			Params []string `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method != "suix_getAllBalances" || len(req.Params) != 1 || req.Params[0] != endereco {
			http.Error(w, "metodo inesperado", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{"coinType":"0x2::sui::SUI","totalBalance":"10"}]}`))
	}))
	t.Cleanup(fullnode.Close)

	saldos, err := holders.NewSaldosRPC(fullnode.URL, 0, fullnode.Client())
	require.NoError(t, err)
	emissor := auth.NewEmissor("segredo", time.Hour)
	store := arquivo.NewRodadaStore(filepath.Join(t.TempDir(), "entries.json"))
	ledger, err := raffle.NewLedger(context.Background(), store)
	require.NoError(t, err)
	servico := raffle.NewService(ledger, nil, nil, antifraude.NewNoop(), clock.NewSystemClock(), nil)

	mux := http.NewServeMux()
	httpapi.New(servico, emissor, adminKey, slog.New(slog.NewTextHandler(io.Discard, nil))).ComSaldos(saldos).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, adminKey)
	ctx := context.Background()

	token, err := c.Autenticar(ctx, endereco)
	require.NoError(t, err)

	resposta, err := c.Saldos(ctx, token)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":[{"coinType":"0x2::sui::SUI","totalBalance":"10"}]}`, string(resposta))

	_, err = c.Saldos(ctx, "token-invalido")
	assert.ErrorIs(t, err, ErrAPI)
}
