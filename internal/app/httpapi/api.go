// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para o serviço da rifa.
package httpapi

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/marcelojr/rifa/internal/app/raffle"
	"github.com/marcelojr/rifa/internal/domain"
	"github.com/marcelojr/rifa/internal/platform/antifraude"
	"github.com/marcelojr/rifa/internal/platform/auth"
	"github.com/marcelojr/rifa/internal/platform/holders"
)

var (
	ErrEnderecoDivergente = errors.New("endereco do corpo difere do token")
	ErrNaoAutenticado     = errors.New("token ausente")
	errPayloadInvalido    = errors.New("payload invalido")
)

// API empacota os handlers ligados ao serviço da rifa. Com emissor nil a entrada
// não exige token e /api/auth não é registrada.
type API struct {
	service  domain.RaffleService
	emissor  *auth.Emissor
	saldos   ConsultorSaldos
	adminKey string
	logger   *slog.Logger
}

// ConsultorSaldos devolve a resposta JSON-RPC de saldos do fullnode para um endereço.
type ConsultorSaldos interface {
	BuscarSaldos(ctx context.Context, endereco domain.Endereco) (json.RawMessage, error)
}

func New(service domain.RaffleService, emissor *auth.Emissor, adminKey string, logger *slog.Logger) *API {
	return &API{service: service, emissor: emissor, adminKey: adminKey, logger: logger}
}

// ComSaldos liga o proxy /api/balance; ele só é registrado quando há emissor de tokens.
func (a *API) ComSaldos(saldos ConsultorSaldos) *API {
	a.saldos = saldos
	return a
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("GET /api/entries", a.listarEntradas)
	mux.HandleFunc("GET /api/last-winner", a.ultimoVencedor)
	mux.HandleFunc("POST /api/draw", a.sortear)
	mux.HandleFunc("POST /api/enter", a.entrar)
	if a.emissor != nil {
		mux.HandleFunc("POST /api/auth", a.autenticar)
		if a.saldos != nil {
			mux.HandleFunc("POST /api/balance", a.consultarSaldos)
		}
	}
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type entradaJSON struct {
	Address string `json:"address"`
	Count   int64  `json:"count"`
}

// entradaRequest guarda count cru: só um número JSON inteiro e positivo vale como bilhetes.
type entradaRequest struct {
	Address string          `json:"address"`
	Count   json.RawMessage `json:"count"`
}

type entradasResponse struct {
	Entries      []entradaJSON `json:"entries"`
	TotalTickets int64         `json:"totalTickets"`
}

func (a *API) listarEntradas(w http.ResponseWriter, r *http.Request) {
	listagem, err := a.service.ListarEntradas(r.Context())
	if err != nil {
		a.logger.Error("erro ao listar entradas", "err", err)
		responderErro(w, err)
		return
	}

	resp := entradasResponse{Entries: make([]entradaJSON, 0, len(listagem.Entradas)), TotalTickets: listagem.TotalBilhetes}
	for _, e := range listagem.Entradas {
		resp.Entries = append(resp.Entries, entradaJSON{Address: string(e.Endereco), Count: e.Bilhetes})
	}
	responderJSON(w, http.StatusOK, resp)
}

func (a *API) ultimoVencedor(w http.ResponseWriter, r *http.Request) {
	vencedor, err := a.service.UltimoVencedor(r.Context())
	if err != nil {
		a.logger.Error("erro ao obter ultimo vencedor", "err", err)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, map[string]*domain.Endereco{"lastWinner": vencedor})
}

func (a *API) sortear(w http.ResponseWriter, r *http.Request) {
	if !a.adminValido(r.Header.Get("X-Admin-Key")) {
		a.logger.Warn("sorteio manual negado", "remote", r.RemoteAddr)
		responderErro(w, raffle.ErrProibido)
		return
	}

	resultado, err := a.service.Sortear(r.Context(), domain.GatilhoManual)
	if err != nil {
		a.logger.Warn("sorteio manual falhou", "err", err)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, map[string]string{"winner": string(resultado.Vencedor)})
}

func (a *API) adminValido(chave string) bool {
	if a.adminKey == "" || chave == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(chave), []byte(a.adminKey)) == 1
}

func (a *API) entrar(w http.ResponseWriter, r *http.Request) {
	var tokenAddr domain.Endereco
	if a.emissor != nil {
		var err error
		if tokenAddr, err = a.enderecoDoToken(r); err != nil {
			responderErro(w, err)
			return
		}
	}

	var req entradaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.logger.Warn("payload invalido ao registrar entrada", "err", err)
		responderErro(w, errPayloadInvalido)
		return
	}

	if a.emissor != nil {
		normalizado, err := raffle.NormalizarEndereco(req.Address)
		if err != nil {
			responderErro(w, err)
			return
		}
		if normalizado != tokenAddr {
			responderErro(w, ErrEnderecoDivergente)
			return
		}
	}

	bilhetes, errBilhetes := bilhetesDoCorpo(req.Count)
	if errBilhetes != nil {
		// Endereço é validado antes da quantidade, como no serviço.
		if _, err := raffle.NormalizarEndereco(req.Address); err != nil {
			responderErro(w, err)
			return
		}
		responderErro(w, errBilhetes)
		return
	}

	total, err := a.service.Entrar(r.Context(), req.Address, bilhetes)
	if err != nil {
		a.logger.Warn("falha ao registrar entrada", "err", err, "endereco", req.Address)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, map[string]any{"success": true, "total": total})
}

// bilhetesDoCorpo aceita 5 e 5.0; recusa string, fração, null, ausência e valores fora de int64.
func bilhetesDoCorpo(bruto json.RawMessage) (int64, error) {
	bruto = bytes.TrimSpace(bruto)
	var numero json.Number
	if len(bruto) == 0 || bruto[0] == '"' || json.Unmarshal(bruto, &numero) != nil {
		return 0, raffle.ErrBilhetesInvalidos
	}
	if n, err := numero.Int64(); err == nil {
		return n, nil
	}
	f, err := numero.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, raffle.ErrBilhetesInvalidos
	}
	return int64(f), nil
}

func (a *API) consultarSaldos(w http.ResponseWriter, r *http.Request) {
	endereco, err := a.enderecoDoToken(r)
	if err != nil {
		responderErro(w, err)
		return
	}

	saldos, err := a.saldos.BuscarSaldos(r.Context(), endereco)
	if err != nil {
		a.logger.Error("proxy de saldos falhou", "err", err, "endereco", endereco)
		responderErro(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(saldos)
}

func (a *API) enderecoDoToken(r *http.Request) (domain.Endereco, error) {
	cabecalho := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(cabecalho, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrNaoAutenticado
	}
	return a.emissor.Validar(strings.TrimSpace(token))
}

func (a *API) autenticar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responderErro(w, errPayloadInvalido)
		return
	}

	endereco, err := raffle.NormalizarEndereco(req.Address)
	if err != nil {
		responderErro(w, err)
		return
	}

	token, err := a.emissor.Emitir(endereco)
	if err != nil {
		a.logger.Error("erro ao emitir token", "err", err)
		responderErro(w, err)
		return
	}

	responderJSON(w, http.StatusOK, map[string]string{"token": token})
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// responderErro nunca expõe a mensagem interna; cada erro conhecido tem status e texto próprios.
func responderErro(w http.ResponseWriter, err error) {
	status, mensagem := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, errPayloadInvalido):
		status, mensagem = http.StatusBadRequest, "Invalid payload"
	case errors.Is(err, raffle.ErrEnderecoInvalido):
		status, mensagem = http.StatusBadRequest, "Invalid address"
	case errors.Is(err, raffle.ErrBilhetesInvalidos):
		status, mensagem = http.StatusBadRequest, "Invalid ticket count"
	case errors.Is(err, raffle.ErrEntradaDuplicada):
		status, mensagem = http.StatusBadRequest, "Already entered this round"
	case errors.Is(err, ErrEnderecoDivergente):
		status, mensagem = http.StatusBadRequest, "Address mismatch"
	case errors.Is(err, raffle.ErrSemEntradas):
		status, mensagem = http.StatusBadRequest, "No entries this round"
	case errors.Is(err, ErrNaoAutenticado):
		status, mensagem = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, auth.ErrTokenInvalido):
		status, mensagem = http.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, raffle.ErrProibido):
		status, mensagem = http.StatusForbidden, "Forbidden"
	case errors.Is(err, raffle.ErrSorteioEmAndamento):
		status, mensagem = http.StatusConflict, "Draw already in progress"
	case errors.Is(err, raffle.ErrModoSnapshot):
		status, mensagem = http.StatusConflict, "Entries come from holder snapshot"
	case errors.Is(err, antifraude.ErrRateLimitExceeded):
		status, mensagem = http.StatusTooManyRequests, "Too many requests"
	case errors.Is(err, holders.ErrFetch):
		status, mensagem = http.StatusBadGateway, "Fullnode RPC failed"
	}

	responderJSON(w, status, map[string]string{"error": mensagem})
}
