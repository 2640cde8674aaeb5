// Pacote cliente fala com a API HTTP da rifa; usado pelo rifactl.
package cliente

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marcelojr/rifa/internal/domain"
)

// ErrAPI é devolvido quando a API responde com status diferente de 2xx.
var ErrAPI = errors.New("api respondeu com erro")

type Cliente struct {
	base     string
	adminKey string
	http     *http.Client
}

func New(base, adminKey string) *Cliente {
	return &Cliente{
		base:     strings.TrimRight(base, "/"),
		adminKey: adminKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type Entradas struct {
	Entries      []domain.Entrada `json:"entries"`
	TotalTickets int64            `json:"totalTickets"`
}

func (c *Cliente) Entradas(ctx context.Context) (Entradas, error) {
	var out Entradas
	err := c.fazer(ctx, http.MethodGet, "/api/entries", nil, nil, &out)
	return out, err
}

func (c *Cliente) UltimoVencedor(ctx context.Context) (*domain.Endereco, error) {
	var out struct {
		LastWinner *domain.Endereco `json:"lastWinner"`
	}
	if err := c.fazer(ctx, http.MethodGet, "/api/last-winner", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.LastWinner, nil
}

func (c *Cliente) Sortear(ctx context.Context) (domain.Endereco, error) {
	var out struct {
		Winner domain.Endereco `json:"winner"`
	}
	headers := map[string]string{"X-Admin-Key": c.adminKey}
	if err := c.fazer(ctx, http.MethodPost, "/api/draw", nil, headers, &out); err != nil {
		return "", err
	}
	return out.Winner, nil
}

func (c *Cliente) Autenticar(ctx context.Context, endereco string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.fazer(ctx, http.MethodPost, "/api/auth", map[string]string{"address": endereco}, nil, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Entrar envia o token quando informado; a API só o exige com JWT ligado.
func (c *Cliente) Entrar(ctx context.Context, token, endereco string, bilhetes int64) (int64, error) {
	var out struct {
		Total int64 `json:"total"`
	}
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}
	body := map[string]any{"address": endereco, "count": bilhetes}
	if err := c.fazer(ctx, http.MethodPost, "/api/enter", body, headers, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

// Saldos devolve a resposta JSON-RPC do fullnode como veio.
func (c *Cliente) Saldos(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := c.fazer(ctx, http.MethodPost, "/api/balance", nil, headers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Cliente) fazer(ctx context.Context, metodo, caminho string, body any, headers map[string]string, out any) error {
	var leitor io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cliente: serializar corpo: %w", err)
		}
		leitor = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, metodo, c.base+caminho, leitor)
	if err != nil {
		return fmt.Errorf("cliente: montar requisicao: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cliente: %s %s: %w", metodo, caminho, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var erro struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&erro)
		return fmt.Errorf("%w: %d %s", ErrAPI, resp.StatusCode, erro.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cliente: decodificar resposta: %w", err)
	}
	return nil
}
