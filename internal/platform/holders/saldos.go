package holders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/marcelojr/rifa/internal/domain"
)

// SaldosRPC repassa ao fullnode a consulta suix_getAllBalances de um endereço.
// A resposta JSON-RPC volta intacta para o chamador.
type SaldosRPC struct {
	client  *http.Client
	url     string
	limiter *rate.Limiter
}

func NewSaldosRPC(url string, ratePerSecond float64, client *http.Client) (*SaldosRPC, error) {
	if url == "" {
		return nil, fmt.Errorf("holders: url do fullnode obrigatoria")
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &SaldosRPC{client: client, url: url, limiter: limiter}, nil
}

type requisicaoRPC struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      int      `json:"id"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
}

func (s *SaldosRPC) BuscarSaldos(ctx context.Context, endereco domain.Endereco) (json.RawMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: aguardando cota: %v", ErrFetch, err)
	}

	body, err := json.Marshal(requisicaoRPC{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "suix_getAllBalances",
		Params:  []string{string(endereco)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: montar requisicao rpc: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: montar requisicao: %v", ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: ler resposta: %v", ErrFetch, err)
	}
	// Erros JSON-RPC (campo error) também são repassados; só corpo que não é JSON falha.
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: fullnode respondeu status %d sem json", ErrFetch, resp.StatusCode)
	}
	return json.RawMessage(payload), nil
}
