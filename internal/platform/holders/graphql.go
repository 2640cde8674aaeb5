// Pacote holders busca no indexador GraphQL os saldos do token e converte em bilhetes.
package holders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/marcelojr/rifa/internal/domain"
	"github.com/marcelojr/rifa/internal/platform/logger"
)

// ErrFetch cobre qualquer falha ao obter o snapshot: rede, status, timeout ou formato.
var ErrFetch = errors.New("falha ao buscar holders")

const consultaHolders = `query {
  coin_balances(limit: %[2]d, where: { coinType: { _eq: %[1]q }, totalBalance: { _gt: "0" } }) {
    ownerAddress
    totalBalance
  }
  coinBalances: coinBalances(limit: %[2]d, where: { coinType: %[1]q, totalBalance_gt: "0" }) {
    ownerAddress
    totalBalance
  }
}`

type Options struct {
	URL             string
	CoinType        string
	Decimals        int
	TokensPerTicket int64
	PageLimit       int
	RatePerSecond   float64
	HTTPClient      *http.Client
}

// GraphQLProvider implementa domain.SnapshotProvider sobre o indexador.
type GraphQLProvider struct {
	client           *http.Client
	url              string
	coinType         string
	limit            int
	microsPorBilhete *big.Int
	limiter          *rate.Limiter
}

func NewGraphQLProvider(opts Options) (*GraphQLProvider, error) {
	if opts.URL == "" || opts.CoinType == "" {
		return nil, fmt.Errorf("holders: url e coin type obrigatorios")
	}
	if opts.TokensPerTicket <= 0 || opts.Decimals < 0 {
		return nil, fmt.Errorf("holders: conversao de bilhetes invalida")
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 1000
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	// micros por bilhete = tokensPorBilhete * 10^decimais
	micros := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(opts.Decimals)), nil)
	micros.Mul(micros, big.NewInt(opts.TokensPerTicket))

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	return &GraphQLProvider{
		client:           opts.HTTPClient,
		url:              opts.URL,
		coinType:         opts.CoinType,
		limit:            opts.PageLimit,
		microsPorBilhete: micros,
		limiter:          limiter,
	}, nil
}

func (p *GraphQLProvider) BuscarSnapshot(ctx context.Context) (domain.Snapshot, error) {
	// O limiter segura rajadas de listagens para não estourar a cota do indexador.
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: aguardando cota: %v", ErrFetch, err)
	}

	body, err := json.Marshal(map[string]string{"query": fmt.Sprintf(consultaHolders, p.coinType, p.limit)})
	if err != nil {
		return nil, fmt.Errorf("%w: montar consulta: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: montar requisicao: %v", ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: ler resposta: %v", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	return p.converter(payload)
}

func (p *GraphQLProvider) converter(payload []byte) (domain.Snapshot, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: resposta nao e json", ErrFetch)
	}
	raiz := gjson.ParseBytes(payload)

	if erros := raiz.Get("errors"); erros.IsArray() && len(erros.Array()) > 0 {
		return nil, fmt.Errorf("%w: graphql: %s", ErrFetch, erros.Get("0.message").String())
	}

	// O indexador responde em um dos dois formatos, dependendo da versão do schema.
	lista := raiz.Get("data.coin_balances")
	if !lista.IsArray() {
		lista = raiz.Get("data.coinBalances")
	}
	if !lista.IsArray() {
		return nil, fmt.Errorf("%w: formato inesperado", ErrFetch)
	}

	snapshot := make(domain.Snapshot)
	var (
		convErr     error
		total       int64
		descartados int
	)
	lista.ForEach(func(_, item gjson.Result) bool {
		bruto := item.Get("ownerAddress").String()
		saldo, ok := new(big.Int).SetString(item.Get("totalBalance").String(), 10)
		if !ok {
			convErr = fmt.Errorf("%w: item invalido %s", ErrFetch, item.Raw)
			return false
		}

		// Dono fora do formato canônico não entra na rodada.
		endereco, valido := domain.CanonizarEndereco(bruto)
		if !valido {
			descartados++
			return true
		}

		bilhetes := new(big.Int).Quo(saldo, p.microsPorBilhete)
		if !bilhetes.IsInt64() {
			convErr = fmt.Errorf("%w: saldo fora da faixa para %s", ErrFetch, endereco)
			return false
		}
		b := bilhetes.Int64()
		if total > math.MaxInt64-b {
			convErr = fmt.Errorf("%w: soma de bilhetes excede int64", ErrFetch)
			return false
		}
		total += b
		snapshot[endereco] += b
		return true
	})
	if convErr != nil {
		return nil, convErr
	}
	if descartados > 0 {
		logger.Warn("holders com endereco invalido descartados", "quantidade", descartados)
	}

	for endereco, bilhetes := range snapshot {
		if bilhetes <= 0 {
			delete(snapshot, endereco)
		}
	}
	return snapshot, nil
}

var _ domain.SnapshotProvider = (*GraphQLProvider)(nil)
