package domain

import (
	"time"
)

type (
	Endereco  string
	SorteioID string
)

// Entrada é a participação de um endereço na rodada atual.
type Entrada struct {
	Endereco Endereco `json:"address"`
	Bilhetes int64    `json:"count"`
}

// Rodada é o único estado vivo do sorteio e também o layout persistido.
type Rodada struct {
	Entradas       []Entrada `json:"entries"`
	UltimoVencedor *Endereco `json:"lastWinner"`
}

// Snapshot é a leitura pontual dos holders já convertida em bilhetes.
type Snapshot map[Endereco]int64

type Gatilho string

const (
	GatilhoManual   Gatilho = "manual"
	GatilhoAgendado Gatilho = "agendado"
)

// Origem indica de onde vieram as entradas usadas numa listagem ou sorteio.
type Origem string

const (
	OrigemLedger Origem = "ledger"
	OrigemLive   Origem = "live"
	OrigemCache  Origem = "cache"
)

type ResultadoSorteio struct {
	ID            SorteioID
	Vencedor      Endereco
	TotalBilhetes int64
	Participantes int
	Gatilho       Gatilho
	Origem        Origem
	RealizadoEm   time.Time
}

// RodadaVazia devolve o estado criado no primeiro boot.
func RodadaVazia() Rodada {
	return Rodada{Entradas: []Entrada{}}
}

// Clone copia a rodada para que leitores nunca compartilhem o slice interno.
func (r Rodada) Clone() Rodada {
	entradas := make([]Entrada, len(r.Entradas))
	copy(entradas, r.Entradas)

	var vencedor *Endereco
	if r.UltimoVencedor != nil {
		v := *r.UltimoVencedor
		vencedor = &v
	}

	return Rodada{Entradas: entradas, UltimoVencedor: vencedor}
}

func (r Rodada) TotalBilhetes() int64 {
	var total int64
	for _, e := range r.Entradas {
		total += e.Bilhetes
	}
	return total
}

// EntradaRodada e EstadoRodada são as tabelas usadas pelo store GORM.
type EntradaRodada struct {
	Endereco string `gorm:"column:endereco;type:varchar(66);primaryKey"`
	Bilhetes int64  `gorm:"column:bilhetes;not null"`
	Posicao  int    `gorm:"column:posicao;not null;index"`
}

type EstadoRodada struct {
	ID             int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	UltimoVencedor *string   `gorm:"column:ultimo_vencedor;type:varchar(66)"`
	AtualizadoEm   time.Time `gorm:"column:atualizado_em;autoUpdateTime"`
}

func (EntradaRodada) TableName() string { return "rodada_entradas" }

func (EstadoRodada) TableName() string { return "rodada_estado" }
