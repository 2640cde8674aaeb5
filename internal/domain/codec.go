package domain

import (
	"encoding/json"
	"fmt"
)

// CodificarRodada gera o layout persistido {"entries": [...], "lastWinner": ...}.
func CodificarRodada(r Rodada) ([]byte, error) {
	if r.Entradas == nil {
		r.Entradas = []Entrada{}
	}
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rodada: serializar: %w", err)
	}
	return payload, nil
}

func DecodificarRodada(payload []byte) (Rodada, error) {
	var r Rodada
	if err := json.Unmarshal(payload, &r); err != nil {
		return Rodada{}, fmt.Errorf("rodada: payload invalido: %w", err)
	}
	if r.Entradas == nil {
		r.Entradas = []Entrada{}
	}
	return r, nil
}
