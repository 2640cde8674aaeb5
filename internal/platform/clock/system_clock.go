package clock

import "time"

// SystemClock devolve a hora local; o agendador converte para o fuso configurado.
type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Agora() time.Time {
	return time.Now()
}
