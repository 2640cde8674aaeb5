// Pacote auth emite e valida os tokens que autorizam um endereço a entrar na rodada.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marcelojr/rifa/internal/domain"
)

var ErrTokenInvalido = errors.New("token invalido ou expirado")

type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Emissor assina tokens HS256 com TTL fixo.
type Emissor struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewEmissor(secret string, ttl time.Duration) *Emissor {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Emissor{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Emitir espera um endereço já normalizado.
func (e *Emissor) Emitir(endereco domain.Endereco) (string, error) {
	agora := e.now()
	claims := Claims{
		Address: string(endereco),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(endereco),
			IssuedAt:  jwt.NewNumericDate(agora),
			ExpiresAt: jwt.NewNumericDate(agora.Add(e.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret)
	if err != nil {
		return "", fmt.Errorf("auth: assinar token: %w", err)
	}
	return token, nil
}

func (e *Emissor) Validar(tokenString string) (domain.Endereco, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return e.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(e.now),
	)
	if err != nil || !token.Valid || claims.Address == "" {
		return "", ErrTokenInvalido
	}
	return domain.Endereco(claims.Address), nil
}
