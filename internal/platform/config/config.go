// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModoManual   = "manual"
	ModoSnapshot = "snapshot"

	StoreArquivo  = "file"
	StoreBolt     = "bolt"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

var ErrAdminKeyAusente = errors.New("ADMIN_KEY obrigatoria")

// Config agrega todos os parâmetros necessários para API, agendador e CLI.
type Config struct {
	HTTPAddress string
	AdminKey    string
	LogLevel    string

	JWTSecret string
	JWTTTL    time.Duration

	Modo         string
	StoreBackend string
	DataFile     string
	BoltFile     string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	AutoMigrate      bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RodadaRedisKey string

	HorasSorteio []int
	FusoSorteio  *time.Location
	DrawTimeout  time.Duration

	HoldersGraphQLURL      string
	HoldersCoinType        string
	HoldersDecimals        int
	HoldersTokensPerTicket int64
	HoldersPageLimit       int
	HoldersFetchTimeout    time.Duration
	HoldersRatePerSecond   float64

	FullnodeURL string

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string
}

// Load lê o .env (quando existe) e depois o ambiente; variáveis do ambiente têm prioridade.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":3000"),
		AdminKey:               os.Getenv("ADMIN_KEY"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTTTL:                 time.Duration(getEnvAsInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		Modo:                   strings.ToLower(getEnv("RAFFLE_MODE", ModoSnapshot)),
		StoreBackend:           strings.ToLower(getEnv("STORE_BACKEND", StoreArquivo)),
		DataFile:               getEnv("DATA_FILE", "./entries.json"),
		BoltFile:               getEnv("BOLT_FILE", "./rifa.db"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "rifa"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "rifa"),
		PostgresDB:             getEnv("POSTGRES_DB", "rifa"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RodadaRedisKey:         getEnv("REDIS_ROUND_KEY", "rifa:rodada"),
		DrawTimeout:            time.Duration(getEnvAsInt("DRAW_TIMEOUT_SECONDS", 60)) * time.Second,
		HoldersGraphQLURL:      os.Getenv("HOLDERS_GRAPHQL_URL"),
		HoldersCoinType:        os.Getenv("HOLDERS_COIN_TYPE"),
		FullnodeURL:            os.Getenv("FULLNODE_URL"),
		HoldersDecimals:        getEnvAsInt("HOLDERS_DECIMALS", 6),
		HoldersTokensPerTicket: int64(getEnvAsInt("HOLDERS_TOKENS_PER_TICKET", 1_000_000)),
		HoldersPageLimit:       getEnvAsInt("HOLDERS_PAGE_LIMIT", 1000),
		HoldersFetchTimeout:    time.Duration(getEnvAsInt("HOLDERS_FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		HoldersRatePerSecond:   getEnvAsFloat("HOLDERS_RATE_PER_SECOND", 2),
		RateLimitEnabled:       getEnvAsBool("ANTIFRAUDE_RATE_LIMIT_ENABLED", false),
		RateLimitMaxActions:    getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_MAX", 5),
		RateLimitWindowSeconds: getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:     getEnv("ANTIFRAUDE_RATE_LIMIT_PREFIX", "ratelimit:entrada"),
	}

	if cfg.AdminKey == "" {
		return Config{}, fmt.Errorf("config: %w", ErrAdminKeyAusente)
	}

	switch cfg.Modo {
	case ModoManual, ModoSnapshot:
	default:
		return Config{}, fmt.Errorf("config: RAFFLE_MODE invalido: %q", cfg.Modo)
	}

	switch cfg.StoreBackend {
	case StoreArquivo, StoreBolt, StoreRedis, StorePostgres:
	default:
		return Config{}, fmt.Errorf("config: STORE_BACKEND invalido: %q", cfg.StoreBackend)
	}

	if cfg.Modo == ModoSnapshot && (cfg.HoldersGraphQLURL == "" || cfg.HoldersCoinType == "") {
		return Config{}, fmt.Errorf("config: modo snapshot exige HOLDERS_GRAPHQL_URL e HOLDERS_COIN_TYPE")
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	cfg.RedisDB = dbInt

	horas, err := ParseHoras(getEnv("DRAW_HOURS", "18-23"))
	if err != nil {
		return Config{}, fmt.Errorf("config: DRAW_HOURS invalido: %w", err)
	}
	cfg.HorasSorteio = horas

	fuso, err := time.LoadLocation(getEnv("DRAW_TIMEZONE", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("config: DRAW_TIMEZONE invalido: %w", err)
	}
	cfg.FusoSorteio = fuso

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

// PrecisaRedis diz se algum componente configurado depende de uma conexão Redis.
func (c Config) PrecisaRedis() bool {
	return c.StoreBackend == StoreRedis || c.RateLimitEnabled
}

// ParseHoras interpreta listas como "18-23", "9-21/2" ou "9,13,17" e devolve as horas ordenadas.
// Uma string vazia desliga o sorteio automático.
func ParseHoras(expr string) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var marcadas [24]bool
	for _, item := range strings.Split(expr, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		passo := 1
		faixa := item
		if base, p, ok := strings.Cut(item, "/"); ok {
			n, err := strconv.Atoi(p)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("passo invalido em %q", item)
			}
			passo = n
			faixa = base
		}

		inicio, fim := 0, 23
		if faixa != "*" {
			de, ate, temFaixa := strings.Cut(faixa, "-")
			var err error
			if inicio, err = parseHora(de); err != nil {
				return nil, err
			}
			fim = inicio
			if temFaixa {
				if fim, err = parseHora(ate); err != nil {
					return nil, err
				}
			}
			if fim < inicio {
				return nil, fmt.Errorf("faixa invertida em %q", item)
			}
		}

		for h := inicio; h <= fim; h += passo {
			marcadas[h] = true
		}
	}

	var horas []int
	for h, ok := range marcadas {
		if ok {
			horas = append(horas, h)
		}
	}
	return horas, nil
}

func parseHora(valor string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(valor))
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hora invalida %q", valor)
	}
	return h, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
