// Executável principal: carrega a configuração, monta o motor da rifa, sobe o agendador e o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/rifa/internal/app/httpapi"
	"github.com/marcelojr/rifa/internal/app/raffle"
	"github.com/marcelojr/rifa/internal/app/worker"
	"github.com/marcelojr/rifa/internal/domain"
	"github.com/marcelojr/rifa/internal/platform/antifraude"
	"github.com/marcelojr/rifa/internal/platform/auth"
	"github.com/marcelojr/rifa/internal/platform/clock"
	"github.com/marcelojr/rifa/internal/platform/config"
	"github.com/marcelojr/rifa/internal/platform/health"
	"github.com/marcelojr/rifa/internal/platform/holders"
	"github.com/marcelojr/rifa/internal/platform/ids"
	"github.com/marcelojr/rifa/internal/platform/logger"
	"github.com/marcelojr/rifa/internal/platform/migrations"
	arquivostorage "github.com/marcelojr/rifa/internal/platform/storage/arquivo"
	boltstorage "github.com/marcelojr/rifa/internal/platform/storage/bolt"
	postgresstorage "github.com/marcelojr/rifa/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/rifa/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	var redisClient *redis.Client
	if cfg.PrecisaRedis() {
		redisClient, err = redisstorage.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("falha ao conectar no redis", "err", err)
		}
		defer redisClient.Close()
	}

	checks := []health.Check{health.RedisCheck(redisClient)}
	var store domain.RodadaStore

	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("falha ao conectar no postgres", "err", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("falha ao resgatar sql.DB", "err", err)
		}
		defer sqlDB.Close()

		if cfg.AutoMigrate {
			if err := migrations.Run(db); err != nil {
				logger.Fatal("falha na migracao automatica", "err", err)
			}
		}
		store = postgresstorage.NewRodadaStore(db)
		checks = append(checks, health.SQLCheck(sqlDB))
	case config.StoreBolt:
		db, err := boltstorage.Open(cfg.BoltFile)
		if err != nil {
			logger.Fatal("falha ao abrir bolt", "err", err, "arquivo", cfg.BoltFile)
		}
		defer db.Close()
		store = boltstorage.NewRodadaStore(db)
	case config.StoreRedis:
		store = redisstorage.NewRodadaStore(redisClient, cfg.RodadaRedisKey)
	default:
		store = arquivostorage.NewRodadaStore(cfg.DataFile)
		checks = append(checks, health.DiretorioCheck(cfg.DataFile))
	}

	ledger, err := raffle.NewLedger(ctx, store)
	if err != nil {
		logger.Fatal("falha ao carregar rodada", "err", err, "backend", cfg.StoreBackend)
	}

	var fonte *raffle.FonteComCache
	if cfg.Modo == config.ModoSnapshot {
		provider, err := holders.NewGraphQLProvider(holders.Options{
			URL:             cfg.HoldersGraphQLURL,
			CoinType:        cfg.HoldersCoinType,
			Decimals:        cfg.HoldersDecimals,
			TokensPerTicket: cfg.HoldersTokensPerTicket,
			PageLimit:       cfg.HoldersPageLimit,
			RatePerSecond:   cfg.HoldersRatePerSecond,
		})
		if err != nil {
			logger.Fatal("configuracao de holders invalida", "err", err)
		}
		fonte = raffle.NewFonteComCache(provider, ledger, cfg.HoldersFetchTimeout)
	}

	var antifraudeSvc domain.Antifraude = antifraude.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	clockSystem := clock.NewSystemClock()
	servico := raffle.NewService(ledger, fonte, raffle.NewSelecionador(), antifraudeSvc, clockSystem, ids.NewGenerator())

	// O agendador roda no mesmo processo para disputar o mesmo portão de sorteio que a API.
	agendador := worker.NewAgendador(servico, cfg.HorasSorteio, cfg.FusoSorteio, clockSystem, cfg.DrawTimeout)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := agendador.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("agendador finalizado com erro", "err", err)
		}
	}()

	var emissor *auth.Emissor
	if cfg.JWTSecret != "" {
		emissor = auth.NewEmissor(cfg.JWTSecret, cfg.JWTTTL)
	}

	mux := http.NewServeMux()
	api := httpapi.New(servico, emissor, cfg.AdminKey, logger.L())
	if cfg.FullnodeURL != "" {
		saldos, err := holders.NewSaldosRPC(cfg.FullnodeURL, cfg.HoldersRatePerSecond, nil)
		if err != nil {
			logger.Fatal("configuracao do fullnode invalida", "err", err)
		}
		api.ComSaldos(saldos)
	}
	api.Register(mux)
	mux.HandleFunc("/readyz", health.NewChecker(checks...).ReadyHandler())
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "modo", cfg.Modo, "backend", cfg.StoreBackend, "horas", cfg.HorasSorteio)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}

	wg.Wait()
	logger.Info("api finalizada")
}
