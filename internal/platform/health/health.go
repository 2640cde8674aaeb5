package health

import (
	context "context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Check é uma dependência consultada pelo /readyz. Os checks rodam na ordem
// em que foram registrados e o primeiro que falha define a resposta.
type Check struct {
	Nome string
	Ping func(ctx context.Context) error
}

type Checker struct {
	checks  []Check
	timeout time.Duration
}

func NewChecker(checks ...Check) *Checker {
	return &Checker{checks: checks, timeout: 2 * time.Second}
}

func SQLCheck(db *sql.DB) Check {
	return Check{Nome: "database", Ping: func(ctx context.Context) error {
		if db == nil {
			return nil
		}
		return db.PingContext(ctx)
	}}
}

func RedisCheck(client *redis.Client) Check {
	return Check{Nome: "redis", Ping: func(ctx context.Context) error {
		if client == nil {
			return nil
		}
		return client.Ping(ctx).Err()
	}}
}

// DiretorioCheck confirma que o diretório do arquivo de dados existe; a escrita
// em si é feita por rename dentro dele.
func DiretorioCheck(arquivo string) Check {
	return Check{Nome: "storage", Ping: func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(filepath.Dir(arquivo))
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return errors.New("nao e diretorio")
		}
		return nil
	}}
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		for _, check := range c.checks {
			if err := check.Ping(ctx); err != nil {
				http.Error(w, fmt.Sprintf("%s unavailable", check.Nome), http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// LiveHandler só diz que o processo está de pé.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
