// rifactl consulta e opera a API da rifa pela linha de comando.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/marcelojr/rifa/internal/app/cliente"
	"github.com/marcelojr/rifa/internal/platform/logger"
)

func main() {
	app := cli.NewApp()
	app.Name = "rifactl"
	app.Usage = "opera a rodada da rifa via API HTTP"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "url",
			Value:  "http://localhost:3000",
			Usage:  "endereco base da API",
			EnvVar: "RIFA_API_URL",
		},
		cli.StringFlag{
			Name:   "admin-key",
			Usage:  "chave de administrador para sorteio manual",
			EnvVar: "ADMIN_KEY",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 30 * time.Second,
			Usage: "tempo maximo por comando",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "entries",
			Usage:  "lista as entradas da rodada atual",
			Action: listarEntradas,
		},
		{
			Name:   "last-winner",
			Usage:  "mostra o ultimo vencedor",
			Action: ultimoVencedor,
		},
		{
			Name:   "draw",
			Usage:  "dispara um sorteio manual",
			Action: sortear,
		},
		{
			Name:      "auth",
			Usage:     "emite um token para o endereco",
			ArgsUsage: "<endereco>",
			Action:    autenticar,
		},
		{
			Name:      "enter",
			Usage:     "registra uma entrada manual",
			ArgsUsage: "<endereco> <bilhetes>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "token", Usage: "token emitido por auth", EnvVar: "RIFA_TOKEN"},
			},
			Action: entrar,
		},
		{
			Name:  "balance",
			Usage: "consulta os saldos do endereco do token no fullnode",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "token", Usage: "token emitido por auth", EnvVar: "RIFA_TOKEN"},
			},
			Action: consultarSaldos,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("rifactl falhou", "err", err)
	}
}

func novoCliente(c *cli.Context) (*cliente.Cliente, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), c.GlobalDuration("timeout"))
	return cliente.New(c.GlobalString("url"), c.GlobalString("admin-key")), ctx, cancel
}

func listarEntradas(c *cli.Context) error {
	api, ctx, cancel := novoCliente(c)
	defer cancel()

	entradas, err := api.Entradas(ctx)
	if err != nil {
		return err
	}
	for _, e := range entradas.Entries {
		fmt.Printf("%s\t%d\n", e.Endereco, e.Bilhetes)
	}
	fmt.Printf("total\t%d\n", entradas.TotalTickets)
	return nil
}

func ultimoVencedor(c *cli.Context) error {
	api, ctx, cancel := novoCliente(c)
	defer cancel()

	vencedor, err := api.UltimoVencedor(ctx)
	if err != nil {
		return err
	}
	if vencedor == nil {
		fmt.Println("nenhum sorteio ainda")
		return nil
	}
	fmt.Println(*vencedor)
	return nil
}

func sortear(c *cli.Context) error {
	if c.GlobalString("admin-key") == "" {
		return cli.NewExitError("--admin-key ou ADMIN_KEY obrigatorio", 2)
	}
	api, ctx, cancel := novoCliente(c)
	defer cancel()

	vencedor, err := api.Sortear(ctx)
	if err != nil {
		return err
	}
	fmt.Println(vencedor)
	return nil
}

func autenticar(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("uso: rifactl auth <endereco>", 2)
	}
	api, ctx, cancel := novoCliente(c)
	defer cancel()

	token, err := api.Autenticar(ctx, c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func entrar(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("uso: rifactl enter <endereco> <bilhetes>", 2)
	}
	var bilhetes int64
	if _, err := fmt.Sscan(c.Args().Get(1), &bilhetes); err != nil {
		return cli.NewExitError("bilhetes deve ser inteiro", 2)
	}
	api, ctx, cancel := novoCliente(c)
	defer cancel()

	total, err := api.Entrar(ctx, c.String("token"), c.Args().First(), bilhetes)
	if err != nil {
		return err
	}
	fmt.Printf("entrada registrada, total da rodada: %d\n", total)
	return nil
}

func consultarSaldos(c *cli.Context) error {
	if c.String("token") == "" {
		return cli.NewExitError("--token ou RIFA_TOKEN obrigatorio", 2)
	}
	api, ctx, cancel := novoCliente(c)
	defer cancel()

	saldos, err := api.Saldos(ctx, c.String("token"))
	if err != nil {
		return err
	}
	fmt.Println(string(saldos))
	return nil
}
