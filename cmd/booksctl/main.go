package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/odyssey-erp/odyssey-books/cmd/booksctl/cli"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-books/internal/app"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	root := cli.NewRootCommand(cli.Deps{
		Provisioner: func(ctx context.Context) (cli.Provisioner, func(), error) {
			pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
			if err != nil {
				return nil, nil, err
			}
			return accounts.NewService(accounts.NewStore(pool), logger), pool.Close, nil
		},
		Jobs: func() (*cli.JobsCLI, error) {
			return cli.NewJobsCLI(cfg.RedisAddr), nil
		},
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
