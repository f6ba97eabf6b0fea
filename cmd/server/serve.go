package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	accounthandler "biblio/internal/account/handler"
	cataloghandler "biblio/internal/catalog/handler"
	httpapi "biblio/internal/http"
	jwttoken "biblio/internal/jwt_token"
	loanhandler "biblio/internal/loan/handler"
	"biblio/internal/loan/worker"
	"biblio/internal/platform/httpserver"
	"biblio/internal/platform/metrics"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the overdue sweeper and the change listener",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer a.close()

	accounts := accounthandler.New(a.accounts, log)
	loans := loanhandler.New(a.loans, a.loanFeed, log)
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Metrics:        metrics.New(),
		Gatherer:       prometheus.DefaultGatherer,
		Tokens:         jwttoken.NewJWTServiceAdapter(a.jwt),
		RequestTimeout: cfg.Server.RequestTimeout,
		Public:         []httpapi.PublicRegistrar{accounts},
		Modules: []httpapi.RouteRegistrar{
			cataloghandler.New(a.catalog, log),
			loans,
			accounts,
		},
		Streams: []httpapi.StreamRegistrar{loans},
		Health:  a.health,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	log.InfoContext(ctx, "starting biblio",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"database", cfg.Database.Driver,
		"redis", a.redis != nil,
		"kafka", a.kafka != nil,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, log)
	})
	g.Go(func() error {
		return worker.NewSweeper(a.loans, cfg.Loan.SweepInterval, log).Run(gctx)
	})
	if a.listener != nil {
		g.Go(func() error {
			return a.listener.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("biblio stopped")
	return nil
}
