package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"admission/internal/admission/models"
	"admission/internal/admission/service"
	"admission/internal/console"
	"admission/internal/platform/config"
	"admission/internal/platform/httpserver"
	"admission/internal/platform/logger"
	"admission/internal/platform/metrics"
	httptransport "admission/internal/transport/http"
	"admission/internal/verification"
	"admission/internal/verification/store"
	dErrors "admission/pkg/domain-errors"
)

// main wires configuration, the identity registry and the admission service,
// then hands control to the console. Business logic lives in internal packages.
func main() {
	err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, console.IsTerminal(os.Stdout))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer, color bool) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, errOut)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	catalog, err := models.NewCatalog(cfg.Colleges, cfg.TotalStudents)
	if err != nil {
		return err
	}
	registry := store.New(cfg.RegistryCapacity)
	if err := store.Seed(ctx, registry); err != nil {
		return fmt.Errorf("seed registry: %w", err)
	}
	validator := verification.NewValidator()

	svc := service.New(catalog, registry, validator,
		service.Limits{TotalStudents: cfg.TotalStudents, MaxPreferences: cfg.MaxPreferences},
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	defer svc.Close(ctx)

	if err := preregister(ctx, svc, log); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	cons := console.New(svc, validator, in, console.NewPresenter(out, color), console.WithLogger(log))
	g.Go(func() error {
		defer cancel()
		return cons.Run(gctx)
	})

	if cfg.StatusAddr != "" {
		handler := httptransport.NewHandler(svc, log)
		srv := httpserver.New(cfg.StatusAddr, httptransport.NewRouter(handler, reg))
		log.Info("starting status server", "addr", cfg.StatusAddr)
		g.Go(func() error {
			return httpserver.Run(gctx, srv)
		})
	}

	return g.Wait()
}

// preregister enrolls the seeded identities with ranks 1..n, stopping quietly
// once the roster is full.
func preregister(ctx context.Context, svc *service.Service, log *slog.Logger) error {
	for i, r := range store.SeedRecords {
		_, err := svc.Preregister(ctx, r.RegNumber, i+1)
		if dErrors.HasCode(err, dErrors.CodeResourceExhausted) {
			log.Warn("roster full, skipping remaining seeded students", "enrolled", i)
			return nil
		}
		if err != nil {
			return fmt.Errorf("preregister %s: %w", r.RegNumber, err)
		}
	}
	return nil
}
