package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	csvexport "github.com/csg33k/billed/internal/adapters/csv"
	"github.com/csg33k/billed/internal/adapters/objectstore/local"
	s3store "github.com/csg33k/billed/internal/adapters/objectstore/s3"
	"github.com/csg33k/billed/internal/adapters/pdf"
	pgadapter "github.com/csg33k/billed/internal/adapters/postgres"
	"github.com/csg33k/billed/internal/adapters/remote"
	sqliteadapter "github.com/csg33k/billed/internal/adapters/sqlite"
	"github.com/csg33k/billed/internal/auth"
	"github.com/csg33k/billed/internal/config"
	"github.com/csg33k/billed/internal/handlers"
	"github.com/csg33k/billed/internal/metrics"
	"github.com/csg33k/billed/internal/newbill"
	"github.com/csg33k/billed/internal/ports"
	"github.com/csg33k/billed/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logging.SetupWith(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// run serves until SIGINT or SIGTERM and returns once in-flight requests have
// drained and the stores are closed.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proofs, err := openProofStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open proof store %s: %w", cfg.ProofStore, err)
	}
	store, closer, err := openBillStore(ctx, cfg, proofs)
	if err != nil {
		return fmt.Errorf("open bill store %s: %w", cfg.StoreDriver, err)
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	policy := newbill.ParseProofPolicy(cfg.ProofTypes)
	h := handlers.New(handlers.Options{
		Store:     store,
		Proofs:    proofs,
		Exporters: []ports.Exporter{pdf.Generator{}, csvexport.Exporter{}},
		Policy:    policy,
		Sessions:  auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL),
		Metrics:   metrics.New(reg),
		MaxUpload: cfg.MaxUploadBytes(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	slog.Info("Billed running",
		"url", "http://localhost"+cfg.Addr(),
		"store", cfg.StoreDriver,
		"proofs", cfg.ProofStore,
		"proof_types", policy.Accept(),
	)
	return serve(ctx, srv, ln)
}

// serve runs srv on ln until ctx is done, then shuts it down and waits for
// in-flight requests to finish.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		slog.Info("shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			slog.Error("shutdown", "err", err)
		}
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func openProofStore(ctx context.Context, cfg *config.Config) (ports.ProofStore, error) {
	if cfg.ProofStore == "s3" {
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	}
	if err := os.MkdirAll(cfg.ProofDir, 0o755); err != nil {
		return nil, err
	}
	return local.New(cfg.ProofDir), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openBillStore(ctx context.Context, cfg *config.Config, proofs ports.ProofStore) (ports.BillStore, io.Closer, error) {
	switch cfg.StoreDriver {
	case "postgres":
		repo, err := pgadapter.New(ctx, cfg.DatabaseURL, proofs)
		return repo, repo, err
	case "remote":
		c, err := remote.New(cfg.RemoteURL, &http.Client{Timeout: 30 * time.Second})
		return c, nopCloser{}, err
	default:
		slog.Info("database", "path", cfg.DBPath)
		repo, err := sqliteadapter.New(cfg.DBPath, proofs)
		return repo, repo, err
	}
}
