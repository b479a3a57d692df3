// Command server runs the contraventions API: report filing, the
// confirmation engine with recidive pricing, invoice documents, and the
// audit outbox worker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"contraventions/internal/audit"
	auditstore "contraventions/internal/audit/store"
	auditworker "contraventions/internal/audit/worker"
	"contraventions/internal/audit/publisher"
	"contraventions/internal/invoice/render"
	invoiceservice "contraventions/internal/invoice/service"
	invoicestore "contraventions/internal/invoice/store"
	motifstore "contraventions/internal/motif/store"
	"contraventions/internal/platform/config"
	"contraventions/internal/platform/httpserver"
	"contraventions/internal/platform/logger"
	platformmetrics "contraventions/internal/platform/metrics"
	platformpg "contraventions/internal/platform/postgres"
	reporthandler "contraventions/internal/report/handler"
	reportmetrics "contraventions/internal/report/metrics"
	reportservice "contraventions/internal/report/service"
	reportstore "contraventions/internal/report/store"
	"contraventions/internal/residency"
	httptransport "contraventions/internal/transport/http"
	txcontext "contraventions/pkg/platform/tx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store selection: Postgres when DATABASE_URL is set, memory otherwise.
	var (
		reports      reportservice.Store
		invoices     invoiceservice.Store
		motifCatalog interface {
			reportservice.MotifCatalog
			reporthandler.MotifCatalog
			motifstore.Catalog
		}
		auditOutbox audit.Store
		runner      txcontext.Runner
		serviceOpts []reportservice.Option
	)
	if cfg.DatabaseURL != "" {
		db, err := platformpg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := platformpg.Migrate(ctx, db); err != nil {
			return err
		}

		pgReports := reportstore.NewPostgres(db)
		reports = pgReports
		invoices = invoicestore.NewPostgres(db)
		motifCatalog = motifstore.NewPostgres(db)
		auditOutbox = auditstore.NewPostgres(db)
		runner = txcontext.NewSQLRunner(db)
		serviceOpts = append(serviceOpts, reportservice.WithRecidiveLocker(pgReports))
		log.Info("using postgres stores")
	} else {
		reports = reportstore.NewInMemory()
		invoices = invoicestore.NewInMemory()
		motifCatalog = motifstore.NewInMemory()
		auditOutbox = auditstore.NewInMemory()
		runner = txcontext.PassthroughRunner{}
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if cfg.MotifSeedFile != "" {
		n, err := motifstore.SeedFromFile(ctx, motifCatalog, cfg.MotifSeedFile)
		if err != nil {
			return err
		}
		log.Info("motif catalog seeded", "motifs", n, "file", cfg.MotifSeedFile)
	}

	directory := residency.Empty()
	if cfg.ResidencyCSV != "" {
		loaded, err := residency.LoadCSV(cfg.ResidencyCSV)
		if err != nil {
			return err
		}
		directory = loaded
		log.Info("residency directory loaded", "entries", directory.Size(), "file", cfg.ResidencyCSV)
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return err
	}

	issuer, err := invoiceservice.NewIssuer(invoices)
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(auditOutbox, log)
	svc, err := reportservice.NewService(
		reports, motifCatalog, issuer, render.NewHTMLRenderer(cfg.UploadsDir), runner,
		append(serviceOpts,
			reportservice.WithLogger(log),
			reportservice.WithMetrics(reportmetrics.New()),
			reportservice.WithDirectory(directory),
			reportservice.WithRecorder(recorder),
		)...,
	)
	if err != nil {
		return err
	}

	var sink publisher.Sink = publisher.NewLogSink(log)
	if cfg.AuditBrokers != "" {
		kafkaSink, err := publisher.NewKafkaSink(strings.Split(cfg.AuditBrokers, ","), cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = publisher.NewBreakerSink(kafkaSink)
		log.Info("audit events publish to kafka", "topic", cfg.AuditTopic)
	}
	outboxWorker := auditworker.NewWorker(auditOutbox, sink, log,
		auditworker.WithInterval(cfg.AuditFlushInterval))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Metrics:    platformmetrics.New(),
		Reports:    reporthandler.New(svc, motifCatalog, log),
		UploadsDir: cfg.UploadsDir,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("contraventions api listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := outboxWorker.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
