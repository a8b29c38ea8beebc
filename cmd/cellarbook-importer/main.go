package main

import (
	"context"
	"flag"
	"os"
	"time"

	"cellarbook/internal/modkit"
	"cellarbook/internal/modkit/module"
	"cellarbook/internal/modkit/repokit"
	"cellarbook/internal/platform/config"
	"cellarbook/internal/platform/logger"
	"cellarbook/internal/platform/store"

	"cellarbook/internal/adapters/transform/csvprice"
	envelopesmod "cellarbook/internal/services/envelopes/module"
	importerdomain "cellarbook/internal/services/importer/domain"
	importermod "cellarbook/internal/services/importer/module"
	runsdomain "cellarbook/internal/services/runs/domain"
	runsmod "cellarbook/internal/services/runs/module"
)

func main() {
	var (
		fFile     = flag.String("file", "", "path to the price list file (required)")
		fSupplier = flag.String("supplier", "", "supplier name (required)")
		fDate     = flag.String("date", "", "as-of date YYYY-MM-DD, defaults to today")
		fActor    = flag.String("triggered-by", "cli", "who or what triggered this import")
		fMode     = flag.String("mode", "atomic", "processing mode: atomic or chunked")
	)
	flag.Parse()

	l := logger.Get()

	if *fFile == "" || *fSupplier == "" {
		flag.Usage()
		os.Exit(2)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if *fDate != "" {
		var err error
		asOf, err = time.Parse("2006-01-02", *fDate)
		if err != nil {
			l.Fatal().Str("date", *fDate).Msg("date must be YYYY-MM-DD")
		}
	}
	mode := runsdomain.Mode(*fMode)
	if mode != runsdomain.ModeAtomic && mode != runsdomain.ModeChunked {
		l.Fatal().Str("mode", *fMode).Msg("mode must be atomic or chunked")
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			URL:        chCfg.MayString("DBURL", ""),
			ClientName: "cellarbook",
			ClientTag:  "importer",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(context.Background(), st)

	deps := modkit.Deps{
		Log: *l,
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
	}

	runsWorker := runsmod.New(deps)
	registry := module.MustPortsOf[runsmod.Ports](runsWorker).Registry

	envWorker := envelopesmod.New(deps)
	tracker := module.MustPortsOf[envelopesmod.Ports](envWorker).Tracker

	imp := importermod.New(deps, modkit.WithPorts(importermod.Wiring{
		Registry: registry,
		Tracker:  tracker,
	}))
	runner := module.MustPortsOf[importermod.Ports](imp).Runner

	delegate := csvprice.New(csvprice.Options{Log: *l})

	run, err := runner.RunImport(context.Background(), importerdomain.RunRequest{
		Supplier:       *fSupplier,
		FilePath:       *fFile,
		AsOfDate:       asOf,
		TriggeredBy:    *fActor,
		ProcessingMode: mode,
		Transform:      delegate.Transform,
	})
	if err != nil {
		ev := l.Error().Err(err)
		if run != nil {
			ev = ev.Str("run_id", run.RunID).Str("status", string(run.Status))
		}
		ev.Msg("import failed")
		os.Exit(1)
	}

	l.Info().
		Str("run_id", run.RunID).
		Str("status", string(run.Status)).
		Int64("rows", run.Metrics.TotalRowsProcessed).
		Int64("new_skus", run.Metrics.NewSKUCount).
		Int64("quarantined", run.Metrics.QuarantineCount).
		Msg("import finished")
}
