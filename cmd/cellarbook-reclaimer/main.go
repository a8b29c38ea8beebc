package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"cellarbook/internal/modkit"
	"cellarbook/internal/modkit/module"
	"cellarbook/internal/modkit/repokit"
	"cellarbook/internal/platform/config"
	"cellarbook/internal/platform/logger"
	"cellarbook/internal/platform/store"

	reclaimerdomain "cellarbook/internal/services/reclaimer/domain"
	reclaimermod "cellarbook/internal/services/reclaimer/module"
	runsmod "cellarbook/internal/services/runs/module"
)

func main() {
	fOnce := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
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
	}

	runsWorker := runsmod.New(deps)
	registry := module.MustPortsOf[runsmod.Ports](runsWorker).Registry

	mod := reclaimermod.New(deps, modkit.WithPorts(reclaimermod.Wiring{
		Registry: registry,
	}))
	module.Register(mod.Name(), mod.Ports())

	sweeper := module.MustPortsOf[reclaimermod.Ports](mod).Sweeper

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *fOnce {
		res, err := sweeper.Reclaim(ctx, reclaimerdomain.Policy{})
		if err != nil {
			l.Fatal().Err(err).Msg("reclaim sweep failed")
		}
		l.Info().
			Int("running", res.RolledBackRunning).
			Int("pending", res.RolledBackPending).
			Msg("sweep complete")
		return
	}

	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("reclaimer stopped")
	}
	l.Info().Msg("reclaimer shut down")
}
