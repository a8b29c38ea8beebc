// Package api provides the HTTP API for the application
package api

import (
	"cellarbook/internal/platform/config"
	"cellarbook/internal/platform/logger"
	phttp "cellarbook/internal/platform/net/http"
	"cellarbook/internal/platform/store"

	"cellarbook/internal/modkit"
	"cellarbook/internal/modkit/httpkit"
	"cellarbook/internal/modkit/module"
	"cellarbook/internal/modkit/swaggerkit"

	apimeta "cellarbook/internal/services/api/meta/module"
	apiruns "cellarbook/internal/services/api/runs/module"

	// worker modules own the registry, tracker and runner ports
	envelopesmod "cellarbook/internal/services/envelopes/module"
	importermod "cellarbook/internal/services/importer/module"
	runsmod "cellarbook/internal/services/runs/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Log: opt.Logger,
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	// construct the worker modules first and extract their ports
	runsWorker := runsmod.New(deps)
	registry := module.MustPortsOf[runsmod.Ports](runsWorker).Registry

	envWorker := envelopesmod.New(deps)
	tracker := module.MustPortsOf[envelopesmod.Ports](envWorker).Tracker

	importerWorker := importermod.New(deps, modkit.WithPorts(importermod.Wiring{
		Registry: registry,
		Tracker:  tracker,
	}))
	runner := module.MustPortsOf[importermod.Ports](importerWorker).Runner

	// inject the worker ports into the API module
	apiRuns := apiruns.New(deps, modkit.WithPorts(apiruns.Ports{
		Registry: registry,
		Runner:   runner,
	}))

	mods := []module.Module{
		runsWorker, // include workers so their ports are registered
		envWorker,
		importerWorker,
		apimeta.New(deps),
		apiRuns, // API module that depends on the workers' ports
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
