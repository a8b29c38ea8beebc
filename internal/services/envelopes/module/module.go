// Package module provides the envelopes module
package module

import (
	"context"
	"net/http"
	"time"

	"cellarbook/internal/modkit"
	"cellarbook/internal/modkit/httpkit"
	"cellarbook/internal/modkit/repokit"
	"cellarbook/internal/services/envelopes/domain"
	"cellarbook/internal/services/envelopes/repo"
	"cellarbook/internal/services/envelopes/service"
)

// Ports exposed by the envelopes module
type Ports struct {
	Tracker domain.TrackerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the envelopes module
// the backing table is probed once here: absent selects the no-op tracker, so
// degraded mode is decided at startup rather than branching at call sites
func New(deps modkit.Deps) *Module {
	binder := repo.NewPG()
	tracker := pick(deps, binder)

	m := &Module{deps: deps}
	m.ports = Ports{Tracker: tracker}
	return m
}

func pick(deps modkit.Deps, binder repokit.Binder[repo.Storage]) domain.TrackerPort {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var exists bool
	err := deps.PG.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		exists, err = binder.Bind(q).TableExists(ctx)
		return err
	})
	if err != nil || !exists {
		deps.Log.Warn().Err(err).Bool("table_exists", exists).
			Msg("envelope tracking degraded, imports proceed unlinked")
		return service.Noop{}
	}
	return service.New(deps.PG, binder, deps.Log)
}

// Name implements modkit.Module
func (m *Module) Name() string { return "envelopes" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
