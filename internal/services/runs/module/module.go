// Package module provides the runs module
package module

import (
	"net/http"

	"cellarbook/internal/modkit"
	"cellarbook/internal/modkit/httpkit"
	"cellarbook/internal/modkit/repokit"
	"cellarbook/internal/services/runs/domain"
	"cellarbook/internal/services/runs/repo"
	"cellarbook/internal/services/runs/service"
)

// Ports exposed by the runs module
type Ports struct {
	Registry domain.RegistryPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new runs module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder, service.Config{
		HardLimit:     opts.HardLimit,
		FailureWindow: opts.FailureWindow,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Registry: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "runs" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
