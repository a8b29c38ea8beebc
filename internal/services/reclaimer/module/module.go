// Package module provides the reclaimer module
package module

import (
	"net/http"

	"cellarbook/internal/modkit"
	"cellarbook/internal/modkit/httpkit"
	"cellarbook/internal/services/reclaimer/domain"
	"cellarbook/internal/services/reclaimer/service"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// Wiring carries the cross-module ports the reclaimer depends on
type Wiring struct {
	Registry runsdomain.RegistryPort
}

// Ports exposed by the reclaimer module
type Ports struct {
	Sweeper domain.SweeperPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new reclaimer module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("reclaimer"),
	}, opts...)...)

	wiring, ok := b.Ports.(Wiring)
	if !ok {
		panic("reclaimer module: expected WithPorts(reclaimer/module.Wiring)")
	}
	if wiring.Registry == nil {
		panic("reclaimer module: Wiring missing Registry")
	}

	cfg := FromConfig(deps.Cfg)
	svc := service.New(wiring.Registry, service.Config{
		Interval: cfg.Interval,
		Policy: domain.Policy{
			RunningTimeout: cfg.RunningTimeout,
			PendingTimeout: cfg.PendingTimeout,
		},
	}, deps.Log)

	m := &Module{deps: deps}
	m.ports = Ports{Sweeper: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "reclaimer" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
