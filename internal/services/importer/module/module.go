// Package module provides the importer module
package module

import (
	"net/http"

	"cellarbook/internal/modkit"
	"cellarbook/internal/modkit/httpkit"
	"cellarbook/internal/services/importer/domain"
	"cellarbook/internal/services/importer/service"
	runsdomain "cellarbook/internal/services/runs/domain"

	envdomain "cellarbook/internal/services/envelopes/domain"
)

// Wiring carries the cross-module ports the orchestrator depends on
type Wiring struct {
	Registry runsdomain.RegistryPort
	Tracker  envdomain.TrackerPort
}

// Ports exposed by the importer module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new importer module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("importer"),
	}, opts...)...)

	// Basic guardrails against incorrect wiring
	wiring, ok := b.Ports.(Wiring)
	if !ok {
		panic("importer module: expected WithPorts(importer/module.Wiring)")
	}
	if wiring.Registry == nil || wiring.Tracker == nil {
		panic("importer module: Wiring missing Registry or Tracker")
	}

	svc := service.New(deps.PG, wiring.Registry, wiring.Tracker, deps.CH, deps.Log)

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc}
	return m
}

// Name implements modkit.Module
func (m *Module) Name() string { return "importer" }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix implements modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares implements modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
