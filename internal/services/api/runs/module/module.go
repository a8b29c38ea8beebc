// Package module wires runs into the API using modkit
package module

import (
	"net/http"

	"cellarbook/internal/adapters/transform/csvprice"
	modkit "cellarbook/internal/modkit"
	"cellarbook/internal/modkit/httpkit"
	str "cellarbook/internal/platform/strings"
	rhttp "cellarbook/internal/services/api/runs/http"
	rsvc "cellarbook/internal/services/api/runs/service"
	importerdomain "cellarbook/internal/services/importer/domain"
	runsdomain "cellarbook/internal/services/runs/domain"
)

// Ports declares the required injected worker port(s) for this API module
type Ports struct {
	Registry runsdomain.RegistryPort
	Runner   importerdomain.RunnerPort
}

// Module implements the runs API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc rsvc.Service
}

// New constructs the runs API module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("api-runs"),
		modkit.WithPrefix("/runs"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Registry == nil {
		panic("runs API module requires Registry port (from services/runs)")
	}
	if injected.Runner == nil {
		panic("runs API module requires Runner port (from services/importer)")
	}

	delegate := csvprice.New(csvprice.Options{Log: deps.Log})
	svc := rsvc.New(injected.Registry, injected.Runner, delegate.Transform)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptRunsPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		rhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
