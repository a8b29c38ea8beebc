// Package http provides http transport for runs
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cellarbook/internal/modkit/httpkit"
	perr "cellarbook/internal/platform/errors"
	"cellarbook/internal/services/api/runs/domain"
	svc "cellarbook/internal/services/api/runs/service"
)

// Register mounts runs endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	// recent runs with filters and keyset cursor
	httpkit.Get(r, "/", h.list)

	// trigger a server side import of a file already on disk
	httpkit.PostJSON[domain.TriggerImportInput](r, "/import", h.trigger)

	// supplier freshness rollup
	httpkit.Get(r, "/staleness/{supplier}", h.staleness)

	// single run by id
	httpkit.Get(r, "/{run_id}", h.get)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /runs Runs listRuns
// @Summary List recent import runs
// @Tags Runs
// @Produce json
// @Param supplier query string false "Supplier filter"
// @Param status query string false "Status filter"
// @Param since query string false "Created at or after, YYYY-MM-DD"
// @Param until query string false "Created before, YYYY-MM-DD"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Param limit query int false "Page size, capped server side"
// @Success 200 {array} domain.RunResponse "ok"
// @Router /runs [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	qp := r.URL.Query()

	in := domain.ListQuery{
		Supplier: qp.Get("supplier"),
		Status:   qp.Get("status"),
		Since:    qp.Get("since"),
		Until:    qp.Get("until"),
		Cursor:   qp.Get("cursor"),
	}
	if raw := qp.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, perr.InvalidArgf("limit must be a non negative integer")
		}
		in.Limit = n
	}

	items, next, err := h.svc.List(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.List(items, len(items), in.Limit, next), nil
}

// swagger:route POST /runs/import Runs triggerImport
// @Summary Trigger an import of a file on the server filesystem
// @Tags Runs
// @Accept json
// @Produce json
// @Param payload body domain.TriggerImportInput true "Import request"
// @Success 200 {object} domain.RunResponse "terminal run row"
// @Failure 422 {object} httpkit.Envelope "validation"
// @Router /runs/import [post]
func (h *handlers) trigger(r *stdhttp.Request, in domain.TriggerImportInput) (any, error) {
	return h.svc.Trigger(r.Context(), in)
}

// swagger:route GET /runs/staleness/{supplier} Runs supplierStaleness
// @Summary Freshness summary for one supplier
// @Tags Runs
// @Produce json
// @Param supplier path string true "Supplier name"
// @Success 200 {object} runsdomain.StalenessSummary "ok"
// @Router /runs/staleness/{supplier} [get]
func (h *handlers) staleness(r *stdhttp.Request) (any, error) {
	supp := chi.URLParam(r, "supplier")
	if supp == "" {
		return nil, perr.InvalidArgf("supplier is required")
	}
	return h.svc.Staleness(r.Context(), supp)
}

// swagger:route GET /runs/{run_id} Runs getRun
// @Summary Fetch one import run by id
// @Tags Runs
// @Produce json
// @Param run_id path string true "Run id"
// @Success 200 {object} domain.RunResponse "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /runs/{run_id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id := chi.URLParam(r, "run_id")
	if id == "" {
		return nil, perr.InvalidArgf("run_id is required")
	}
	return h.svc.Get(r.Context(), id)
}
