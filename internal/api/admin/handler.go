// Package admin serves seeding and reset over HTTP at /_treeseed/.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/johnwards/treeseed/internal/api"
	"github.com/johnwards/treeseed/internal/app"
	"github.com/johnwards/treeseed/internal/runlock"
	"github.com/johnwards/treeseed/internal/seed"
	"github.com/johnwards/treeseed/internal/store"
)

// DateLayout is the layout of the date query parameter.
const DateLayout = "2006-01-02"

// Service is the part of app.App the admin API drives.
type Service interface {
	Seed(ctx context.Context, req app.SeedRequest) (*seed.Report, error)
	Reset(ctx context.Context, reseed bool, req app.SeedRequest) (*app.ResetResult, error)
	Classes(ctx context.Context) (app.ClassList, error)
	Tree(ctx context.Context, depth int) (*app.TreeNode, error)
}

// Handler serves the admin API.
type Handler struct {
	svc Service
}

// Seed runs the seeder. Query parameters: instances, date (YYYY-MM-DD).
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	req, ok := seedRequest(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Seed(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "seed", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, report)
}

// Reset wipes object data. Query parameters: seed (bool), instances, date.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	req, ok := seedRequest(w, r)
	if !ok {
		return
	}
	reseed := false
	if v := r.URL.Query().Get("seed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeValidation(w, r, fmt.Sprintf("invalid seed %q", v))
			return
		}
		reseed = b
	}
	res, err := h.svc.Reset(r.Context(), reseed, req)
	if err != nil {
		writeServiceError(w, r, "reset", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, res)
}

// Classes lists the registered classes.
func (h *Handler) Classes(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.Classes(r.Context())
	if err != nil {
		writeServiceError(w, r, "list classes", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, map[string]any{"results": classes})
}

// Tree returns the object tree. Query parameter: depth, default 2.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	depth := 2
	if v := r.URL.Query().Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeValidation(w, r, fmt.Sprintf("invalid depth %q", v))
			return
		}
		depth = n
	}
	tree, err := h.svc.Tree(r.Context(), depth)
	if err != nil {
		writeServiceError(w, r, "load tree", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, tree)
}

func seedRequest(w http.ResponseWriter, r *http.Request) (app.SeedRequest, bool) {
	var req app.SeedRequest
	q := r.URL.Query()
	if v := q.Get("instances"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeValidation(w, r, fmt.Sprintf("invalid instances %q", v))
			return req, false
		}
		req.Instances = n
	}
	if v := q.Get("date"); v != "" {
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			writeValidation(w, r, fmt.Sprintf("invalid date %q: want YYYY-MM-DD", v))
			return req, false
		}
		req.Epoch = d
	}
	return req, true
}

func writeValidation(w http.ResponseWriter, r *http.Request, msg string) {
	api.WriteError(w, r, http.StatusBadRequest, api.NewValidationError(msg, api.CorrelationID(r.Context())))
}

func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	corrID := api.CorrelationID(r.Context())
	msg := fmt.Sprintf("%s: %s", op, err)
	switch {
	case errors.Is(err, runlock.ErrHeld):
		api.WriteError(w, r, http.StatusConflict, api.NewConflictError(msg, corrID))
	case errors.Is(err, store.ErrNotFound):
		api.WriteError(w, r, http.StatusNotFound, api.NewNotFoundError(msg, corrID))
	case errors.Is(err, store.ErrInvalidClass):
		api.WriteError(w, r, http.StatusBadRequest, api.NewValidationError(msg, corrID))
	default:
		api.WriteError(w, r, http.StatusInternalServerError, api.NewInternalError(msg, corrID))
	}
}
