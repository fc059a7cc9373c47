package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tradejournal/internal/app"
	"tradejournal/internal/domain"
	"tradejournal/internal/journal"
	"tradejournal/internal/ports"
)

// Journal is what the HTTP layer needs from the application service.
type Journal interface {
	Dashboard() app.Dashboard
	Trade(tradeID string) (domain.Trade, error)
	List(q journal.Query) (journal.Result, error)
	Save(ctx context.Context, in journal.TradeInput, editID string) (domain.Trade, error)
	Update(ctx context.Context, tradeID string, patch domain.TradePatch) (domain.Trade, error)
	Delete(ctx context.Context, tradeID string) error
	RequestEditor(ctx context.Context) int
	OnDashboard(fn app.DashboardListener) (unsubscribe func())
	OnOpenEditor(fn func()) (unsubscribe func())
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	journal Journal
	logger  ports.Logger
}

// NewHandler creates a new Handler
func NewHandler(j Journal, logger ports.Logger) *Handler {
	return &Handler{
		journal: j,
		logger:  logger,
	}
}

// ListTrades handles GET /trades
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.journal.List(q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// GetTrade handles GET /trades/{id}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	t, err := h.journal.Trade(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// CreateTrade handles POST /trades with editor input.
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var in journal.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, r, fmt.Errorf("invalid request body: %w", ports.ErrInvalidRequest))
		return
	}

	t, err := h.journal.Save(r.Context(), in, "")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

// ReplaceTrade handles PUT /trades/{id}: the editor's edit flow.
func (h *Handler) ReplaceTrade(w http.ResponseWriter, r *http.Request) {
	var in journal.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, r, fmt.Errorf("invalid request body: %w", ports.ErrInvalidRequest))
		return
	}

	t, err := h.journal.Save(r.Context(), in, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// PatchTrade handles PATCH /trades/{id} with a partial update.
func (h *Handler) PatchTrade(w http.ResponseWriter, r *http.Request) {
	var patch domain.TradePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.respondError(w, r, fmt.Errorf("invalid request body: %w", ports.ErrInvalidRequest))
		return
	}

	t, err := h.journal.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// DeleteTrade handles DELETE /trades/{id}
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.journal.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMetrics handles GET /metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.Dashboard())
}

// OpenEditor handles POST /editor
func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	n := h.journal.RequestEditor(r.Context())
	respondJSON(w, http.StatusAccepted, map[string]int{"handlers": n})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func parseQuery(r *http.Request) (journal.Query, error) {
	v := r.URL.Query()
	key, err := journal.ParseSortKey(v.Get("sort"))
	if err != nil {
		return journal.Query{}, err
	}
	q := journal.Query{
		Side:     v.Get("side"),
		Emotion:  v.Get("emotion"),
		Strategy: v.Get("strategy"),
		Search:   v.Get("q"),
		SortKey:  key,
	}
	switch v.Get("dir") {
	case "", "desc":
	case "asc":
		q.Asc = true
	default:
		return journal.Query{}, fmt.Errorf("dir must be asc or desc: %w", ports.ErrInvalidRequest)
	}
	if q.Page, err = intParam(v.Get("page")); err != nil {
		return journal.Query{}, err
	}
	if q.PerPage, err = intParam(v.Get("perPage")); err != nil {
		return journal.Query{}, err
	}
	return q, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q: %w", s, ports.ErrInvalidRequest)
	}
	return n, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrDuplicateEntry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), err, "Request failed", ports.Fields{"method": r.Method, "path": r.URL.Path})
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
