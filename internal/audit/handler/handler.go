package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fiuportal/internal/audit"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/platform/httputil"
	request "fiuportal/pkg/platform/middleware/request"
)

// Ledger is the audit query dependency.
type Ledger interface {
	Query(ctx context.Context, filters audit.Filters) ([]audit.Entry, int, error)
}

// Handler exposes the audit ledger to supervisory roles.
type Handler struct {
	ledger Ledger
	logger *slog.Logger
}

func New(ledger Ledger, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, logger: logger}
}

// Register mounts audit endpoints on the router. The router applies the
// supervisor gate before these routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.HandleQuery)
}

type queryResponse struct {
	Items    []audit.Entry `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// HandleQuery handles GET /audit requests.
func (h *Handler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, err := parseFilters(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, total, err := h.ledger.Query(ctx, filters)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit query failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, queryResponse{
		Items:    entries,
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	})
}

func parseFilters(r *http.Request) (audit.Filters, error) {
	q := r.URL.Query()
	var filters audit.Filters

	if v := q.Get("decision"); v != "" {
		kind, err := parseKind(v)
		if err != nil {
			return filters, err
		}
		filters.Kind = kind
	}
	if v := q.Get("user"); v != "" {
		actor, err := id.ParseActorID(v)
		if err != nil {
			return filters, err
		}
		filters.Actor = actor
	}
	if v := q.Get("reference"); v != "" {
		ref, err := id.ParseReference(v)
		if err != nil {
			return filters, err
		}
		filters.Reference = ref
	}
	if v := q.Get("from_date"); v != "" {
		t, err := parseDate(v, "from_date")
		if err != nil {
			return filters, err
		}
		filters.From = t
	}
	if v := q.Get("to_date"); v != "" {
		t, err := parseDate(v, "to_date")
		if err != nil {
			return filters, err
		}
		// Inclusive end of day when only a date is given.
		if len(v) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filters.To = t
	}
	filters.Page = parseIntDefault(q.Get("page"), 1)
	filters.PageSize = parseIntDefault(q.Get("page_size"), 50)
	filters.Normalize()
	return filters, nil
}

func parseKind(s string) (models.DecisionKind, error) {
	return models.ParseDecisionKind(s)
}

func parseDate(s, field string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, dErrors.NewField(dErrors.CodeInvalidInput, field, "must be RFC3339 or YYYY-MM-DD")
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
