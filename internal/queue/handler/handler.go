package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fiuportal/internal/queue"
	"fiuportal/internal/report/models"
	"fiuportal/pkg/platform/httputil"
	request "fiuportal/pkg/platform/middleware/request"
)

// Service defines the queue operations the handler exposes.
type Service interface {
	Resolve(ctx context.Context, name queue.Name, filters queue.Filters) (*queue.QueueView, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the three queue endpoints. Escalations is registered
// here too; the resolver itself refuses non-supervisory roles.
func (h *Handler) Register(r chi.Router) {
	r.Get("/queues/validation", h.queue(queue.QueueValidation))
	r.Get("/queues/review", h.queue(queue.QueueReview))
	r.Get("/queues/escalations", h.queue(queue.QueueEscalations))
}

func (h *Handler) queue(name queue.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		filters := parseFilters(r)

		view, err := h.service.Resolve(ctx, name, filters)
		if err != nil {
			h.logger.WarnContext(ctx, "queue resolve failed",
				"request_id", request.GetRequestID(ctx),
				"queue", name,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, view)
	}
}

func parseFilters(r *http.Request) queue.Filters {
	q := r.URL.Query()
	return queue.Filters{
		Status:       models.State(q.Get("status")),
		Risk:         models.RiskLevel(q.Get("risk")),
		Age:          q.Get("age"),
		Search:       q.Get("search"),
		AssignedToMe: q.Get("assigned_to_me") == "true",
		Unassigned:   q.Get("unassigned") == "true",
		Sort:         q.Get("sort"),
		Page:         intParam(q.Get("page")),
		PageSize:     intParam(q.Get("page_size")),
	}
}

func intParam(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
