package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fiuportal/internal/decision"
	id "fiuportal/pkg/domain"
	"fiuportal/pkg/platform/httputil"
	request "fiuportal/pkg/platform/middleware/request"
)

// Service defines the escalation gate operations the handler exposes.
type Service interface {
	Approve(ctx context.Context, ref id.Reference) (*decision.Outcome, error)
	Reject(ctx context.Context, ref id.Reference, note string) (*decision.Outcome, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterSupervisor mounts the escalation endpoints; the router gates
// them behind the supervisor check.
func (h *Handler) RegisterSupervisor(r chi.Router) {
	r.Post("/reports/{reference}/escalation/approve", h.HandleApprove)
	r.Post("/reports/{reference}/escalation/reject", h.HandleReject)
}

// HandleApprove handles POST /reports/{reference}/escalation/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ref, err := id.ParseReference(chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.Approve(ctx, ref)
	if err != nil {
		h.logger.WarnContext(ctx, "escalation approval refused",
			"request_id", request.GetRequestID(ctx),
			"reference", ref,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}

type rejectRequest struct {
	RejectionNote string `json:"rejection_note"`
}

// HandleReject handles POST /reports/{reference}/escalation/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	ref, err := id.ParseReference(chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[rejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.Reject(ctx, ref, req.RejectionNote)
	if err != nil {
		h.logger.WarnContext(ctx, "escalation rejection refused",
			"request_id", requestID,
			"reference", ref,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}
