package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fiuportal/internal/assignment"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/platform/httputil"
	request "fiuportal/pkg/platform/middleware/request"
	"fiuportal/pkg/requestcontext"
)

// Service defines the assignment operations the handler exposes.
type Service interface {
	Assign(ctx context.Context, req assignment.AssignRequest) (*assignment.Assignment, error)
	WorkloadOf(ctx context.Context, officer id.ActorID) (int, error)
}

// Handler wires assignment endpoints to the assignment manager.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts assignment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/reports/{reference}/assign", h.HandleAssign)
}

// RegisterSupervisor mounts the supervisor-only endpoints.
func (h *Handler) RegisterSupervisor(r chi.Router) {
	r.Get("/officers/{officerID}/workload", h.HandleWorkload)
}

type assignRequest struct {
	Assignee string     `json:"assignee"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// HandleAssign handles POST /reports/{reference}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	ref, err := id.ParseReference(chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[assignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// Empty assignee means self-claim.
	assignee := requestcontext.Actor(ctx)
	if req.Assignee != "" {
		assignee, err = id.ParseActorID(req.Assignee)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	domainReq := assignment.AssignRequest{Reference: ref, Assignee: assignee}
	if req.Deadline != nil {
		domainReq.Deadline = *req.Deadline
	}

	a, err := h.service.Assign(ctx, domainReq)
	if err != nil {
		h.logger.WarnContext(ctx, "assignment refused",
			"request_id", requestID,
			"reference", ref,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, a)
}

type workloadResponse struct {
	OfficerID         string `json:"officer_id"`
	ActiveAssignments int    `json:"active_assignments"`
}

// HandleWorkload handles GET /officers/{officerID}/workload.
func (h *Handler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	officer, err := id.ParseActorID(chi.URLParam(r, "officerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid officer id"))
		return
	}

	count, err := h.service.WorkloadOf(ctx, officer)
	if err != nil {
		h.logger.ErrorContext(ctx, "workload query failed",
			"request_id", request.GetRequestID(ctx),
			"officer_id", officer,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, workloadResponse{
		OfficerID:         officer.String(),
		ActiveAssignments: count,
	})
}
