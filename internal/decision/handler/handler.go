package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fiuportal/internal/decision"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/platform/httputil"
	request "fiuportal/pkg/platform/middleware/request"
)

// Service defines the decision engine operations the handler exposes.
type Service interface {
	Apply(ctx context.Context, ref id.Reference, sub decision.SubmitDecision) (*decision.Outcome, error)
}

// Handler wires the decision endpoint to the workflow engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the decision endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/reports/{reference}/decision", h.HandleDecide)
}

// decideRequest is the wire payload. Decision uses past-tense spellings
// for review outcomes (ARCHIVED, MONITORED, ESCALATED) because those are
// the labels entity-facing tooling already uses; mapping to engine kinds
// happens here and nowhere else.
type decideRequest struct {
	Decision         string `json:"decision"`
	ReturnReason     string `json:"return_reason,omitempty"`
	RejectionReason  string `json:"rejection_reason,omitempty"`
	EscalationReason string `json:"escalation_reason,omitempty"`
	Comments         string `json:"comments,omitempty"`
}

// wireKinds deliberately excludes the escalation-resolution kinds: those
// transitions require the second-reviewer check and go through the
// supervisor-only escalation routes, never through this endpoint.
var wireKinds = map[string]models.DecisionKind{
	"ACCEPT":    models.KindAccept,
	"RETURN":    models.KindReturn,
	"REJECT":    models.KindReject,
	"ARCHIVED":  models.KindArchive,
	"MONITORED": models.KindMonitor,
	"ESCALATED": models.KindEscalate,
}

func (req decideRequest) toSubmit() (decision.SubmitDecision, error) {
	kind, ok := wireKinds[strings.ToUpper(strings.TrimSpace(req.Decision))]
	if !ok {
		return decision.SubmitDecision{}, dErrors.NewField(dErrors.CodeInvalidInput, "decision",
			"unsupported decision: "+req.Decision)
	}

	sub := decision.SubmitDecision{Kind: kind, Comments: req.Comments}
	switch kind {
	case models.KindReturn:
		sub.Reason = req.ReturnReason
	case models.KindReject:
		sub.Reason = req.RejectionReason
	case models.KindEscalate:
		sub.Reason = req.EscalationReason
	}
	return sub, nil
}

// HandleDecide handles POST /reports/{reference}/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	ref, err := id.ParseReference(chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[decideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sub, err := req.toSubmit()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.Apply(ctx, ref, sub)
	if err != nil {
		h.logger.WarnContext(ctx, "decision refused",
			"request_id", requestID,
			"reference", ref,
			"decision", req.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}
