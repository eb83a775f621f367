package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fiuportal/internal/intake"
	"fiuportal/internal/report/models"
	id "fiuportal/pkg/domain"
	dErrors "fiuportal/pkg/domain-errors"
	"fiuportal/pkg/platform/httputil"
	request "fiuportal/pkg/platform/middleware/request"
)

// Service defines the intake operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, sub intake.SubmitReport) (*models.Report, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the submission endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/reports", h.HandleSubmit)
}

type submitRequest struct {
	Reference        string  `json:"reference"`
	ReportType       string  `json:"report_type"`
	EntityID         string  `json:"entity_id"`
	EntityName       string  `json:"entity_name"`
	Risk             string  `json:"risk,omitempty"`
	TransactionCount int     `json:"transaction_count"`
	TotalAmount      float64 `json:"total_amount"`
}

type submitResponse struct {
	Reference      string `json:"reference"`
	Status         string `json:"status"`
	EnteredQueueAt string `json:"entered_queue_at"`
}

// HandleSubmit handles POST /reports.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entityID, err := id.ParseEntityID(req.EntityID)
	if err != nil {
		httputil.WriteError(w, dErrors.NewField(dErrors.CodeInvalidInput, "entity_id", "invalid entity id"))
		return
	}

	report, err := h.service.Submit(ctx, intake.SubmitReport{
		Reference:        req.Reference,
		Type:             req.ReportType,
		EntityID:         entityID,
		EntityName:       req.EntityName,
		Risk:             req.Risk,
		TransactionCount: req.TransactionCount,
		TotalAmount:      req.TotalAmount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submission refused",
			"request_id", requestID,
			"reference", req.Reference,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		Reference:      report.Reference.String(),
		Status:         string(report.State),
		EnteredQueueAt: report.EnteredQueueAt.UTC().Format(time.RFC3339),
	})
}
