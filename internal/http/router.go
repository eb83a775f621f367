// Package httpapi assembles the portal's HTTP surface. Handlers stay in
// their modules; this package only mounts them and layers the auth
// middleware.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	assignmenthandler "fiuportal/internal/assignment/handler"
	audithandler "fiuportal/internal/audit/handler"
	decisionhandler "fiuportal/internal/decision/handler"
	escalationhandler "fiuportal/internal/escalation/handler"
	"fiuportal/internal/identity"
	intakehandler "fiuportal/internal/intake/handler"
	queuehandler "fiuportal/internal/queue/handler"
	"fiuportal/pkg/platform/httputil"
	request "fiuportal/pkg/platform/middleware/request"
)

// Deps carries the wired handlers and the token validator.
type Deps struct {
	Validator  identity.Validator
	Intake     *intakehandler.Handler
	Assignment *assignmenthandler.Handler
	Decision   *decisionhandler.Handler
	Queue      *queuehandler.Handler
	Escalation *escalationhandler.Handler
	Audit      *audithandler.Handler
	Logger     *slog.Logger
}

// NewRouter mounts every endpoint. Escalation and audit endpoints sit
// behind the supervisor gate; everything else behind plain auth.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.ID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireAuth(deps.Validator, deps.Logger))

		deps.Intake.Register(r)
		deps.Assignment.Register(r)
		deps.Decision.Register(r)
		deps.Queue.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireSupervisor(deps.Logger))

			deps.Assignment.RegisterSupervisor(r)
			deps.Escalation.RegisterSupervisor(r)
			deps.Audit.Register(r)
		})
	})

	return r
}
