package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"admission/internal/admission/models"
	"admission/internal/admission/service"
	dErrors "admission/pkg/domain-errors"
	"admission/pkg/platform/httputil"
	"admission/pkg/platform/middleware/requestlog"
	"admission/pkg/requestcontext"
)

// StatusService is the read-only slice of the admission service served over HTTP.
type StatusService interface {
	Status(ctx context.Context) service.Status
	Students(ctx context.Context) []*models.Student
	Student(ctx context.Context, regNumber string) (*models.Student, error)
	StudentByRank(ctx context.Context, rank int) (*models.Student, error)
	Colleges(ctx context.Context) []service.CollegeSeats
	Catalog() *models.Catalog
}

// Handler is the thin HTTP layer over the admission service. It never mutates
// state; registration and allocation stay on the console.
type Handler struct {
	service StatusService
	logger  *slog.Logger
}

func NewHandler(svc StatusService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: svc, logger: logger}
}

// Register mounts the status endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/status", h.handleStatus)
	r.Get("/students", h.handleStudents)
	r.Get("/students/{regNumber}", h.handleStudent)
	r.Get("/ranks/{rank}", h.handleStudentByRank)
	r.Get("/colleges", h.handleColleges)
}

// NewRouter wires the status endpoints plus /metrics for the given gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(requestlog.Middleware(h.logger))
	h.Register(r)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(status))
}

func (h *Handler) handleStudents(w http.ResponseWriter, r *http.Request) {
	catalog := h.service.Catalog()
	students := h.service.Students(r.Context())
	resp := make([]studentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, toStudentResponse(s, catalog))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regNumber := chi.URLParam(r, "regNumber")
	s, err := h.service.Student(ctx, regNumber)
	if err != nil {
		h.logger.DebugContext(ctx, "student lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"reg_number", regNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudentResponse(s, h.service.Catalog()))
}

func (h *Handler) handleStudentByRank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rank, err := strconv.Atoi(chi.URLParam(r, "rank"))
	if err != nil || rank < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "rank must be a positive number"))
		return
	}
	s, err := h.service.StudentByRank(ctx, rank)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStudentResponse(s, h.service.Catalog()))
}

func (h *Handler) handleColleges(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toCollegeResponses(h.service.Colleges(r.Context())))
}
