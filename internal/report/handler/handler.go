// Package handler wires the contravention endpoints to the report service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contraventions/internal/report/models"
	"contraventions/internal/report/service"
	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
	"contraventions/pkg/platform/httputil"
	"contraventions/pkg/requestcontext"
)

// Service is the report operations surface the handler needs.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*models.Report, error)
	GetByRef(ctx context.Context, ref id.ReportRef) (*models.Report, error)
	Confirm(ctx context.Context, ref id.ReportRef, override models.Location) (*service.ConfirmResult, error)
	Dismiss(ctx context.Context, ref id.ReportRef, note string) (*models.Report, error)
	PreviewRecidive(ctx context.Context, in service.PreviewInput) (*service.Preview, error)
	ListByAuthor(ctx context.Context, author id.AgentID) ([]*models.Report, error)
	ListByResident(ctx context.Context, resident id.ResidentID) ([]*models.Report, error)
	AgentStats(ctx context.Context, author id.AgentID) (*service.Stats, error)
}

// MotifCatalog lists the labels agents can file under.
type MotifCatalog interface {
	ListLabels(ctx context.Context) ([]id.MotifLabel, error)
}

type Handler struct {
	service Service
	motifs  MotifCatalog
	logger  *slog.Logger
}

func New(service Service, motifs MotifCatalog, logger *slog.Logger) *Handler {
	return &Handler{service: service, motifs: motifs, logger: logger}
}

// Register mounts the contravention endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/contraventions", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/types", h.HandleListMotifs)
		r.Get("/ref/{ref}", h.HandleGet)
		r.Post("/ref/{ref}/confirm", h.HandleConfirm)
		r.Post("/ref/{ref}/dismiss", h.HandleDismiss)
		r.Get("/history/{agentID}", h.HandleHistory)
		r.Get("/stats/{agentID}", h.HandleStats)
		r.Get("/resident/{residentID}", h.HandleByResident)
	})
	r.Get("/recidives", h.HandlePreview)
}

// HandleCreate handles POST /contraventions.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[CreateRequest](w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.service.Create(ctx, service.CreateInput{
		Motif:       req.Motif,
		Description: req.Description,
		ResidentID:  req.ResidentID,
		Room:        req.Room,
		Building:    req.Building,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "report creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromReport(report))
}

// HandleGet handles GET /contraventions/ref/{ref}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetByRef(r.Context(), id.ReportRef(chi.URLParam(r, "ref")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromReport(report))
}

// HandleConfirm handles POST /contraventions/ref/{ref}/confirm. The body is
// optional; when present it may carry a location override.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := id.ReportRef(chi.URLParam(r, "ref"))
	start := time.Now()

	var override models.Location
	if r.ContentLength > 0 {
		req, ok := httputil.Decode[ConfirmRequest](w, r, h.logger)
		if !ok {
			return
		}
		override = models.Location{Room: req.Room, Building: req.Building}
	}

	result, err := h.service.Confirm(ctx, ref, override)
	if err != nil {
		h.logger.ErrorContext(ctx, "confirmation failed",
			"request_id", requestcontext.RequestID(ctx),
			"ref", ref.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "report confirmed",
		"request_id", requestcontext.RequestID(ctx),
		"ref", ref.String(),
		"occurrence", result.Occurrence,
		"amount", result.Invoice.Amount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromConfirmResult(result))
}

// HandleDismiss handles POST /contraventions/ref/{ref}/dismiss.
func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := id.ReportRef(chi.URLParam(r, "ref"))

	var note string
	if r.ContentLength > 0 {
		req, ok := httputil.Decode[DismissRequest](w, r, h.logger)
		if !ok {
			return
		}
		note = req.Note
	}

	report, err := h.service.Dismiss(ctx, ref, note)
	if err != nil {
		h.logger.ErrorContext(ctx, "dismissal failed",
			"request_id", requestcontext.RequestID(ctx),
			"ref", ref.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromReport(report))
}

// HandleHistory handles GET /contraventions/history/{agentID}.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListByAuthor(r.Context(), id.AgentID(chi.URLParam(r, "agentID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromReports(reports))
}

// HandleStats handles GET /contraventions/stats/{agentID}.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AgentStats(r.Context(), id.AgentID(chi.URLParam(r, "agentID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleByResident handles GET /contraventions/resident/{residentID}.
func (h *Handler) HandleByResident(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListByResident(r.Context(), id.ResidentID(chi.URLParam(r, "residentID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromReports(reports))
}

// HandleListMotifs handles GET /contraventions/types.
func (h *Handler) HandleListMotifs(w http.ResponseWriter, r *http.Request) {
	labels, err := h.motifs.ListLabels(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list motifs"))
		return
	}
	out := make([]string, len(labels))
	for i, label := range labels {
		out[i] = label.String()
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandlePreview handles GET /recidives.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	preview, err := h.service.PreviewRecidive(r.Context(), service.PreviewInput{
		Motif:      q.Get("motif"),
		ResidentID: q.Get("residentId"),
		Room:       q.Get("room"),
		Building:   q.Get("building"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPreview(preview))
}
