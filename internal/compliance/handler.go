package compliance

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/console"
	"github.com/sensus-admin/sensus-console/internal/platform/httpx"
	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
)

// ScanQueue schedules a background board rescan.
type ScanQueue interface {
	EnqueueComplianceScan(ctx context.Context) (*asynq.TaskInfo, error)
}

// Handler exposes the monitoring board.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	recorder   audit.Recorder
	classifier *console.Classifier
	queue      ScanQueue
}

// NewHandler constructs a Handler. A nil queue makes Refresh rebuild
// the board inside the request instead of scheduling a scan.
func NewHandler(logger *slog.Logger, service *Service, recorder audit.Recorder, classifier *console.Classifier, queue ScanQueue) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, recorder: recorder, classifier: classifier, queue: queue}
}

// MountRoutes registers the board routes. The board and its export are
// readable by every admin role plus the read-only viewer; forcing a
// rescan is super admin only.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Route("/compliance", func(r chi.Router) {
		r.Use(guard.RequireRole(rbac.RoleSuperAdmin, rbac.RoleAdminDaerah, rbac.RoleAdminDesa, rbac.RoleViewer))
		r.Get("/board", h.Board)
		r.Get("/export", h.Export)
		r.With(guard.RequireRole(rbac.RoleSuperAdmin)).Post("/refresh", h.Refresh)
	})
}

// Board serves the aggregated board, cached or freshly built.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Board(r.Context(), requestToken(r))
	if err != nil {
		h.classifier.Respond(w, r, err)
		return
	}
	httpx.OK(w, board)
}

// Refresh schedules a rescan on the job queue so the scan does not run
// inside the request. Without a queue it rebuilds the board in place.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.queue != nil {
		info, err := h.queue.EnqueueComplianceScan(r.Context())
		if err != nil {
			h.logger.Error("enqueue compliance scan", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, httpx.Notification{Kind: "error", Message: "Gagal menjadwalkan pemindaian"})
			return
		}
		msg := "Pemindaian kepatuhan dijadwalkan"
		httpx.JSON(w, http.StatusAccepted, httpx.Envelope{
			Success:      true,
			Message:      msg,
			Data:         map[string]any{"task_id": info.ID},
			Notification: &httpx.Notification{Kind: "success", Message: msg},
		})
		return
	}

	board, err := h.service.Refresh(r.Context(), requestToken(r))
	if err != nil {
		h.classifier.Respond(w, r, err)
		return
	}
	msg := "Pemindaian kepatuhan selesai"
	httpx.JSON(w, http.StatusOK, httpx.Envelope{
		Success:      true,
		Message:      msg,
		Data:         board,
		Notification: &httpx.Notification{Kind: "success", Message: msg},
	})
}

// Export downloads the board as CSV. Exports are audited.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Board(r.Context(), requestToken(r))
	if err != nil {
		h.classifier.Respond(w, r, err)
		return
	}

	h.recorder.Record(r.Context(), audit.Entry{
		Action: audit.ActionExport,
		Entity: "compliance",
		Meta:   map[string]any{"rows": len(board.Items)},
	})

	filename := fmt.Sprintf("kepatuhan-laporan-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"daerah", "desa", "kelompok", "bulan_terlewat", "status", "laporan_terakhir"})
	for _, item := range board.Items {
		_ = cw.Write([]string{
			item.Daerah,
			item.Desa,
			item.Kelompok,
			strconv.Itoa(item.MissedMonths),
			item.Badge.Text,
			item.LastReport,
		})
	}
	cw.Flush()
}

func requestToken(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if p := sess.Profile(); p != nil {
			return p.Token
		}
	}
	return ""
}
