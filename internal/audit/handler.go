package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sensus-admin/sensus-console/internal/platform/httpx"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

// activityStatuses renders the action column badge.
var activityStatuses = shared.StatusMapping{
	ActionLogin:  {Text: "Masuk", Color: "green"},
	ActionLogout: {Text: "Keluar", Color: "gray"},
	ActionView:   {Text: "Lihat", Color: "blue"},
	ActionCreate: {Text: "Tambah", Color: "green"},
	ActionUpdate: {Text: "Ubah", Color: "orange"},
	ActionDelete: {Text: "Hapus", Color: "red"},
	ActionExport: {Text: "Ekspor", Color: "purple"},
}

// Handler serves the activity log listing.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type listedEntry struct {
	Entry
	RowNumber   int          `json:"row_number"`
	ActionBadge shared.Badge `json:"action_badge"`
}

// List answers GET /activity-logs with the standard page envelope.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	filters := ListFilters{
		Page:    page,
		PerPage: perPage,
		Action:  q.Get("filter[action]"),
		Entity:  q.Get("filter[entity]"),
		ActorID: q.Get("filter[actor]"),
	}

	envelope, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	rows := make([]listedEntry, 0, len(envelope.Data))
	for i, e := range envelope.Data {
		rows = append(rows, listedEntry{
			Entry:       e,
			RowNumber:   envelope.RowNumber(i),
			ActionBadge: shared.ResolveStatus(activityStatuses, e.Action),
		})
	}
	httpx.JSON(w, http.StatusOK, upstream.PageEnvelope[listedEntry]{Data: rows, Meta: envelope.Meta})
}
