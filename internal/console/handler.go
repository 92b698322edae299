package console

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/listing"
	"github.com/sensus-admin/sensus-console/internal/platform/httpx"
	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

// Handler serves every registered entity through the same routes. The
// Descriptor is the only per-entity input.
type Handler struct {
	logger         *slog.Logger
	client         *upstream.Client
	classifier     *Classifier
	recorder       audit.Recorder
	orchestrator   *Orchestrator
	validate       *validator.Validate
	defaultPerPage int
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, client *upstream.Client, classifier *Classifier, recorder audit.Recorder, defaultPerPage int) *Handler {
	if defaultPerPage <= 0 {
		defaultPerPage = listing.DefaultPerPage
	}
	return &Handler{
		logger:         logger,
		client:         client,
		classifier:     classifier,
		recorder:       recorder,
		orchestrator:   NewOrchestrator(client, recorder),
		validate:       validator.New(),
		defaultPerPage: defaultPerPage,
	}
}

// Mount registers the entity's routes under /{name}, read routes gated
// by the list roles and mutating routes by the write roles.
func (h *Handler) Mount(r chi.Router, d Descriptor, guard rbac.Middleware) {
	r.Route("/"+d.Name, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireRole(d.ListRoles...))
			r.Get("/", h.list(d))
			r.Post("/{id}/actions/{action}", h.performAction(d))
			r.Get("/{id}/view", h.destination(d))
			r.Get("/{id}/edit", h.destination(d))
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireRole(d.writeRoles()...))
			r.Post("/", h.create(d))
			r.Put("/{id}", h.update(d))
			r.Delete("/{id}", h.remove(d))
		})
	})
}

// listView is the list page payload: decorated rows plus the pagination
// state the table renders its controls from.
type listView struct {
	Title string        `json:"title"`
	Data  []Row         `json:"data"`
	Meta  upstream.Meta `json:"meta"`
	Query queryView     `json:"query"`
}

type queryView struct {
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Filters map[string]string `json:"filters"`
	Locked  []string          `json:"locked"`
}

func (h *Handler) list(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		locked := d.lockedFilters(sess.Scope())

		token := sessionToken(sess)
		ctrl := listing.NewController(func(ctx context.Context, q upstream.ListQuery) (upstream.PageEnvelope[Row], error) {
			return upstream.List[Row](ctx, h.client, token, d.Name, q)
		}, listing.Options{DefaultPerPage: h.defaultPerPage, LockedFilters: locked})

		applyListParams(ctrl, r.URL.Query())

		env, err := ctrl.Refresh(r.Context())
		if err != nil {
			h.classifier.Respond(w, r, err)
			return
		}
		// A fresh controller learns the page count from the first
		// response, so an overshooting ?page= only clamps after that
		// fetch. Refetch the clamped page so the rows match the query
		// state the table renders.
		if ctrl.Page() != env.Meta.CurrentPage {
			env, err = ctrl.Refresh(r.Context())
			if err != nil {
				h.classifier.Respond(w, r, err)
				return
			}
		}

		query := ctrl.Query()
		lockedKeys := make([]string, 0, len(locked))
		for k := range locked {
			lockedKeys = append(lockedKeys, k)
		}
		httpx.OK(w, listView{
			Title: d.Title,
			Data:  decorateRows(d, env),
			Meta:  env.Meta,
			Query: queryView{
				Page:    query.Page,
				PerPage: query.PerPage,
				Filters: query.Filters,
				Locked:  lockedKeys,
			},
		})
	}
}

// applyListParams replays the request's pagination intent onto a fresh
// controller. Page size first (it returns to page 1), filters next, the
// page jump last so it lands on the requested page.
func applyListParams(ctrl *listing.Controller[Row], q url.Values) {
	if q.Has("reset") {
		ctrl.Reset()
		return
	}
	if pp, err := strconv.Atoi(q.Get("per_page")); err == nil {
		ctrl.ChangeRowsPerPage(pp)
	}
	for key := range q {
		if name, ok := filterName(key); ok {
			ctrl.SetFilter(name, q.Get(key))
		}
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		ctrl.GoToPage(p)
	}
}

func filterName(key string) (string, bool) {
	if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") && len(key) > len("filter[]") {
		return key[len("filter[") : len(key)-1], true
	}
	return "", false
}

// decorateRows copies each record and injects the presentation fields:
// the absolute row number, resolved status badges, and the actions
// visible for that row.
func decorateRows(d Descriptor, env upstream.PageEnvelope[Row]) []Row {
	rows := make([]Row, 0, len(env.Data))
	for i, src := range env.Data {
		row := make(Row, len(src)+3)
		for k, v := range src {
			row[k] = v
		}
		row["_row_number"] = env.RowNumber(i)
		if len(d.Statuses) > 0 {
			badges := make(map[string]shared.Badge, len(d.Statuses))
			for col, mapping := range d.Statuses {
				badges[col] = shared.ResolveStatus(mapping, src[col])
			}
			row["_badges"] = badges
		}
		row["_actions"] = visibleActions(d, src)
		rows = append(rows, row)
	}
	return rows
}

func visibleActions(d Descriptor, row Row) []RowAction {
	actions := []RowAction{
		{Label: "Detail", Value: ActionDetail},
		{Label: "Ubah", Value: ActionEdit},
		{Label: "Hapus", Value: ActionDelete},
	}
	for _, a := range d.Actions {
		if a.Visible == nil || a.Visible(row) {
			actions = append(actions, a)
		}
	}
	return actions
}

func (h *Handler) performAction(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		id := chi.URLParam(r, "id")
		action := chi.URLParam(r, "action")

		result, err := h.orchestrator.PerformAction(r.Context(), sess, d, id, action)
		if err != nil {
			h.classifier.Respond(w, r, err)
			return
		}

		env := httpx.Envelope{Success: true, Data: result}
		if result.Message != "" {
			env.Message = result.Message
			env.Notification = &httpx.Notification{Kind: "success", Message: result.Message}
		}
		httpx.JSON(w, http.StatusOK, env)
	}
}

// destination serves the view/edit screens from the stashed navigation
// state. Direct URL entry without a preceding row action is answered
// with the invalid-state warning, not a silent refetch.
func (h *Handler) destination(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		id := chi.URLParam(r, "id")

		record, err := takeNavState(sess, d.Name, id)
		if err != nil {
			h.classifier.Respond(w, r, err)
			return
		}
		httpx.OK(w, json.RawMessage(record))
	}
}

func (h *Handler) create(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())

		form := d.NewForm()
		if err := httpx.DecodeJSON(r, form); err != nil {
			httpx.Fail(w, http.StatusBadRequest, httpx.Notification{Kind: "error", Message: "Format data tidak valid"})
			return
		}
		if err := h.validate.Struct(form); err != nil {
			httpx.Fail(w, http.StatusUnprocessableEntity, httpx.Notification{Kind: "error", Message: "Periksa kembali isian Anda"})
			return
		}

		msg, err := h.client.Mutate(r.Context(), sessionToken(sess), http.MethodPost, d.Name, form)
		if err != nil {
			h.classifier.Respond(w, r, err)
			return
		}
		h.recorder.Record(r.Context(), audit.Entry{Action: audit.ActionCreate, Entity: d.Name})

		if msg == "" {
			msg = d.Title + " berhasil ditambahkan"
		}
		httpx.JSON(w, http.StatusCreated, httpx.Envelope{
			Success:      true,
			Message:      msg,
			Notification: &httpx.Notification{Kind: "success", Message: msg},
		})
	}
}

func (h *Handler) update(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		id := chi.URLParam(r, "id")

		form := d.NewForm()
		if err := httpx.DecodeJSON(r, form); err != nil {
			httpx.Fail(w, http.StatusBadRequest, httpx.Notification{Kind: "error", Message: "Format data tidak valid"})
			return
		}
		if err := h.validate.Struct(form); err != nil {
			httpx.Fail(w, http.StatusUnprocessableEntity, httpx.Notification{Kind: "error", Message: "Periksa kembali isian Anda"})
			return
		}

		msg, err := h.client.Mutate(r.Context(), sessionToken(sess), http.MethodPut, d.Name+"/"+id, form)
		if err != nil {
			h.classifier.Respond(w, r, err)
			return
		}
		clearNavState(sess, d.Name)
		h.recorder.Record(r.Context(), audit.Entry{Action: audit.ActionUpdate, Entity: d.Name, EntityID: id})

		if msg == "" {
			msg = d.Title + " berhasil diperbarui"
		}
		httpx.JSON(w, http.StatusOK, httpx.Envelope{
			Success:      true,
			Message:      msg,
			Notification: &httpx.Notification{Kind: "success", Message: msg},
		})
	}
}

func (h *Handler) remove(d Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		id := chi.URLParam(r, "id")

		msg, err := h.client.Mutate(r.Context(), sessionToken(sess), http.MethodDelete, d.Name+"/"+id, nil)
		if err != nil {
			h.classifier.Respond(w, r, err)
			return
		}
		clearNavState(sess, d.Name)
		h.recorder.Record(r.Context(), audit.Entry{Action: audit.ActionDelete, Entity: d.Name, EntityID: id})

		if msg == "" {
			msg = d.Title + " berhasil dihapus"
		}
		httpx.JSON(w, http.StatusOK, httpx.Envelope{
			Success:      true,
			Message:      msg,
			Data:         map[string]any{"refetch": true},
			Notification: &httpx.Notification{Kind: "success", Message: msg},
		})
	}
}

func sessionToken(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	if p := sess.Profile(); p != nil {
		return p.Token
	}
	return ""
}
