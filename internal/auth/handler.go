package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/platform/httpx"
	"github.com/sensus-admin/sensus-console/internal/shared"
)

// Handler serves login, logout and the current-profile endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	recorder audit.Recorder
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, recorder audit.Recorder) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		csrf:     csrf,
		recorder: recorder,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}

// profileView is the profile as exposed to the browser. The upstream API
// token never leaves the server side.
type profileView struct {
	UserID string             `json:"user_id"`
	Name   string             `json:"name"`
	RoleID string             `json:"role_id"`
	Scope  shared.AccessScope `json:"scope"`
	CSRF   string             `json:"csrf_token"`
}

// Login authenticates and attaches the profile to the session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	var form LoginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.Notification{Kind: "error", Message: "Permintaan tidak valid"})
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Fail(w, http.StatusUnprocessableEntity, httpx.Notification{Kind: "error", Message: "Email dan password wajib diisi"})
		return
	}

	profile, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Fail(w, http.StatusBadRequest, httpx.Notification{Kind: "error", Message: shared.UserSafeMessage(err)})
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadGateway, httpx.Notification{Kind: "error", Message: "Tidak dapat terhubung ke server sensus"})
		return
	}

	sess.SetProfile(profile)
	token, _ := h.csrf.EnsureToken(r.Context(), sess)
	h.recorder.Record(r.Context(), audit.Entry{
		ActorID:   profile.UserID,
		ActorName: profile.Name,
		Action:    audit.ActionLogin,
		Entity:    "session",
		EntityID:  sess.ID,
	})

	httpx.OK(w, profileView{
		UserID: profile.UserID,
		Name:   profile.Name,
		RoleID: profile.RoleID,
		Scope:  profile.Scope,
		CSRF:   token,
	})
}

// Logout destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.Authenticated() {
		h.recorder.Record(r.Context(), audit.Entry{
			Action:   audit.ActionLogout,
			Entity:   "session",
			EntityID: sess.ID,
		})
	}
	h.sessions.Destroy(sess)
	httpx.OK(w, nil)
}

// Me returns the current profile, or 401 when anonymous.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	p := sess.Profile()
	token, _ := h.csrf.EnsureToken(r.Context(), sess)
	httpx.OK(w, profileView{
		UserID: p.UserID,
		Name:   p.Name,
		RoleID: p.RoleID,
		Scope:  p.Scope,
		CSRF:   token,
	})
}
