package console

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sensus-admin/sensus-console/internal/platform/httpx"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

// Classifier turns upstream failures into user-facing notifications and,
// for authentication failures, clears the session and tells the browser
// to return to the login screen after the notification has been visible.
type Classifier struct {
	Sessions      *shared.SessionManager
	RedirectDelay time.Duration
	Logger        *slog.Logger
}

// Classify maps an error to its notification. Pure, no side effects.
func Classify(err error) httpx.Notification {
	var nerr *upstream.NetworkError
	var herr *upstream.HTTPError
	var nf *upstream.NotFoundError

	switch {
	case err == nil:
		return httpx.Notification{}
	case errors.Is(err, upstream.ErrSessionExpired):
		return httpx.Notification{Kind: "warning", Message: "Sesi Anda telah berakhir, silakan login kembali"}
	case errors.As(err, &nerr):
		return httpx.Notification{Kind: "error", Message: "Tidak dapat terhubung ke server, periksa koneksi Anda"}
	case errors.As(err, &nf):
		msg := nf.Message
		if msg == "" {
			msg = "Data tidak ditemukan"
		}
		return httpx.Notification{Kind: "error", Message: msg}
	case errors.As(err, &herr):
		msg := herr.Message
		if msg == "" {
			msg = "Terjadi kesalahan pada server"
		}
		return httpx.Notification{Kind: "error", Message: msg}
	case errors.Is(err, shared.ErrInvalidNavigationState):
		return httpx.Notification{Kind: "warning", Message: shared.UserSafeMessage(err)}
	default:
		return httpx.Notification{Kind: "error", Message: "Terjadi kesalahan, silakan coba lagi"}
	}
}

// Respond writes the classified error. A 401 from upstream destroys the
// local session immediately; the redirect is delayed client-side so the
// notification can be read first. No retry is attempted.
func (c *Classifier) Respond(w http.ResponseWriter, r *http.Request, err error) {
	n := Classify(err)

	if errors.Is(err, upstream.ErrSessionExpired) {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			c.Sessions.Destroy(sess)
		}
		httpx.JSON(w, http.StatusUnauthorized, httpx.Envelope{
			Success:      false,
			Message:      n.Message,
			Notification: &n,
			Redirect: &httpx.Redirect{
				Location: "/",
				DelayMS:  int(c.RedirectDelay / time.Millisecond),
			},
		})
		return
	}

	status := http.StatusInternalServerError
	var nerr *upstream.NetworkError
	var herr *upstream.HTTPError
	var nf *upstream.NotFoundError
	switch {
	case errors.As(err, &nerr):
		status = http.StatusBadGateway
	case errors.As(err, &nf):
		status = http.StatusNotFound
	case errors.As(err, &herr):
		status = herr.Status
	case errors.Is(err, shared.ErrInvalidNavigationState):
		status = http.StatusConflict
	}

	if c.Logger != nil && status >= 500 {
		c.Logger.Error("upstream failure", slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	httpx.Fail(w, status, n)
}
