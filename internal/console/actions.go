package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sensus-admin/sensus-console/internal/audit"
	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

// Action values every resource understands.
const (
	ActionDetail = "detail"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// ConfirmPrompt asks the browser to open a confirmation modal before an
// irreversible step.
type ConfirmPrompt struct {
	Message     string `json:"message"`
	ConfirmPath string `json:"confirm_path"`
}

// ActionResult tells the browser what to do after a row action.
type ActionResult struct {
	// Kind is one of navigate, confirm, refetch.
	Kind     string          `json:"kind"`
	Location string          `json:"location,omitempty"`
	Record   json.RawMessage `json:"record,omitempty"`
	Confirm  *ConfirmPrompt  `json:"confirm,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Orchestrator executes row actions: fetch-then-navigate for detail and
// edit, confirm-then-delete, and entity-specific verbs forwarded
// upstream.
type Orchestrator struct {
	client   *upstream.Client
	recorder audit.Recorder
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(client *upstream.Client, recorder audit.Recorder) *Orchestrator {
	return &Orchestrator{client: client, recorder: recorder}
}

// PerformAction runs one action against one row. detail/edit fetch the
// record first and never navigate on failure; the fetched record is
// stashed as navigation state so the destination renders without a
// second fetch.
func (o *Orchestrator) PerformAction(ctx context.Context, sess *shared.Session, d Descriptor, id, action string) (ActionResult, error) {
	token := sessionToken(sess)

	switch action {
	case ActionDetail, ActionEdit:
		record, err := upstream.Detail[json.RawMessage](ctx, o.client, token, d.Name, id)
		if err != nil {
			return ActionResult{}, err
		}
		stashNavState(sess, d.Name, record)
		o.recorder.Record(ctx, audit.Entry{Action: audit.ActionView, Entity: d.Name, EntityID: id})

		screen := "view"
		if action == ActionEdit {
			screen = "edit"
		}
		return ActionResult{
			Kind:     "navigate",
			Location: fmt.Sprintf("/console/%s/%s/%s", d.Name, id, screen),
			Record:   record,
		}, nil

	case ActionDelete:
		return ActionResult{
			Kind: "confirm",
			Confirm: &ConfirmPrompt{
				Message:     "Data yang dihapus tidak dapat dikembalikan. Lanjutkan?",
				ConfirmPath: fmt.Sprintf("/console/%s/%s", d.Name, id),
			},
		}, nil

	default:
		if !d.hasAction(action) {
			return ActionResult{}, &upstream.NotFoundError{Message: "Aksi tidak dikenal"}
		}
		msg, err := o.client.Mutate(ctx, token, http.MethodPost, fmt.Sprintf("%s/%s/%s", d.Name, id, action), nil)
		if err != nil {
			return ActionResult{}, err
		}
		o.recorder.Record(ctx, audit.Entry{Action: audit.ActionUpdate, Entity: d.Name, EntityID: id, Meta: map[string]any{"verb": action}})
		return ActionResult{Kind: "refetch", Message: msg}, nil
	}
}

func (d Descriptor) hasAction(value string) bool {
	for _, a := range d.Actions {
		if a.Value == value {
			return true
		}
	}
	return false
}
