package console

import (
	"encoding/json"
	"fmt"

	"github.com/sensus-admin/sensus-console/internal/shared"
)

// Navigation state: a detail/edit screen renders the record fetched by
// the list action that navigated to it, without refetching. The record
// is stashed in the session keyed by resource; opening the screen by
// direct URL or after the stash went stale yields an invalid-state
// error instead of a half-empty form.

func navKey(resource string) string {
	return "nav:" + resource
}

func stashNavState(sess *shared.Session, resource string, record json.RawMessage) {
	sess.Set(navKey(resource), string(record))
}

// takeNavState returns the stashed record when its identity matches id.
func takeNavState(sess *shared.Session, resource, id string) (json.RawMessage, error) {
	if sess == nil {
		return nil, shared.ErrInvalidNavigationState
	}
	raw := sess.Get(navKey(resource))
	if raw == "" {
		return nil, shared.ErrInvalidNavigationState
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, shared.ErrInvalidNavigationState
	}
	if recordID(record) != id {
		return nil, shared.ErrInvalidNavigationState
	}
	return json.RawMessage(raw), nil
}

func clearNavState(sess *shared.Session, resource string) {
	if sess != nil {
		sess.Delete(navKey(resource))
	}
}

// recordID extracts the identity field in its string form; numeric IDs
// from JSON arrive as float64.
func recordID(record map[string]any) string {
	v, ok := record["id"]
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
		return fmt.Sprintf("%v", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}
