// Package audit records staff activity in the console: logins, record
// views, forwarded writes, exports. The trail lives in the console's own
// Postgres, independent of the sensus API.
package audit

import "time"

// Activity types recorded by the console.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

// Entry is one activity log record.
type Entry struct {
	ID        int64          `json:"id"`
	ActorID   string         `json:"actor_id"`
	ActorName string         `json:"actor_name"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Meta      map[string]any `json:"meta,omitempty"`
	At        time.Time      `json:"at"`
}

// ListFilters narrows the activity listing.
type ListFilters struct {
	Page    int
	PerPage int
	Action  string
	Entity  string
	ActorID string
}
