// Package console implements the generic, parameterized list console:
// every entity (users, roles, locations, pekerjaan, sensus) is one
// Descriptor mounted on the same handler instead of a copied page.
package console

import (
	"github.com/sensus-admin/sensus-console/internal/shared"
)

// Row is a record as the sensus API returns it; the console does not
// model entity fields it only passes through.
type Row = map[string]any

// RowAction is a per-row menu item. A nil Visible predicate shows the
// action on every row.
type RowAction struct {
	Label   string         `json:"label"`
	Value   string         `json:"value"`
	Visible func(Row) bool `json:"-"`
}

// Descriptor parameterizes one entity's console pages.
type Descriptor struct {
	// Name is both the console route segment and the upstream resource.
	Name string
	// Title labels the page.
	Title string
	// ListRoles/WriteRoles are symbolic role names gating read and
	// write routes. Empty WriteRoles fall back to ListRoles.
	ListRoles  []string
	WriteRoles []string
	// ScopeFilters names the filter keys locked by the corresponding
	// session access-scope field ("daerah", "desa", "kelompok").
	ScopeFilters []string
	// Statuses maps a column name to its badge mapping.
	Statuses map[string]shared.StatusMapping
	// Actions lists row actions beyond the standard detail/edit/delete.
	Actions []RowAction
	// NewForm returns the validated payload type for create/update.
	NewForm func() any
}

func (d Descriptor) writeRoles() []string {
	if len(d.WriteRoles) > 0 {
		return d.WriteRoles
	}
	return d.ListRoles
}

// lockedFilters resolves the descriptor's scope filters against the
// session scope. Locked filters are pinned: disabled in the UI and
// restored by reset, never cleared.
func (d Descriptor) lockedFilters(scope shared.AccessScope) map[string]string {
	locked := make(map[string]string)
	for _, key := range d.ScopeFilters {
		switch key {
		case "daerah":
			if scope.Daerah != "" {
				locked[key] = scope.Daerah
			}
		case "desa":
			if scope.Desa != "" {
				locked[key] = scope.Desa
			}
		case "kelompok":
			if scope.Kelompok != "" {
				locked[key] = scope.Kelompok
			}
		}
	}
	return locked
}
