// Package compliance monitors monthly-report discipline per kelompok.
// The warning ladder escalates with consecutive missed reports.
package compliance

import (
	"time"

	"github.com/sensus-admin/sensus-console/internal/shared"
)

// WarningLevel is the escalation step for missed monthly reports.
type WarningLevel int

const (
	// LevelTertib: no missed reports.
	LevelTertib WarningLevel = iota
	// LevelRingan: one missed report.
	LevelRingan
	// LevelSedang: two missed reports.
	LevelSedang
	// LevelBina: three or more missed reports.
	LevelBina
)

// LevelFor maps a count of consecutive missed months to its level.
func LevelFor(missedMonths int) WarningLevel {
	switch {
	case missedMonths <= 0:
		return LevelTertib
	case missedMonths == 1:
		return LevelRingan
	case missedMonths == 2:
		return LevelSedang
	default:
		return LevelBina
	}
}

func (l WarningLevel) String() string {
	switch l {
	case LevelTertib:
		return "tertib"
	case LevelRingan:
		return "ringan"
	case LevelSedang:
		return "sedang"
	default:
		return "bina"
	}
}

// WarningStatuses is the badge mapping keyed by WarningLevel.String().
var WarningStatuses = shared.StatusMapping{
	"tertib": {Text: "Tertib", Color: "green"},
	"ringan": {Text: "Pembinaan Ringan", Color: "yellow"},
	"sedang": {Text: "Pembinaan Sedang", Color: "orange"},
	"bina":   {Text: "Perlu Pembinaan", Color: "red"},
}

// KelompokCompliance is one board row.
type KelompokCompliance struct {
	KelompokID   string       `json:"kelompok_id"`
	Kelompok     string       `json:"kelompok"`
	Desa         string       `json:"desa"`
	Daerah       string       `json:"daerah"`
	MissedMonths int          `json:"missed_months"`
	Level        string       `json:"level"`
	Badge        shared.Badge `json:"badge"`
	LastReport   string       `json:"last_report,omitempty"`
}

// Board is the aggregated monitoring view across all kelompok.
type Board struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Items       []KelompokCompliance `json:"items"`
	Summary     map[string]int       `json:"summary"`
}
