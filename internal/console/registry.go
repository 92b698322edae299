package console

import (
	"github.com/sensus-admin/sensus-console/internal/rbac"
	"github.com/sensus-admin/sensus-console/internal/shared"
)

// Shared badge mappings. Lookup keys are the string form of the raw
// value, so numeric codes and their string spellings resolve the same.
var (
	genderStatuses = shared.StatusMapping{
		"L": {Text: "Laki-laki", Color: "blue"},
		"P": {Text: "Perempuan", Color: "pink"},
	}
	maritalStatuses = shared.StatusMapping{
		"1": {Text: "Belum Menikah", Color: "blue"},
		"2": {Text: "Menikah", Color: "green"},
		"3": {Text: "Duda/Janda", Color: "orange"},
	}
	sambungStatuses = shared.StatusMapping{
		"aktif":       {Text: "Sambung Aktif", Color: "green"},
		"pindah":      {Text: "Pindah", Color: "orange"},
		"tidak_aktif": {Text: "Tidak Aktif", Color: "red"},
	}
	accountStatuses = shared.StatusMapping{
		"true":  {Text: "Aktif", Color: "green"},
		"false": {Text: "Nonaktif", Color: "red"},
	}
)

// Registry declares every entity served by the generic console. The
// listing/fetch/error wiring is shared; only this table differs per
// entity.
func Registry() []Descriptor {
	adminRoles := []string{rbac.RoleSuperAdmin, rbac.RoleAdminDaerah, rbac.RoleAdminDesa, rbac.RoleAdminKelompok}

	return []Descriptor{
		{
			Name:      "users",
			Title:     "Pengguna",
			ListRoles: []string{rbac.RoleSuperAdmin},
			Statuses: map[string]shared.StatusMapping{
				"is_active": accountStatuses,
			},
			Actions: []RowAction{
				{Label: "Nonaktifkan", Value: "deactivate", Visible: func(row Row) bool {
					active, _ := row["is_active"].(bool)
					return active
				}},
				{Label: "Aktifkan", Value: "activate", Visible: func(row Row) bool {
					active, _ := row["is_active"].(bool)
					return !active
				}},
				{Label: "Reset Password", Value: "reset_password"},
			},
			NewForm: func() any { return &UserForm{} },
		},
		{
			Name:      "roles",
			Title:     "Role",
			ListRoles: []string{rbac.RoleSuperAdmin},
			NewForm:   func() any { return &RoleForm{} },
		},
		{
			Name:       "daerah",
			Title:      "Daerah",
			ListRoles:  append([]string{}, adminRoles...),
			WriteRoles: []string{rbac.RoleSuperAdmin},
			NewForm:    func() any { return &LocationForm{} },
		},
		{
			Name:         "desa",
			Title:        "Desa",
			ListRoles:    append([]string{}, adminRoles...),
			WriteRoles:   []string{rbac.RoleSuperAdmin, rbac.RoleAdminDaerah},
			ScopeFilters: []string{"daerah"},
			NewForm:      func() any { return &LocationForm{} },
		},
		{
			Name:         "kelompok",
			Title:        "Kelompok",
			ListRoles:    append([]string{}, adminRoles...),
			WriteRoles:   []string{rbac.RoleSuperAdmin, rbac.RoleAdminDaerah, rbac.RoleAdminDesa},
			ScopeFilters: []string{"daerah", "desa"},
			NewForm:      func() any { return &LocationForm{} },
		},
		{
			Name:       "pekerjaan",
			Title:      "Pekerjaan",
			ListRoles:  append([]string{}, adminRoles...),
			WriteRoles: []string{rbac.RoleSuperAdmin},
			NewForm:    func() any { return &PekerjaanForm{} },
		},
		{
			Name:         "sensus",
			Title:        "Data Sensus",
			ListRoles:    append([]string{}, adminRoles...),
			ScopeFilters: []string{"daerah", "desa", "kelompok"},
			Statuses: map[string]shared.StatusMapping{
				"jenis_kelamin":     genderStatuses,
				"status_pernikahan": maritalStatuses,
				"status_sambung":    sambungStatuses,
			},
			Actions: []RowAction{
				{Label: "Pindah Kelompok", Value: "move", Visible: func(row Row) bool {
					status, _ := row["status_sambung"].(string)
					return status != "pindah"
				}},
			},
			NewForm: func() any { return &SensusForm{} },
		},
	}
}
