package console

// Validated payloads forwarded to the sensus API on create/update.
// Field-level (422) validation stays with the backend; these rules only
// reject obviously malformed submissions before they travel.

// UserForm is the staff account payload.
type UserForm struct {
	Name          string `json:"name" validate:"required,min=2"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"omitempty,min=8"`
	RoleID        string `json:"role_id" validate:"required,uuid4"`
	AksesDaerah   string `json:"akses_daerah" validate:"omitempty"`
	AksesDesa     string `json:"akses_desa" validate:"omitempty"`
	AksesKelompok string `json:"akses_kelompok" validate:"omitempty"`
	IsActive      *bool  `json:"is_active" validate:"omitempty"`
}

// RoleForm is the role payload.
type RoleForm struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

// LocationForm covers daerah, desa and kelompok; ParentID binds a desa
// to its daerah and a kelompok to its desa.
type LocationForm struct {
	Code     string `json:"code" validate:"required,min=2,max=16"`
	Name     string `json:"name" validate:"required,min=2"`
	ParentID string `json:"parent_id" validate:"omitempty"`
}

// PekerjaanForm is the occupation reference payload.
type PekerjaanForm struct {
	Name string `json:"name" validate:"required,min=2"`
}

// SensusForm is the census participant payload.
type SensusForm struct {
	Nama             string `json:"nama" validate:"required,min=2"`
	JenisKelamin     string `json:"jenis_kelamin" validate:"required,oneof=L P"`
	TanggalLahir     string `json:"tanggal_lahir" validate:"omitempty,datetime=2006-01-02"`
	StatusPernikahan string `json:"status_pernikahan" validate:"omitempty,oneof=1 2 3"`
	StatusSambung    string `json:"status_sambung" validate:"omitempty,oneof=aktif pindah tidak_aktif"`
	DaerahID         string `json:"daerah_id" validate:"required"`
	DesaID           string `json:"desa_id" validate:"required"`
	KelompokID       string `json:"kelompok_id" validate:"required"`
	PekerjaanID      string `json:"pekerjaan_id" validate:"omitempty"`
	NoTelepon        string `json:"no_telepon" validate:"omitempty,min=8,max=20"`
}
