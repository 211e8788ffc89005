package zone

import "time"

// HuntType categorizes the kind of hunt announced for a zone.
type HuntType string

const (
	TypeBattue   HuntType = "battue"
	TypeApproche HuntType = "approche"
	TypeAffut    HuntType = "affut"
	TypeAutre    HuntType = "autre"
)

// Zone is the domain representation of a published hunting announcement.
// It mirrors the zones table and carries no JSON annotations so it can be
// reused by different presentation layers.
type Zone struct {
	ID          string
	Type        HuntType
	Start       time.Time
	End         time.Time
	Description string
	Geometry    Geometry
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains caller-supplied data for publishing a new zone.
type CreateParams struct {
	Type        HuntType
	Start       time.Time
	End         time.Time
	Description string
	Geometry    Geometry
}

// UpdateParams is a partial update; nil fields are left untouched.
type UpdateParams struct {
	Type        *HuntType
	Start       *time.Time
	End         *time.Time
	Description *string
	Geometry    Geometry
}

func isValidHuntType(t HuntType) bool {
	switch t {
	case TypeBattue, TypeApproche, TypeAffut, TypeAutre:
		return true
	default:
		return false
	}
}
