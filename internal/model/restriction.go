package model

import "time"

// RestrictionKind selects which date-ceiling rule, if any, applies to a
// room. At most one kind is active per policy.
type RestrictionKind string

const (
	RestrictionKindNone           RestrictionKind = "none"
	RestrictionKindAuto           RestrictionKind = "auto"  // rolling window of LimitDays from now
	RestrictionKindFixed          RestrictionKind = "fixed" // absolute LimitDate
	RestrictionKindAcademicPeriod RestrictionKind = "academic_period"
)

type RestrictionPolicy struct {
	ID                 int64           `json:"id"`
	RoomID             int64           `json:"room_id"`
	Blocked            bool            `json:"blocked"`
	BlockReason        string          `json:"block_reason"`
	MinAdvanceDays     int             `json:"min_advance_days"`
	MinDurationMinutes int             `json:"min_duration_minutes"` // 0 = unset
	MaxDurationMinutes int             `json:"max_duration_minutes"` // 0 = unset
	Kind               RestrictionKind `json:"kind"`
	LimitDays          int             `json:"limit_days"`
	LimitDate          *time.Time      `json:"limit_date"`
	AcademicPeriodID   *int64          `json:"academic_period_id"`
	RequiresApproval   bool            `json:"requires_approval"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
