package rules

import "time"

// Code tags a single violated restriction rule.
type Code string

const (
	CodeBlocked               Code = "BLOCKED"
	CodeMinAdvance            Code = "MIN_ADVANCE"
	CodeDateCeilingAuto       Code = "DATE_CEILING_AUTO"
	CodeDateCeilingFixed      Code = "DATE_CEILING_FIXED"
	CodeOutsideAcademicPeriod Code = "OUTSIDE_ACADEMIC_PERIOD"
	CodeDurationTooShort      Code = "DURATION_TOO_SHORT"
	CodeDurationTooLong       Code = "DURATION_TOO_LONG"
	CodeOutsideBusinessHours  Code = "OUTSIDE_BUSINESS_HOURS"
)

// Violation is an immutable record of one failed rule plus enough
// context for the caller to build a user-facing message.
type Violation struct {
	Code Code `json:"code"`

	// Reason carries the policy's block reason for CodeBlocked.
	Reason string `json:"reason,omitempty"`
	// LimitDays is the advance/window requirement in days, when relevant.
	LimitDays int `json:"limit_days,omitempty"`
	// LimitDate is the effective ceiling or period bound, when relevant.
	LimitDate *time.Time `json:"limit_date,omitempty"`
	// LimitMinutes is the duration bound for the duration rules.
	LimitMinutes int `json:"limit_minutes,omitempty"`
}

// Codes projects a violation list onto its codes, in order.
func Codes(violations []Violation) []Code {
	if len(violations) == 0 {
		return nil
	}
	out := make([]Code, len(violations))
	for i, v := range violations {
		out[i] = v.Code
	}
	return out
}
