// internal/models/operation.go
package models

import "time"

type OperationType string

const (
	OperationAssign     OperationType = "assign"
	OperationReschedule OperationType = "reschedule"
	OperationModify     OperationType = "modify"
	OperationDelete     OperationType = "delete"
	OperationCreate     OperationType = "create"
	OperationOptimize   OperationType = "optimize"
)

// Modifications carries the per-kind payload of a bulk operation.
// NewDueDate is kept as text so a malformed date surfaces as a conflict
// instead of failing job decoding.
type Modifications struct {
	AssignTo         string     `json:"assignTo,omitempty"`
	NewDueDate       string     `json:"newDueDate,omitempty"`
	Points           *int       `json:"points,omitempty"`
	PointsMultiplier *float64   `json:"pointsMultiplier,omitempty"`
	PercentageChange *float64   `json:"percentageChange,omitempty"`
	Difficulty       Difficulty `json:"difficulty,omitempty"`
	Title            string     `json:"title,omitempty"`
	Count            int        `json:"count,omitempty"`
}

type BulkOperation struct {
	ID               string        `json:"id"`
	FamilyID         string        `json:"familyId"`
	Type             OperationType `json:"type"`
	ChoreIDs         []string      `json:"choreIds"`
	Modifications    Modifications `json:"modifications"`
	RequiresApproval bool          `json:"requiresApproval"`
	Scope            Scope         `json:"scope,omitempty"`
	Target           []string      `json:"target,omitempty"`
	Description      string        `json:"description,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
}

const DateLayout = "2006-01-02"

// ParseDueDate accepts either a calendar date or an RFC 3339 timestamp.
// dateOnly reports which form matched.
func ParseDueDate(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(DateLayout, raw); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	return t, false, err
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
