// internal/models/intent.go
package models

type IntentType string

const (
	IntentAssign     IntentType = "assign"
	IntentReschedule IntentType = "reschedule"
	IntentModify     IntentType = "modify"
	IntentDelete     IntentType = "delete"
	IntentCreate     IntentType = "create"
	IntentOptimize   IntentType = "optimize"
)

func (t IntentType) Valid() bool {
	switch t {
	case IntentAssign, IntentReschedule, IntentModify, IntentDelete, IntentCreate, IntentOptimize:
		return true
	}
	return false
}

type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeSelected Scope = "selected"
	ScopeFiltered Scope = "filtered"
	ScopeSpecific Scope = "specific"
)

type ParsedIntent struct {
	Type      IntentType        `json:"type"`
	Scope     Scope             `json:"scope"`
	Target    []string          `json:"target"`
	Modifiers map[string]string `json:"modifiers"`
}

type EntityType string

const (
	EntityMember     EntityType = "member"
	EntityChoreType  EntityType = "chore_type"
	EntityRoom       EntityType = "room"
	EntityTime       EntityType = "time"
	EntityDifficulty EntityType = "difficulty"
	EntityPoints     EntityType = "points"
	EntityCategory   EntityType = "category"
)

type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Span       Span       `json:"span"`
}

type NLPParseResult struct {
	Intent              ParsedIntent   `json:"intent"`
	Entities            []Entity       `json:"entities"`
	Confidence          float64        `json:"confidence"`
	Ambiguities         []string       `json:"ambiguities"`
	ClarificationNeeded bool           `json:"clarificationNeeded"`
	SuggestedOperation  *BulkOperation `json:"suggestedOperation,omitempty"`
}
