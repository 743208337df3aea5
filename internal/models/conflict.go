// internal/models/conflict.go
package models

type ConflictType string

const (
	ConflictSchedule   ConflictType = "schedule"
	ConflictWorkload   ConflictType = "workload"
	ConflictSkill      ConflictType = "skill"
	ConflictResource   ConflictType = "resource"
	ConflictDependency ConflictType = "dependency"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityBlocking Severity = "blocking"
)

// Rank orders severities none < minor < major < blocking.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityMajor:
		return 2
	case SeverityBlocking:
		return 3
	default:
		return 0
	}
}

func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type OperationConflict struct {
	Type        ConflictType `json:"type"`
	ChoreIDs    []string     `json:"choreIds"`
	MemberIDs   []string     `json:"memberIds,omitempty"`
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
	AutoFixable bool         `json:"autoFixable"`
}

type ResolutionStrategy string

const (
	StrategyReschedule         ResolutionStrategy = "reschedule"
	StrategyReassign           ResolutionStrategy = "reassign"
	StrategySplitWorkload      ResolutionStrategy = "split_workload"
	StrategyAdjustRequirements ResolutionStrategy = "adjust_requirements"
	StrategySeekApproval       ResolutionStrategy = "seek_approval"
)

func (s ResolutionStrategy) Valid() bool {
	switch s {
	case StrategyReschedule, StrategyReassign, StrategySplitWorkload, StrategyAdjustRequirements, StrategySeekApproval:
		return true
	}
	return false
}

type ConflictResolution struct {
	Strategy      ResolutionStrategy     `json:"strategy"`
	Description   string                 `json:"description"`
	Modifications map[string]interface{} `json:"modifications,omitempty"`
	Confidence    float64                `json:"confidence"`
}

type ConflictAnalysis struct {
	Conflicts               []OperationConflict  `json:"conflicts"`
	Severity                Severity             `json:"severity"`
	AutoResolutionAvailable bool                 `json:"autoResolutionAvailable"`
	SuggestedResolutions    []ConflictResolution `json:"suggestedResolutions"`
}

// NewConflictAnalysis rolls conflicts up into an analysis: severity is the
// maximum constituent severity and auto resolution requires every conflict
// to be auto-fixable.
func NewConflictAnalysis(conflicts []OperationConflict) ConflictAnalysis {
	if conflicts == nil {
		conflicts = []OperationConflict{}
	}
	severity := SeverityNone
	autoFix := true
	for _, c := range conflicts {
		severity = MaxSeverity(severity, c.Severity)
		if !c.AutoFixable {
			autoFix = false
		}
	}
	return ConflictAnalysis{
		Conflicts:               conflicts,
		Severity:                severity,
		AutoResolutionAvailable: autoFix,
		SuggestedResolutions:    []ConflictResolution{},
	}
}
