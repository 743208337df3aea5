// internal/models/impact.go
package models

type ImpactLevel string

const (
	ImpactPositive ImpactLevel = "positive"
	ImpactNegative ImpactLevel = "negative"
	ImpactNeutral  ImpactLevel = "neutral"
)

type WorkloadChange struct {
	CurrentPoints   int     `json:"currentPoints"`
	PredictedPoints int     `json:"predictedPoints"`
	Change          int     `json:"change"`
	ChangePercent   float64 `json:"changePercent"`
	CurrentChores   int     `json:"currentChores"`
	PredictedChores int     `json:"predictedChores"`
	CurrentScore    float64 `json:"currentScore"`
	PredictedScore  float64 `json:"predictedScore"`
}

type ScheduleChange struct {
	ChoreID  string `json:"choreId"`
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Weekend  bool   `json:"weekend"`
	Conflict bool   `json:"conflict"`
}

type DifficultyAdjustment struct {
	ChoreID    string     `json:"choreId"`
	Difficulty Difficulty `json:"difficulty"`
	MemberAge  int        `json:"memberAge"`
	Reason     string     `json:"reason"`
}

type MemberImpact struct {
	MemberID          string                 `json:"memberId"`
	MemberName        string                 `json:"memberName"`
	Impact            ImpactLevel            `json:"impact"`
	Workload          WorkloadChange         `json:"workload"`
	ScheduleChanges   []ScheduleChange       `json:"scheduleChanges"`
	ScheduleConflicts int                    `json:"scheduleConflicts"`
	SkillMismatches   []DifficultyAdjustment `json:"skillMismatches"`
	Concerns          []string               `json:"concerns"`
}

type FamilyImpactAssessment struct {
	OperationID     string         `json:"operationId,omitempty"`
	MemberImpacts   []MemberImpact `json:"memberImpacts"`
	AffectedMembers int            `json:"affectedMembers"`
	OverallScore    int            `json:"overallScore"`
	Recommendations []string       `json:"recommendations"`
	AIEnhanced      bool           `json:"aiEnhanced"`
}
