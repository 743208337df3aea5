// internal/workers/bulk-operations/analyze-impact/impact.go
package analyzeimpact

import (
	"fmt"
	"math"

	"chore-workers/internal/common/workload"
	"chore-workers/internal/models"
)

const (
	// changeFloor keeps members with tiny workloads from swinging to extreme
	// ratios.
	changeFloor       = 10
	increaseThreshold = 0.3
	decreaseThreshold = 0.2

	bulkAssignLimit = 5

	penaltyNegativeMember = 15
	penaltyConcern        = 5
	penaltySkillMismatch  = 10
	penaltyLargeSwing     = 20
	penaltyModerateSwing  = 10
	penaltyScheduleClash  = 8
	largeSwingPercent     = 50
	moderateSwingPercent  = 30

	concernBulkAssign = "large number of chores assigned simultaneously"
)

// classify maps a points change onto an impact level.
func classify(change, current int) models.ImpactLevel {
	if change == 0 {
		return models.ImpactNeutral
	}
	ratio := math.Abs(float64(change)) / float64(maxInt(current, changeFloor))
	if change > 0 {
		if ratio > increaseThreshold {
			return models.ImpactNegative
		}
		return models.ImpactNeutral
	}
	if ratio > decreaseThreshold {
		return models.ImpactPositive
	}
	return models.ImpactNeutral
}

func workloadChange(current, predicted workload.Load) models.WorkloadChange {
	change := predicted.Points - current.Points
	percent := float64(change) / float64(maxInt(current.Points, changeFloor)) * 100
	return models.WorkloadChange{
		CurrentPoints:   current.Points,
		PredictedPoints: predicted.Points,
		Change:          change,
		ChangePercent:   math.Round(percent*10) / 10,
		CurrentChores:   current.Chores,
		PredictedChores: predicted.Chores,
		CurrentScore:    current.Score,
		PredictedScore:  predicted.Score,
	}
}

// simulation bundles what every member assessment reads.
type simulation struct {
	op   *models.BulkOperation
	snap *models.FamilyContextSnapshot
	sim  *workload.Simulation
}

// memberIDs lists snapshot members in their given order followed by any
// other id the simulation touched, such as an assignee missing from the
// member list.
func (s *simulation) memberIDs() []string {
	seen := make(map[string]bool, len(s.snap.Members))
	ids := make([]string, 0, len(s.snap.Members))
	for _, m := range s.snap.Members {
		if !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
	}
	for _, id := range s.sim.MemberIDs() {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *simulation) assess(memberID string) models.MemberImpact {
	current := s.sim.Current[memberID]
	predicted := s.sim.Predicted[memberID]
	wc := workloadChange(current, predicted)

	mi := models.MemberImpact{
		MemberID:        memberID,
		MemberName:      s.snap.MemberName(memberID),
		Impact:          classify(wc.Change, current.Points),
		Workload:        wc,
		ScheduleChanges: []models.ScheduleChange{},
		SkillMismatches: []models.DifficultyAdjustment{},
		Concerns:        []string{},
	}
	s.scheduleChanges(&mi)
	s.skillMismatches(&mi)

	if s.op.Type == models.OperationAssign && s.op.Modifications.AssignTo == memberID &&
		len(s.sim.Affected) > bulkAssignLimit {
		mi.Concerns = append(mi.Concerns, concernBulkAssign)
	}
	return mi
}

// scheduleChanges records the member's rescheduled chores and flags those
// landing on a weekend.
func (s *simulation) scheduleChanges(mi *models.MemberImpact) {
	if s.op.Type != models.OperationReschedule {
		return
	}
	due, _, err := models.ParseDueDate(s.op.Modifications.NewDueDate)
	if err != nil {
		return
	}
	weekend := models.IsWeekend(due)

	for _, c := range s.sim.Affected {
		if c.AssigneeID != mi.MemberID {
			continue
		}
		change := models.ScheduleChange{
			ChoreID:  c.ID,
			To:       due.Format(models.DateLayout),
			Weekend:  weekend,
			Conflict: weekend,
		}
		if c.DueDate != nil {
			change.From = c.DueDate.Format(models.DateLayout)
		}
		mi.ScheduleChanges = append(mi.ScheduleChanges, change)
		if weekend {
			mi.ScheduleConflicts++
		}
	}
}

// skillMismatches flags hard chores an operation hands to, or leaves with,
// a member too young for them. Only operations that change who does what or
// how hard it is are considered.
func (s *simulation) skillMismatches(mi *models.MemberImpact) {
	switch s.op.Type {
	case models.OperationAssign, models.OperationModify, models.OperationCreate:
	default:
		return
	}
	member, ok := s.snap.Member(mi.MemberID)
	if !ok {
		return
	}
	for _, c := range s.sim.Affected {
		if c.AssigneeID != member.ID || !workload.SkillMismatch(c, member) {
			continue
		}
		mi.SkillMismatches = append(mi.SkillMismatches, models.DifficultyAdjustment{
			ChoreID:    c.ID,
			Difficulty: c.Difficulty,
			MemberAge:  member.Age,
			Reason:     fmt.Sprintf("%s chores suit ages %d and up", c.Difficulty, workload.MinAgeForHard),
		})
	}
}

func affected(mi models.MemberImpact) bool {
	return mi.Workload.Change != 0 || len(mi.ScheduleChanges) > 0 || len(mi.SkillMismatches) > 0
}

// overallScore starts from 100 and subtracts a penalty per finding.
func overallScore(impacts []models.MemberImpact) int {
	score := 100
	maxSwing := 0.0
	for _, mi := range impacts {
		if mi.Impact == models.ImpactNegative {
			score -= penaltyNegativeMember
		}
		score -= penaltyConcern * len(mi.Concerns)
		score -= penaltySkillMismatch * len(mi.SkillMismatches)
		score -= penaltyScheduleClash * mi.ScheduleConflicts
		maxSwing = math.Max(maxSwing, math.Abs(mi.Workload.ChangePercent))
	}

	switch {
	case maxSwing > largeSwingPercent:
		score -= penaltyLargeSwing
	case maxSwing > moderateSwingPercent:
		score -= penaltyModerateSwing
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
