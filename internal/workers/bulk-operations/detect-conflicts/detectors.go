// internal/workers/bulk-operations/detect-conflicts/detectors.go
package detectconflicts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"chore-workers/internal/common/workload"
	"chore-workers/internal/models"
)

const (
	weekendChoreLimit      = 5
	workloadDeviationLimit = 0.3
	majorDeviation         = 0.5
	blockingDeviation      = 0.8
	roomChoreLimit         = 2
	deleteShareLimit       = 0.5
)

// detection is the read-only input shared by every detector.
type detection struct {
	op   *models.BulkOperation
	snap *models.FamilyContextSnapshot
	sim  *workload.Simulation
	now  time.Time
}

type detector func(d *detection) []models.OperationConflict

// detectors run in order and their findings are concatenated.
var detectors = []detector{
	detectScheduleConflicts,
	detectWorkloadConflicts,
	detectSkillConflicts,
	detectResourceConflicts,
	detectDependencyConflicts,
}

func affectedIDs(d *detection) []string {
	ids := make([]string, 0, len(d.sim.Affected))
	for _, c := range d.sim.Affected {
		ids = append(ids, c.ID)
	}
	return ids
}

func detectScheduleConflicts(d *detection) []models.OperationConflict {
	if d.op.Type != models.OperationAssign && d.op.Type != models.OperationReschedule {
		return nil
	}

	raw := d.op.Modifications.NewDueDate
	if raw == "" {
		if d.op.Type == models.OperationReschedule {
			return []models.OperationConflict{{
				Type:        models.ConflictSchedule,
				ChoreIDs:    affectedIDs(d),
				Description: "Reschedule has no target date",
				Severity:    models.SeverityBlocking,
				AutoFixable: true,
			}}
		}
		return weekendDueDates(d)
	}

	due, dateOnly, err := models.ParseDueDate(raw)
	if err != nil {
		return []models.OperationConflict{{
			Type:        models.ConflictSchedule,
			ChoreIDs:    affectedIDs(d),
			Description: fmt.Sprintf("Target date %q is not a valid date", raw),
			Severity:    models.SeverityBlocking,
			AutoFixable: true,
		}}
	}

	var conflicts []models.OperationConflict
	if d.op.Type == models.OperationReschedule && isPast(due, dateOnly, d.now) {
		conflicts = append(conflicts, models.OperationConflict{
			Type:        models.ConflictSchedule,
			ChoreIDs:    affectedIDs(d),
			Description: fmt.Sprintf("Target date %s is in the past", due.Format(models.DateLayout)),
			Severity:    models.SeverityBlocking,
			AutoFixable: true,
		})
	}
	if models.IsWeekend(due) && len(d.sim.Affected) > weekendChoreLimit {
		conflicts = append(conflicts, models.OperationConflict{
			Type:     models.ConflictSchedule,
			ChoreIDs: affectedIDs(d),
			Description: fmt.Sprintf("%d chores would land on %s, a weekend day",
				len(d.sim.Affected), due.Weekday()),
			Severity:    models.SeverityMinor,
			AutoFixable: true,
		})
	}
	return conflicts
}

// weekendDueDates flags an assignment whose chores are already due on a
// weekend in large numbers.
func weekendDueDates(d *detection) []models.OperationConflict {
	var ids []string
	for _, c := range d.sim.Affected {
		if c.DueDate != nil && models.IsWeekend(*c.DueDate) {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) <= weekendChoreLimit {
		return nil
	}
	return []models.OperationConflict{{
		Type:        models.ConflictSchedule,
		ChoreIDs:    ids,
		Description: fmt.Sprintf("%d assigned chores are due on a weekend", len(ids)),
		Severity:    models.SeverityMinor,
		AutoFixable: true,
	}}
}

// isPast compares calendar dates for date-only values and instants otherwise.
func isPast(due time.Time, dateOnly bool, now time.Time) bool {
	if !dateOnly {
		return due.Before(now)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

func detectWorkloadConflicts(d *detection) []models.OperationConflict {
	if !d.sim.Changed() {
		return nil
	}
	imbalances := d.sim.Imbalances(d.snap.Size(), workloadDeviationLimit)
	if len(imbalances) == 0 {
		return nil
	}

	maxRatio := 0.0
	members := make([]string, 0, len(imbalances))
	parts := make([]string, 0, len(imbalances))
	for _, im := range imbalances {
		if im.Ratio > maxRatio {
			maxRatio = im.Ratio
		}
		members = append(members, im.MemberID)
		parts = append(parts, fmt.Sprintf("%s %d points", d.snap.MemberName(im.MemberID), im.Points))
	}

	severity := models.SeverityMinor
	switch {
	case maxRatio >= blockingDeviation:
		severity = models.SeverityBlocking
	case maxRatio >= majorDeviation:
		severity = models.SeverityMajor
	}

	return []models.OperationConflict{{
		Type:      models.ConflictWorkload,
		ChoreIDs:  affectedIDs(d),
		MemberIDs: members,
		Description: fmt.Sprintf("Uneven workload against a fair share of %.1f points: %s",
			imbalances[0].FairShare, strings.Join(parts, ", ")),
		Severity:    severity,
		AutoFixable: true,
	}}
}

func detectSkillConflicts(d *detection) []models.OperationConflict {
	if d.op.Type != models.OperationAssign {
		return nil
	}
	member, ok := d.snap.Member(d.op.Modifications.AssignTo)
	if !ok {
		return nil
	}

	var ids []string
	for _, c := range d.sim.Affected {
		if workload.SkillMismatch(c, member) {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return []models.OperationConflict{{
		Type:      models.ConflictSkill,
		ChoreIDs:  ids,
		MemberIDs: []string{member.ID},
		Description: fmt.Sprintf("%s (age %d) would get %d hard chore(s) meant for ages %d and up",
			d.snap.MemberName(member.ID), member.Age, len(ids), workload.MinAgeForHard),
		Severity:    models.SeverityMajor,
		AutoFixable: false,
	}}
}

func detectResourceConflicts(d *detection) []models.OperationConflict {
	byRoom := make(map[string][]string)
	for _, c := range d.sim.Affected {
		if c.Room == "" {
			continue
		}
		byRoom[c.Room] = append(byRoom[c.Room], c.ID)
	}

	rooms := make([]string, 0, len(byRoom))
	for room, ids := range byRoom {
		if len(ids) > roomChoreLimit {
			rooms = append(rooms, room)
		}
	}
	sort.Strings(rooms)

	conflicts := make([]models.OperationConflict, 0, len(rooms))
	for _, room := range rooms {
		conflicts = append(conflicts, models.OperationConflict{
			Type:        models.ConflictResource,
			ChoreIDs:    byRoom[room],
			Description: fmt.Sprintf("%d chores would need the %s at the same time", len(byRoom[room]), room),
			Severity:    models.SeverityMinor,
			AutoFixable: true,
		})
	}
	return conflicts
}

func detectDependencyConflicts(d *detection) []models.OperationConflict {
	if d.op.Type != models.OperationDelete || len(d.snap.ActiveChores) == 0 {
		return nil
	}
	share := float64(len(d.sim.Affected)) / float64(len(d.snap.ActiveChores))
	if share <= deleteShareLimit {
		return nil
	}
	return []models.OperationConflict{{
		Type:     models.ConflictDependency,
		ChoreIDs: affectedIDs(d),
		Description: fmt.Sprintf("Deleting %d of %d active chores (%.0f%%) removes most of the family routine",
			len(d.sim.Affected), len(d.snap.ActiveChores), share*100),
		Severity:    models.SeverityMajor,
		AutoFixable: false,
	}}
}
