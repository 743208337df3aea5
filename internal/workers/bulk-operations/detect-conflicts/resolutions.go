// internal/workers/bulk-operations/detect-conflicts/resolutions.go
package detectconflicts

import (
	"fmt"
	"time"

	"chore-workers/internal/models"
)

const (
	scheduleResolutionConfidence = 0.85
	workloadResolutionConfidence = 0.8
	resourceResolutionConfidence = 0.9
	staggerHours                 = 2
)

// resolve returns the fixed resolution for an auto-fixable conflict.
func resolve(c models.OperationConflict, now time.Time) (models.ConflictResolution, bool) {
	if !c.AutoFixable {
		return models.ConflictResolution{}, false
	}

	switch c.Type {
	case models.ConflictSchedule:
		if c.Severity == models.SeverityBlocking {
			today := now.Format(models.DateLayout)
			return models.ConflictResolution{
				Strategy:      models.StrategyReschedule,
				Description:   fmt.Sprintf("Choose a due date on or after %s", today),
				Modifications: map[string]interface{}{"newDueDate": today},
				Confidence:    scheduleResolutionConfidence,
			}, true
		}
		days := (len(c.ChoreIDs) + weekendChoreLimit - 1) / weekendChoreLimit
		if days < 2 {
			days = 2
		}
		return models.ConflictResolution{
			Strategy:      models.StrategyReschedule,
			Description:   fmt.Sprintf("Distribute the chores across %d days", days),
			Modifications: map[string]interface{}{"spreadDays": days},
			Confidence:    scheduleResolutionConfidence,
		}, true

	case models.ConflictWorkload:
		return models.ConflictResolution{
			Strategy:      models.StrategyReassign,
			Description:   "Rebalance workload so every member stays close to the fair share",
			Modifications: map[string]interface{}{"members": c.MemberIDs},
			Confidence:    workloadResolutionConfidence,
		}, true

	case models.ConflictResource:
		return models.ConflictResolution{
			Strategy:      models.StrategyReschedule,
			Description:   fmt.Sprintf("Stagger the chores by %d hours", staggerHours),
			Modifications: map[string]interface{}{"choreIds": c.ChoreIDs, "staggerHours": staggerHours},
			Confidence:    resourceResolutionConfidence,
		}, true
	}
	return models.ConflictResolution{}, false
}
