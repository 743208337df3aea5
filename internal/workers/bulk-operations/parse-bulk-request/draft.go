// internal/workers/bulk-operations/parse-bulk-request/draft.go
package parsebulkrequest

import (
	"strconv"
	"strings"
	"time"

	"chore-workers/internal/models"

	"github.com/google/uuid"
)

const approvalTargetThreshold = 10

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// dayOffset maps a time expression to a number of days from now. A named
// weekday equal to today means the same day next week.
func dayOffset(expr string, now time.Time) (int, bool) {
	switch expr {
	case "today", "tonight":
		return 0, true
	case "tomorrow":
		return 1, true
	case "next week":
		return 7, true
	case "weekend", "this weekend":
		expr = "saturday"
	case "next weekend":
		off, _ := dayOffset("saturday", now)
		return off + 7, true
	}

	if wd, ok := weekdays[expr]; ok {
		off := (int(wd) - int(now.Weekday()) + 7) % 7
		if off == 0 {
			off = 7
		}
		return off, true
	}

	if strings.HasPrefix(expr, "in ") {
		fields := strings.Fields(expr)
		if len(fields) >= 2 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// resolveDate turns a time expression into a calendar date in now's location.
func resolveDate(expr string, now time.Time) (string, bool) {
	if _, _, err := models.ParseDueDate(expr); err == nil {
		return expr, true
	}
	off, ok := dayOffset(expr, now)
	if !ok {
		return "", false
	}
	return now.AddDate(0, 0, off).Format(models.DateLayout), true
}

// buildDraft maps a parsed intent onto a bulk operation the caller can vet.
func buildDraft(familyID, text string, intent models.ParsedIntent, snap *models.FamilyContextSnapshot, now time.Time) *models.BulkOperation {
	op := &models.BulkOperation{
		ID:          uuid.New().String(),
		FamilyID:    familyID,
		Type:        models.OperationType(intent.Type),
		ChoreIDs:    resolveChoreIDs(intent, snap),
		Scope:       intent.Scope,
		Target:      intent.Target,
		Description: strings.TrimSpace(text),
		CreatedAt:   now,
	}

	mods := intent.Modifiers
	switch intent.Type {
	case models.IntentAssign:
		op.Modifications.AssignTo = mods["assignTo"]
	case models.IntentReschedule:
		if date, ok := resolveDate(mods["time"], now); ok {
			op.Modifications.NewDueDate = date
		}
	case models.IntentModify:
		applyModify(&op.Modifications, mods)
	case models.IntentCreate:
		op.Modifications.AssignTo = mods["assignTo"]
		op.Modifications.Difficulty = models.Difficulty(mods["difficulty"])
		if len(intent.Target) > 0 {
			op.Modifications.Title = intent.Target[0]
		}
		if n, err := strconv.Atoi(mods["points"]); err == nil {
			op.Modifications.Points = &n
		}
		if draftableCount(mods["count"]) {
			op.Modifications.Count, _ = strconv.Atoi(mods["count"])
		}
	}

	op.RequiresApproval = intent.Type == models.IntentDelete ||
		intent.Type == models.IntentOptimize ||
		intent.Scope == models.ScopeAll ||
		len(intent.Target) > approvalTargetThreshold ||
		len(op.ChoreIDs) > approvalTargetThreshold
	return op
}

// applyModify sets points, difficulty and percentage changes. A percentage
// is signed by the increase/decrease wording and also expressed as a
// multiplier.
func applyModify(m *models.Modifications, mods map[string]string) {
	m.Difficulty = models.Difficulty(mods["difficulty"])

	sign := 1.0
	if mods["direction"] == "decrease" {
		sign = -1
	}

	if pct, err := strconv.ParseFloat(mods["percent"], 64); err == nil {
		change := sign * pct
		multiplier := 1 + change/100
		m.PercentageChange = &change
		m.PointsMultiplier = &multiplier
	} else if pts, err := strconv.Atoi(mods["points"]); err == nil {
		m.Points = &pts
	}
}

// resolveChoreIDs selects the active chores the intent refers to. Scope
// "all" without targets selects everything.
func resolveChoreIDs(intent models.ParsedIntent, snap *models.FamilyContextSnapshot) []string {
	ids := []string{}
	if snap == nil || intent.Type == models.IntentCreate {
		return ids
	}

	for _, c := range snap.ActiveChores {
		if len(intent.Target) == 0 {
			if intent.Scope == models.ScopeAll {
				ids = append(ids, c.ID)
			}
			continue
		}
		if matchesAnyTarget(c, intent.Target) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func matchesAnyTarget(c models.Chore, targets []string) bool {
	fields := []string{normalize(c.Room), normalize(c.Category), normalize(c.Type), normalize(c.Title)}
	for _, t := range targets {
		for _, f := range fields {
			if f != "" && (f == t || strings.Contains(f, t)) {
				return true
			}
		}
	}
	return false
}
