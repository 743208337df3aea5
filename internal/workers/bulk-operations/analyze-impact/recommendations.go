// internal/workers/bulk-operations/analyze-impact/recommendations.go
package analyzeimpact

import (
	"fmt"
	"strings"

	"chore-workers/internal/common/workload"
	"chore-workers/internal/models"
)

const (
	recommendSkill    = "Give hard chores to members aged %d or older, or split them into simpler tasks for younger members"
	recommendSchedule = "Move some chores off the weekend to keep family time free"
	recommendBulk     = "Assign large batches in smaller groups so nobody is handed everything at once"
	recommendReview   = "Review this operation manually before applying it"
)

// baseRecommendations derives advice from the member impacts alone.
func baseRecommendations(impacts []models.MemberImpact) []string {
	var (
		overloaded []string
		skill      bool
		schedule   bool
		bulk       bool
	)
	for _, mi := range impacts {
		if mi.Impact == models.ImpactNegative {
			overloaded = append(overloaded, mi.MemberName)
		}
		skill = skill || len(mi.SkillMismatches) > 0
		schedule = schedule || mi.ScheduleConflicts > 0
		for _, c := range mi.Concerns {
			bulk = bulk || c == concernBulkAssign
		}
	}

	var out []string
	if len(overloaded) > 0 {
		out = append(out, fmt.Sprintf("Spread the work more evenly; %s would take on noticeably more",
			strings.Join(overloaded, ", ")))
	}
	if skill {
		out = append(out, fmt.Sprintf(recommendSkill, workload.MinAgeForHard))
	}
	if schedule {
		out = append(out, recommendSchedule)
	}
	if bulk {
		out = append(out, recommendBulk)
	}
	return out
}

// mergeRecommendations appends extra to base, skipping blanks and entries
// already present regardless of case or surrounding space.
func mergeRecommendations(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, r := range list {
			r = strings.TrimSpace(r)
			key := strings.ToLower(r)
			if r == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
	}
	return out
}
