package aigateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"chore-workers/internal/models"
)

type promptTemplate struct {
	role         string
	task         string
	outputFormat string
}

var promptTemplates = map[RequestType]promptTemplate{
	RequestBulkOperation: {
		role: "You interpret bulk chore-management requests for a family chore app.",
		task: "Classify the request below into one operation and identify what it targets.",
		outputFormat: `{"intent": "assign|reschedule|modify|delete|create|optimize", "scope": "all|selected|filtered|specific", ` +
			`"targets": ["..."], "assignTo": "member id or name", "newDueDate": "YYYY-MM-DD", "confidence": 0.0, "reasoning": "..."}`,
	},
	RequestSuggestions: {
		role:         "You suggest age-appropriate household chores for a family.",
		task:         "Suggest chores that fit the family described below and the request.",
		outputFormat: `{"suggestions": [{"title": "...", "description": "...", "room": "...", "difficulty": "easy|medium|hard", "points": 10}], "reasoning": "..."}`,
	},
	RequestConflictAnalysis: {
		role: "You resolve conflicts in planned bulk chore changes.",
		task: "Propose resolutions for the conflicts below that the family can apply.",
		outputFormat: `{"resolutions": [{"strategy": "reschedule|reassign|split_workload|adjust_requirements|seek_approval", ` +
			`"description": "...", "confidence": 0.0, "modifications": {}}], "reasoning": "..."}`,
	},
	RequestImpactAssessment: {
		role:         "You assess how a bulk chore change affects each family member.",
		task:         "Give short, practical recommendations to keep the workload fair after the change below.",
		outputFormat: `{"recommendations": ["..."], "reasoning": "..."}`,
	},
}

// buildPrompt renders the full prompt text for req.
func buildPrompt(req Request) string {
	tpl := promptTemplates[req.Type]

	var b strings.Builder
	b.WriteString(tpl.role)
	b.WriteString("\n")
	b.WriteString(tpl.task)
	b.WriteString("\n\n")

	if req.Context != nil {
		writeFamilySummary(&b, req.Context)
	}
	if req.Operation != nil {
		writeOperation(&b, req.Operation)
	}
	if len(req.Conflicts) > 0 {
		b.WriteString("Conflicts:\n")
		for _, c := range req.Conflicts {
			fmt.Fprintf(&b, "- [%s/%s] %s (chores: %s)\n", c.Type, c.Severity, c.Description, strings.Join(c.ChoreIDs, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("Request:\n")
	b.WriteString(strings.TrimSpace(req.Prompt))
	b.WriteString("\n\nRespond with JSON only, in this shape:\n")
	b.WriteString(tpl.outputFormat)
	return b.String()
}

func writeFamilySummary(b *strings.Builder, snap *models.FamilyContextSnapshot) {
	fmt.Fprintf(b, "Family size: %d\n", snap.Size())

	points := make(map[string]int)
	counts := make(map[string]int)
	for _, c := range snap.ActiveChores {
		points[c.AssigneeID] += c.Points
		counts[c.AssigneeID]++
	}

	members := append([]models.Member(nil), snap.Members...)
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	for _, m := range members {
		fmt.Fprintf(b, "- member %s (%s), age %d: %d chores, %d points\n",
			m.ID, snap.MemberName(m.ID), m.Age, counts[m.ID], points[m.ID])
	}
	fmt.Fprintf(b, "Active chores: %d\n", len(snap.ActiveChores))
	if unassigned := counts[""]; unassigned > 0 {
		fmt.Fprintf(b, "Unassigned chores: %d\n", unassigned)
	}
	b.WriteString("\n")
}

// OperationTag identifies op by a short digest of its type, chore ids and
// modifications, followed by a readable summary. Callers lead their prompt
// with it so the response cache never serves one operation's answer to
// another.
func OperationTag(op *models.BulkOperation) string {
	if op == nil {
		return "op none"
	}
	ids := append([]string(nil), op.ChoreIDs...)
	sort.Strings(ids)
	raw, _ := json.Marshal(struct {
		Type          models.OperationType `json:"type"`
		ChoreIDs      []string             `json:"choreIds"`
		Modifications models.Modifications `json:"modifications"`
	}{op.Type, ids, op.Modifications})
	sum := sha256.Sum256(raw)

	var b strings.Builder
	fmt.Fprintf(&b, "op %s: %s %s", hex.EncodeToString(sum[:6]), op.Type, strings.Join(ids, ","))
	writeModifications(&b, op.Modifications)
	return b.String()
}

func writeOperation(b *strings.Builder, op *models.BulkOperation) {
	fmt.Fprintf(b, "Operation: %s on %d chores", op.Type, len(op.ChoreIDs))
	writeModifications(b, op.Modifications)
	b.WriteString("\n\n")
}

func writeModifications(b *strings.Builder, m models.Modifications) {
	if m.AssignTo != "" {
		fmt.Fprintf(b, ", assign to %s", m.AssignTo)
	}
	if m.NewDueDate != "" {
		fmt.Fprintf(b, ", due %s", m.NewDueDate)
	}
	if m.Points != nil {
		fmt.Fprintf(b, ", points %d", *m.Points)
	}
	if m.PointsMultiplier != nil {
		fmt.Fprintf(b, ", points x%.2f", *m.PointsMultiplier)
	}
	if m.PercentageChange != nil {
		fmt.Fprintf(b, ", points %+.0f%%", *m.PercentageChange)
	}
	if m.Difficulty != "" {
		fmt.Fprintf(b, ", difficulty %s", m.Difficulty)
	}
	if m.Count > 0 {
		fmt.Fprintf(b, ", count %d", m.Count)
	}
}
