// Package workload simulates how a bulk operation moves chores and points
// between family members. It works on copies and never modifies the snapshot.
package workload

import (
	"math"
	"sort"
	"strconv"

	"chore-workers/internal/models"
)

// MinAgeForHard is the youngest age at which hard chores are appropriate.
const MinAgeForHard = 12

// Defaults applied to chores created by a create operation.
const (
	DefaultCreateCount      = 1
	DefaultCreatePoints     = 10
	DefaultCreateDifficulty = models.DifficultyMedium
)

// MaxCreateCount bounds how many chores one create operation may add.
const MaxCreateCount = 50

type Load struct {
	Chores int     `json:"chores"`
	Points int     `json:"points"`
	Score  float64 `json:"score"`
}

func (l *Load) add(c models.Chore) {
	l.Chores++
	l.Points += c.Points
	l.Score += float64(c.Points) * c.Difficulty.Weight()
}

func (l *Load) remove(c models.Chore) {
	l.Chores--
	l.Points -= c.Points
	l.Score -= float64(c.Points) * c.Difficulty.Weight()
}

// Simulation is the before/after picture of one operation.
type Simulation struct {
	Current   map[string]Load
	Predicted map[string]Load
	// Affected are the chores the operation touches, as they would look
	// afterwards. Created chores are synthesized with ids "new-1", "new-2"...
	Affected []models.Chore
	// Missing lists requested chore ids absent from the snapshot.
	Missing []string
}

// CurrentLoads sums active chores per assignee. Every known member gets an
// entry; unassigned chores are not counted.
func CurrentLoads(snap *models.FamilyContextSnapshot) map[string]Load {
	loads := make(map[string]Load, len(snap.Members))
	for _, m := range snap.Members {
		loads[m.ID] = Load{}
	}
	for _, c := range snap.ActiveChores {
		if c.AssigneeID == "" {
			continue
		}
		l := loads[c.AssigneeID]
		l.add(c)
		loads[c.AssigneeID] = l
	}
	return loads
}

// Simulate applies op to a copy of the snapshot's per-member loads.
func Simulate(op *models.BulkOperation, snap *models.FamilyContextSnapshot) *Simulation {
	current := CurrentLoads(snap)
	predicted := make(map[string]Load, len(current))
	for k, v := range current {
		predicted[k] = v
	}
	sim := &Simulation{Current: current, Predicted: predicted}

	move := func(id string, apply func(*Load)) {
		if id == "" {
			return
		}
		l := predicted[id]
		apply(&l)
		predicted[id] = l
		if _, ok := current[id]; !ok {
			current[id] = Load{}
		}
	}

	if op.Type == models.OperationCreate {
		for _, c := range CreatedChores(op) {
			c := c
			move(c.AssigneeID, func(l *Load) { l.add(c) })
			sim.Affected = append(sim.Affected, c)
		}
		return sim
	}

	mods := op.Modifications
	for _, id := range UniqueChoreIDs(op.ChoreIDs) {
		chore, ok := snap.Chore(id)
		if !ok {
			sim.Missing = append(sim.Missing, id)
			continue
		}
		before := chore

		switch op.Type {
		case models.OperationAssign:
			if mods.AssignTo != "" {
				chore.AssigneeID = mods.AssignTo
			}
			move(before.AssigneeID, func(l *Load) { l.remove(before) })
			move(chore.AssigneeID, func(l *Load) { l.add(chore) })
		case models.OperationModify:
			chore.Points = ModifiedPoints(before.Points, mods)
			if mods.Difficulty != "" {
				chore.Difficulty = mods.Difficulty
			}
			move(before.AssigneeID, func(l *Load) {
				l.remove(before)
				l.add(chore)
			})
		case models.OperationDelete:
			move(before.AssigneeID, func(l *Load) { l.remove(before) })
		}
		sim.Affected = append(sim.Affected, chore)
	}
	return sim
}

// UniqueChoreIDs drops repeated ids, keeping first-seen order.
func UniqueChoreIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ModifiedPoints applies an absolute points value, else a multiplier, else a
// percentage change. Results never go below zero.
func ModifiedPoints(points int, mods models.Modifications) int {
	switch {
	case mods.Points != nil:
		points = *mods.Points
	case mods.PointsMultiplier != nil:
		points = int(math.Round(float64(points) * *mods.PointsMultiplier))
	case mods.PercentageChange != nil:
		points = int(math.Round(float64(points) * (1 + *mods.PercentageChange/100)))
	}
	if points < 0 {
		return 0
	}
	return points
}

// CreatedChores synthesizes the chores a create operation would add, at most
// MaxCreateCount of them.
func CreatedChores(op *models.BulkOperation) []models.Chore {
	mods := op.Modifications
	count := mods.Count
	if count <= 0 {
		count = DefaultCreateCount
	}
	if count > MaxCreateCount {
		count = MaxCreateCount
	}
	points := DefaultCreatePoints
	if mods.Points != nil {
		points = *mods.Points
	}
	difficulty := mods.Difficulty
	if difficulty == "" {
		difficulty = DefaultCreateDifficulty
	}

	out := make([]models.Chore, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, models.Chore{
			ID:         "new-" + strconv.Itoa(i),
			Title:      mods.Title,
			Difficulty: difficulty,
			Points:     points,
			AssigneeID: mods.AssignTo,
		})
	}
	return out
}

// Changed reports whether any member's predicted points differ from current.
func (s *Simulation) Changed() bool {
	for id, p := range s.Predicted {
		if p.Points != s.Current[id].Points {
			return true
		}
	}
	return false
}

// TotalPredictedPoints sums predicted points over all members.
func (s *Simulation) TotalPredictedPoints() int {
	total := 0
	for _, l := range s.Predicted {
		total += l.Points
	}
	return total
}

// MemberIDs returns every member id in the simulation, sorted.
func (s *Simulation) MemberIDs() []string {
	ids := make([]string, 0, len(s.Predicted))
	for id := range s.Predicted {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Imbalance is one member's distance from the fair share of predicted points.
type Imbalance struct {
	MemberID  string
	Points    int
	FairShare float64
	Ratio     float64
}

// Imbalances returns members whose predicted points deviate from the fair
// share (total points divided by family size) by more than threshold times
// the fair share, sorted by member id.
func (s *Simulation) Imbalances(familySize int, threshold float64) []Imbalance {
	if familySize < 1 {
		familySize = 1
	}
	fair := float64(s.TotalPredictedPoints()) / float64(familySize)
	if fair <= 0 {
		return nil
	}

	var out []Imbalance
	for _, id := range s.MemberIDs() {
		p := s.Predicted[id].Points
		ratio := math.Abs(float64(p)-fair) / fair
		if ratio > threshold {
			out = append(out, Imbalance{MemberID: id, Points: p, FairShare: fair, Ratio: ratio})
		}
	}
	return out
}

// SkillMismatch reports whether chore is too hard for member.
func SkillMismatch(chore models.Chore, member models.Member) bool {
	return chore.Difficulty == models.DifficultyHard && member.Age < MinAgeForHard
}
