package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chore-workers/internal/models"
)

func family() *models.FamilyContextSnapshot {
	return &models.FamilyContextSnapshot{
		FamilyID:   "fam-1",
		FamilySize: 3,
		Members: []models.Member{
			{ID: "m1", Name: "Alex", Age: 40},
			{ID: "m2", Name: "Sam", Age: 14},
			{ID: "m3", Name: "Kim", Age: 8},
		},
		ActiveChores: []models.Chore{
			{ID: "c1", Title: "Dishes", Difficulty: models.DifficultyEasy, Points: 10, AssigneeID: "m1"},
			{ID: "c2", Title: "Laundry", Difficulty: models.DifficultyMedium, Points: 20, AssigneeID: "m2"},
			{ID: "c3", Title: "Gutters", Difficulty: models.DifficultyHard, Points: 30, AssigneeID: "m1"},
			{ID: "c4", Title: "Plants", Points: 5},
		},
	}
}

func TestCurrentLoads(t *testing.T) {
	loads := CurrentLoads(family())

	require.Len(t, loads, 3)
	assert.Equal(t, Load{Chores: 2, Points: 40, Score: 100}, loads["m1"])
	assert.Equal(t, Load{Chores: 1, Points: 20, Score: 40}, loads["m2"])
	assert.Equal(t, Load{}, loads["m3"])
}

func TestSimulateAssignMovesLoad(t *testing.T) {
	snap := family()
	op := &models.BulkOperation{
		Type:          models.OperationAssign,
		ChoreIDs:      []string{"c1", "c3", "missing"},
		Modifications: models.Modifications{AssignTo: "m3"},
	}

	sim := Simulate(op, snap)

	assert.Equal(t, 0, sim.Predicted["m1"].Points)
	assert.Equal(t, 40, sim.Predicted["m3"].Points)
	assert.Equal(t, 2, sim.Predicted["m3"].Chores)
	assert.Equal(t, []string{"missing"}, sim.Missing)
	require.Len(t, sim.Affected, 2)
	assert.Equal(t, "m3", sim.Affected[0].AssigneeID)
	assert.True(t, sim.Changed())

	// the snapshot itself is untouched
	assert.Equal(t, "m1", snap.ActiveChores[0].AssigneeID)
	assert.Equal(t, 40, sim.Current["m1"].Points)
}

func TestSimulateAssignUnassignedChore(t *testing.T) {
	op := &models.BulkOperation{
		Type:          models.OperationAssign,
		ChoreIDs:      []string{"c4"},
		Modifications: models.Modifications{AssignTo: "m2"},
	}

	sim := Simulate(op, family())

	assert.Equal(t, 25, sim.Predicted["m2"].Points)
	assert.Equal(t, 20, sim.Current["m2"].Points)
}

func TestSimulateModify(t *testing.T) {
	pts := 50
	mult := 1.5
	pct := -50.0

	tests := []struct {
		name string
		mods models.Modifications
		want int
	}{
		{name: "absolute points", mods: models.Modifications{Points: &pts}, want: 50},
		{name: "multiplier", mods: models.Modifications{PointsMultiplier: &mult}, want: 30},
		{name: "percentage", mods: models.Modifications{PercentageChange: &pct}, want: 10},
		{name: "no change", mods: models.Modifications{}, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &models.BulkOperation{Type: models.OperationModify, ChoreIDs: []string{"c2"}, Modifications: tt.mods}
			sim := Simulate(op, family())
			assert.Equal(t, tt.want, sim.Predicted["m2"].Points)
			assert.Equal(t, 1, sim.Predicted["m2"].Chores)
		})
	}
}

func TestModifiedPointsNeverNegative(t *testing.T) {
	pct := -150.0
	assert.Equal(t, 0, ModifiedPoints(10, models.Modifications{PercentageChange: &pct}))
}

func TestSimulateModifyDifficultyChangesScore(t *testing.T) {
	op := &models.BulkOperation{
		Type:          models.OperationModify,
		ChoreIDs:      []string{"c2"},
		Modifications: models.Modifications{Difficulty: models.DifficultyHard},
	}

	sim := Simulate(op, family())

	assert.Equal(t, 60.0, sim.Predicted["m2"].Score)
	assert.False(t, sim.Changed())
}

func TestSimulateDelete(t *testing.T) {
	op := &models.BulkOperation{Type: models.OperationDelete, ChoreIDs: []string{"c1", "c3"}}

	sim := Simulate(op, family())

	assert.Equal(t, Load{}, sim.Predicted["m1"])
	assert.Equal(t, 20, sim.TotalPredictedPoints())
}

func TestSimulateRepeatedIDsCountOnce(t *testing.T) {
	tests := []struct {
		name string
		op   models.BulkOperation
		want Load
	}{
		{"delete", models.BulkOperation{Type: models.OperationDelete, ChoreIDs: []string{"c1", "c1"}},
			Load{Chores: 1, Points: 30, Score: 90}},
		{"assign", models.BulkOperation{Type: models.OperationAssign, ChoreIDs: []string{"c1", "c1", "c1"},
			Modifications: models.Modifications{AssignTo: "m2"}},
			Load{Chores: 1, Points: 30, Score: 90}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := Simulate(&tt.op, family())

			require.Len(t, sim.Affected, 1)
			assert.Equal(t, "c1", sim.Affected[0].ID)
			assert.Equal(t, tt.want, sim.Predicted["m1"])
		})
	}
}

func TestUniqueChoreIDs(t *testing.T) {
	assert.Equal(t, []string{"c2", "c1", "c3"}, UniqueChoreIDs([]string{"c2", "c1", "c2", "c3", "c1"}))
	assert.Empty(t, UniqueChoreIDs(nil))
}

func TestCreatedChoresIsCapped(t *testing.T) {
	op := &models.BulkOperation{Type: models.OperationCreate, Modifications: models.Modifications{Count: 100000000}}

	chores := CreatedChores(op)

	require.Len(t, chores, MaxCreateCount)
	assert.Equal(t, "new-50", chores[MaxCreateCount-1].ID)
}

func TestSimulateCreateDefaults(t *testing.T) {
	op := &models.BulkOperation{Type: models.OperationCreate, Modifications: models.Modifications{AssignTo: "m3"}}

	sim := Simulate(op, family())

	require.Len(t, sim.Affected, 1)
	assert.Equal(t, "new-1", sim.Affected[0].ID)
	assert.Equal(t, models.DifficultyMedium, sim.Affected[0].Difficulty)
	assert.Equal(t, Load{Chores: 1, Points: 10, Score: 20}, sim.Predicted["m3"])
}

func TestSimulateCreateCountAndUnassigned(t *testing.T) {
	pts := 7
	op := &models.BulkOperation{
		Type:          models.OperationCreate,
		Modifications: models.Modifications{Count: 3, Points: &pts, Title: "Sweep"},
	}

	sim := Simulate(op, family())

	require.Len(t, sim.Affected, 3)
	assert.Equal(t, "new-3", sim.Affected[2].ID)
	assert.False(t, sim.Changed())
}

func TestSimulateRescheduleLeavesLoads(t *testing.T) {
	op := &models.BulkOperation{
		Type:          models.OperationReschedule,
		ChoreIDs:      []string{"c1"},
		Modifications: models.Modifications{NewDueDate: "2026-03-07"},
	}

	sim := Simulate(op, family())

	assert.False(t, sim.Changed())
	assert.Len(t, sim.Affected, 1)
}

func TestImbalances(t *testing.T) {
	op := &models.BulkOperation{
		Type:          models.OperationAssign,
		ChoreIDs:      []string{"c1", "c2", "c3"},
		Modifications: models.Modifications{AssignTo: "m3"},
	}
	sim := Simulate(op, family())

	got := sim.Imbalances(3, 0.3)

	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].MemberID)
	assert.InDelta(t, 20.0, got[0].FairShare, 0.001)
	assert.InDelta(t, 1.0, got[0].Ratio, 0.001)
	assert.InDelta(t, 2.0, got[2].Ratio, 0.001)
}

func TestImbalancesEmptyFamily(t *testing.T) {
	sim := Simulate(&models.BulkOperation{Type: models.OperationDelete, ChoreIDs: []string{"c1", "c2", "c3"}}, family())
	assert.Empty(t, sim.Imbalances(0, 0.3))
}

func TestSkillMismatch(t *testing.T) {
	hard := models.Chore{Difficulty: models.DifficultyHard}
	assert.True(t, SkillMismatch(hard, models.Member{Age: 8}))
	assert.False(t, SkillMismatch(hard, models.Member{Age: 12}))
	assert.False(t, SkillMismatch(models.Chore{Difficulty: models.DifficultyMedium}, models.Member{Age: 5}))
}
