package analyzeimpact

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zapcore"

	"chore-workers/internal/common/aigateway"
	"chore-workers/internal/common/errors"
	"chore-workers/internal/common/logger"
	"chore-workers/internal/common/observability"
	"chore-workers/internal/models"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type fakeGateway struct {
	available bool
	resp      *aigateway.Response
	err       error
	calls     int
	lastReq   aigateway.Request
}

func (f *fakeGateway) IsAvailable(ctx context.Context, familyID string) bool {
	return f.available
}

func (f *fakeGateway) ProcessRequest(ctx context.Context, req aigateway.Request) (*aigateway.Response, error) {
	f.calls++
	f.lastReq = req
	return f.resp, f.err
}

func balancedFamily() *models.FamilyContextSnapshot {
	thursday := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	return &models.FamilyContextSnapshot{
		FamilyID: "fam-1",
		Members: []models.Member{
			{ID: "m1", Name: "Alex", Age: 40},
			{ID: "m2", Name: "Sam", Age: 14},
			{ID: "m3", Name: "Kim", Age: 8},
		},
		ActiveChores: []models.Chore{
			{ID: "c1", Title: "Dishes", Difficulty: models.DifficultyEasy, Points: 10, AssigneeID: "m1", DueDate: &thursday},
			{ID: "c2", Title: "Laundry", Difficulty: models.DifficultyMedium, Points: 10, AssigneeID: "m2"},
			{ID: "c3", Title: "Gutters", Difficulty: models.DifficultyHard, Points: 10, AssigneeID: "m3"},
		},
	}
}

func newTestHandler(t *testing.T, gw AIGateway) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Gateway: gw,
		Logger:  logger.NewTestLogger(t),
		Now:     func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return h
}

func impactOf(t *testing.T, a *models.FamilyImpactAssessment, memberID string) models.MemberImpact {
	t.Helper()
	for _, mi := range a.MemberImpacts {
		if mi.MemberID == memberID {
			return mi
		}
	}
	t.Fatalf("no impact for member %s", memberID)
	return models.MemberImpact{}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		change, current int
		want            models.ImpactLevel
	}{
		{0, 10, models.ImpactNeutral},
		{3, 10, models.ImpactNeutral},
		{4, 10, models.ImpactNegative},
		{2, 5, models.ImpactNeutral},
		{4, 5, models.ImpactNegative},
		{6, 20, models.ImpactNeutral},
		{7, 20, models.ImpactNegative},
		{-2, 10, models.ImpactNeutral},
		{-3, 10, models.ImpactPositive},
		{-3, 20, models.ImpactNeutral},
		{-10, 10, models.ImpactPositive},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+d_of_%d", tt.change, tt.current), func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.change, tt.current))
		})
	}
}

func TestAnalyzeImpactAssignToChild(t *testing.T) {
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		ID:            "op-1",
		Type:          models.OperationAssign,
		ChoreIDs:      []string{"c1", "c2", "c3"},
		Modifications: models.Modifications{AssignTo: "m3"},
	}, balancedFamily())

	require.Len(t, a.MemberImpacts, 3)
	assert.Equal(t, "op-1", a.OperationID)
	assert.Equal(t, 3, a.AffectedMembers)

	kim := impactOf(t, a, "m3")
	assert.Equal(t, "Kim", kim.MemberName)
	assert.Equal(t, models.ImpactNegative, kim.Impact)
	assert.Equal(t, 20, kim.Workload.Change)
	assert.Equal(t, 200.0, kim.Workload.ChangePercent)
	assert.Equal(t, 1, kim.Workload.CurrentChores)
	assert.Equal(t, 3, kim.Workload.PredictedChores)
	require.Len(t, kim.SkillMismatches, 1)
	assert.Equal(t, "c3", kim.SkillMismatches[0].ChoreID)
	assert.Equal(t, 8, kim.SkillMismatches[0].MemberAge)
	assert.Empty(t, kim.Concerns)

	alex := impactOf(t, a, "m1")
	assert.Equal(t, models.ImpactPositive, alex.Impact)
	assert.Equal(t, -100.0, alex.Workload.ChangePercent)
	assert.Empty(t, alex.SkillMismatches)

	// 100 - 15 negative member - 10 skill mismatch - 20 swing over 50%
	assert.Equal(t, 55, a.OverallScore)
	assert.Equal(t, []string{
		"Spread the work more evenly; Kim would take on noticeably more",
		"Give hard chores to members aged 12 or older, or split them into simpler tasks for younger members",
	}, a.Recommendations)
	assert.False(t, a.AIEnhanced)
}

func TestAnalyzeImpactBulkAssignConcern(t *testing.T) {
	snap := &models.FamilyContextSnapshot{
		FamilyID: "fam-2",
		Members:  []models.Member{{ID: "m1", Name: "Alex", Age: 40}, {ID: "m2", Name: "Sam", Age: 40}},
	}
	var ids []string
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("b%d", i)
		ids = append(ids, id)
		snap.ActiveChores = append(snap.ActiveChores, models.Chore{ID: id, Points: 5, AssigneeID: "m2"})
	}
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationAssign,
		ChoreIDs:      ids,
		Modifications: models.Modifications{AssignTo: "m1"},
	}, snap)

	alex := impactOf(t, a, "m1")
	assert.Equal(t, []string{"large number of chores assigned simultaneously"}, alex.Concerns)
	assert.Empty(t, impactOf(t, a, "m2").Concerns)

	// 100 - 15 negative - 5 concern - 20 swing
	assert.Equal(t, 60, a.OverallScore)
	assert.Contains(t, a.Recommendations, recommendBulk)
}

func TestAnalyzeImpactSwingPenalties(t *testing.T) {
	tests := []struct {
		name   string
		points int
		impact models.ImpactLevel
		score  int
	}{
		{name: "within 30 percent", points: 13, impact: models.ImpactNeutral, score: 100},
		{name: "over 30 percent", points: 14, impact: models.ImpactNegative, score: 75},
		{name: "over 50 percent", points: 16, impact: models.ImpactNegative, score: 65},
	}

	h := newTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := tt.points
			a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
				Type:          models.OperationModify,
				ChoreIDs:      []string{"c1"},
				Modifications: models.Modifications{Points: &points},
			}, balancedFamily())

			assert.Equal(t, tt.impact, impactOf(t, a, "m1").Impact)
			assert.Equal(t, tt.score, a.OverallScore)
			assert.Equal(t, 1, a.AffectedMembers)
		})
	}
}

func TestAnalyzeImpactWeekendReschedule(t *testing.T) {
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationReschedule,
		ChoreIDs:      []string{"c1", "c2"},
		Modifications: models.Modifications{NewDueDate: "2026-03-07"},
	}, balancedFamily())

	alex := impactOf(t, a, "m1")
	require.Len(t, alex.ScheduleChanges, 1)
	assert.Equal(t, models.ScheduleChange{
		ChoreID: "c1", From: "2026-03-05", To: "2026-03-07", Weekend: true, Conflict: true,
	}, alex.ScheduleChanges[0])
	assert.Equal(t, 1, alex.ScheduleConflicts)
	assert.Equal(t, models.ImpactNeutral, alex.Impact)
	assert.Equal(t, 1, impactOf(t, a, "m2").ScheduleConflicts)
	assert.Empty(t, impactOf(t, a, "m3").ScheduleChanges)

	assert.Equal(t, 2, a.AffectedMembers)
	assert.Equal(t, 84, a.OverallScore)
	assert.Equal(t, []string{recommendSchedule}, a.Recommendations)
}

func TestAnalyzeImpactWeekdayReschedule(t *testing.T) {
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationReschedule,
		ChoreIDs:      []string{"c3"},
		Modifications: models.Modifications{NewDueDate: "2026-03-10"},
	}, balancedFamily())

	kim := impactOf(t, a, "m3")
	require.Len(t, kim.ScheduleChanges, 1)
	assert.False(t, kim.ScheduleChanges[0].Conflict)
	assert.Empty(t, kim.SkillMismatches, "rescheduling does not change who does the chore")
	assert.Equal(t, 100, a.OverallScore)
	assert.NotNil(t, a.Recommendations)
	assert.Empty(t, a.Recommendations)
}

func TestAnalyzeImpactScoreIsClamped(t *testing.T) {
	snap := &models.FamilyContextSnapshot{Members: []models.Member{{ID: "m1", Age: 40}}}
	var ids []string
	for i := 1; i <= 15; i++ {
		id := fmt.Sprintf("s%d", i)
		ids = append(ids, id)
		snap.ActiveChores = append(snap.ActiveChores, models.Chore{ID: id, AssigneeID: "m1"})
	}
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationReschedule,
		ChoreIDs:      ids,
		Modifications: models.Modifications{NewDueDate: "2026-03-08"},
	}, snap)

	assert.Equal(t, 15, impactOf(t, a, "m1").ScheduleConflicts)
	assert.Equal(t, 0, a.OverallScore)
}

func TestAnalyzeImpactDelete(t *testing.T) {
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:     models.OperationDelete,
		ChoreIDs: []string{"c3"},
	}, balancedFamily())

	kim := impactOf(t, a, "m3")
	assert.Equal(t, models.ImpactPositive, kim.Impact)
	assert.Empty(t, kim.SkillMismatches)
	assert.Equal(t, 80, a.OverallScore)
	assert.Empty(t, a.Recommendations)
}

func TestAnalyzeImpactCreateHardChoreForChild(t *testing.T) {
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationCreate,
		Modifications: models.Modifications{AssignTo: "m3", Difficulty: models.DifficultyHard, Title: "Clean gutters"},
	}, balancedFamily())

	kim := impactOf(t, a, "m3")
	assert.Equal(t, models.ImpactNegative, kim.Impact)
	require.Len(t, kim.SkillMismatches, 1)
	assert.Equal(t, "new-1", kim.SkillMismatches[0].ChoreID)
	assert.Equal(t, 55, a.OverallScore)
}

func TestAnalyzeImpactUnknownAssignee(t *testing.T) {
	h := newTestHandler(t, nil)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationAssign,
		ChoreIDs:      []string{"c1"},
		Modifications: models.Modifications{AssignTo: "m9"},
	}, balancedFamily())

	require.Len(t, a.MemberImpacts, 4)
	last := a.MemberImpacts[3]
	assert.Equal(t, "m9", last.MemberID)
	assert.Equal(t, "Member m9", last.MemberName)
	assert.Equal(t, 10, last.Workload.Change)
}

func TestAnalyzeImpactOptimizeUsesOnlyAIRecommendations(t *testing.T) {
	gw := &fakeGateway{
		available: true,
		resp: &aigateway.Response{
			Success:  true,
			Analysis: &aigateway.Analysis{Recommendations: []string{"Rotate the kitchen chores weekly"}},
		},
	}
	h := newTestHandler(t, gw)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:     models.OperationOptimize,
		ChoreIDs: []string{"c1", "c2", "c3"},
	}, balancedFamily())

	assert.Equal(t, 100, a.OverallScore)
	assert.Zero(t, a.AffectedMembers)
	for _, mi := range a.MemberImpacts {
		assert.Equal(t, models.ImpactNeutral, mi.Impact)
	}
	assert.Equal(t, []string{"Rotate the kitchen chores weekly"}, a.Recommendations)
	assert.True(t, a.AIEnhanced)
}

func TestAnalyzeImpactMergesAIRecommendations(t *testing.T) {
	gw := &fakeGateway{
		available: true,
		resp: &aigateway.Response{
			Success: true,
			Analysis: &aigateway.Analysis{Recommendations: []string{
				"give hard chores to members aged 12 or older, or split them into simpler tasks for younger members",
				"Pair Kim with an adult for the gutters",
				"   ",
			}},
		},
	}
	h := newTestHandler(t, gw)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		ID:            "op-7",
		Type:          models.OperationAssign,
		ChoreIDs:      []string{"c1", "c2", "c3"},
		Modifications: models.Modifications{AssignTo: "m3"},
	}, balancedFamily())

	require.Equal(t, 1, gw.calls)
	assert.Equal(t, aigateway.RequestImpactAssessment, gw.lastReq.Type)
	assert.Equal(t, "fam-1", gw.lastReq.FamilyID)
	assert.Equal(t, "op-7", gw.lastReq.Operation.ID)

	require.Len(t, a.Recommendations, 3)
	assert.Equal(t, "Pair Kim with an adult for the gutters", a.Recommendations[2])
	assert.True(t, a.AIEnhanced)
}

func TestAnalyzeImpactAIOnlyRepeatsBaseAdvice(t *testing.T) {
	gw := &fakeGateway{
		available: true,
		resp: &aigateway.Response{
			Success:  true,
			Analysis: &aigateway.Analysis{Recommendations: []string{recommendSchedule}},
		},
	}
	h := newTestHandler(t, gw)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationReschedule,
		ChoreIDs:      []string{"c1"},
		Modifications: models.Modifications{NewDueDate: "2026-03-07"},
	}, balancedFamily())

	assert.Equal(t, []string{recommendSchedule}, a.Recommendations)
	assert.False(t, a.AIEnhanced)
}

func TestAnalyzeImpactSwallowsGatewayErrors(t *testing.T) {
	log, logs := logger.NewObserved(zapcore.WarnLevel)
	gw := &fakeGateway{
		available: true,
		resp:      &aigateway.Response{Success: false},
		err:       &aigateway.GatewayError{Code: errors.ErrCodeRateLimitExceeded, Message: "slow down"},
	}
	h, err := NewHandler(HandlerOptions{Gateway: gw, Logger: log, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:          models.OperationAssign,
		ChoreIDs:      []string{"c1", "c2", "c3"},
		Modifications: models.Modifications{AssignTo: "m3"},
	}, balancedFamily())

	assert.Equal(t, 55, a.OverallScore)
	assert.Len(t, a.Recommendations, 2)
	assert.False(t, a.AIEnhanced)

	warnings := logs.FilterMessage("AI impact recommendations unavailable").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", warnings[0].ContextMap()["errorCode"])
}

func TestAnalyzeImpactSkipsUnavailableGateway(t *testing.T) {
	gw := &fakeGateway{available: false}
	h := newTestHandler(t, gw)

	h.AnalyzeImpact(context.Background(), &models.BulkOperation{
		Type:     models.OperationDelete,
		ChoreIDs: []string{"c1"},
	}, balancedFamily())

	assert.Zero(t, gw.calls)
}

func TestAnalyzeImpactMissingSnapshot(t *testing.T) {
	log, logs := logger.NewObserved(zapcore.ErrorLevel)
	h, err := NewHandler(HandlerOptions{Logger: log})
	require.NoError(t, err)

	a := h.AnalyzeImpact(context.Background(), &models.BulkOperation{ID: "op-3", Type: models.OperationDelete}, nil)

	assert.Equal(t, 50, a.OverallScore)
	assert.Equal(t, "op-3", a.OperationID)
	assert.Equal(t, []string{recommendReview}, a.Recommendations)
	assert.Empty(t, a.MemberImpacts)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "IMPACT_ANALYSIS_FAILED", entries[0].ContextMap()["errorCode"])
}

func TestAnalyzeImpactDoesNotMutateSnapshot(t *testing.T) {
	snap := balancedFamily()
	before := balancedFamily()
	h := newTestHandler(t, nil)
	points := 50

	for _, op := range []*models.BulkOperation{
		{Type: models.OperationAssign, ChoreIDs: []string{"c1", "c3"}, Modifications: models.Modifications{AssignTo: "m2"}},
		{Type: models.OperationModify, ChoreIDs: []string{"c2"}, Modifications: models.Modifications{Points: &points}},
		{Type: models.OperationReschedule, ChoreIDs: []string{"c1"}, Modifications: models.Modifications{NewDueDate: "2026-03-07"}},
		{Type: models.OperationDelete, ChoreIDs: []string{"c1", "c2"}},
	} {
		h.AnalyzeImpact(context.Background(), op, snap)
	}

	assert.Equal(t, before, snap)
}

func TestMergeRecommendations(t *testing.T) {
	got := mergeRecommendations(
		[]string{"Keep weekends light", "Rotate chores"},
		[]string{" keep weekends light ", "", "Praise effort", "Praise effort"},
	)
	assert.Equal(t, []string{"Keep weekends light", "Rotate chores", "Praise effort"}, got)
	assert.Empty(t, mergeRecommendations(nil, nil))
}

func TestExecute(t *testing.T) {
	h := newTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{
		Operation: models.BulkOperation{Type: models.OperationDelete, ChoreIDs: []string{"c1"}},
		Snapshot:  balancedFamily(),
	})
	require.NoError(t, err)
	assert.Equal(t, 80, out.ImpactAssessment.OverallScore)

	_, err = h.Execute(context.Background(), nil)
	require.Error(t, err)
}

func TestObserveRecordsJobOutcome(t *testing.T) {
	reader := metric.NewManualReader()
	obs := observability.NewWithReader("test", reader)
	defer obs.Shutdown()

	h, err := NewHandler(HandlerOptions{Logger: logger.NewTestLogger(t), Observability: obs})
	require.NoError(t, err)

	ctx := context.Background()
	start := time.Now().Add(-25 * time.Millisecond)
	h.observe(ctx, "", start)
	h.observe(ctx, string(errors.ErrCodeInvalidJobInput), start)
	h.observe(ctx, "", start)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	byStatus := map[string]int64{}
	var durations uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					task, _ := dp.Attributes.Value(attribute.Key("task_type"))
					status, _ := dp.Attributes.Value(attribute.Key("status"))
					assert.Equal(t, TaskType, task.AsString())
					byStatus[status.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					durations += dp.Count
				}
			}
		}
	}
	assert.Equal(t, map[string]int64{"completed": 2, "failed": 1}, byStatus)
	assert.Equal(t, uint64(3), durations)
}
