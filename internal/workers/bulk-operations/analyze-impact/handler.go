// internal/workers/bulk-operations/analyze-impact/handler.go
package analyzeimpact

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"chore-workers/internal/common/aigateway"
	"chore-workers/internal/common/camunda"
	"chore-workers/internal/common/config"
	"chore-workers/internal/common/errors"
	"chore-workers/internal/common/logger"
	"chore-workers/internal/common/metrics"
	"chore-workers/internal/common/observability"
	"chore-workers/internal/common/validation"
	"chore-workers/internal/common/workload"
	"chore-workers/internal/models"
	"chore-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = registry.TaskAnalyzeImpact

	// fallbackScore is reported when the assessment itself fails.
	fallbackScore = 50
)

type AIGateway interface {
	IsAvailable(ctx context.Context, familyID string) bool
	ProcessRequest(ctx context.Context, req aigateway.Request) (*aigateway.Response, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	obs          *observability.Observability
	gateway      AIGateway
	schema       validation.JSONSchema
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Gateway       AIGateway
	Registry      *registry.ActivityRegistry
	Logger        logger.Logger
	Observability *observability.Observability
	Now           func() time.Time
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.CustomConfig
	if cfg == nil {
		cfg = LoadConfig(opts.AppConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	schema, err := reg.InputSchema(TaskType)
	if err != nil {
		return nil, fmt.Errorf("invalid registry for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Handler{
		config:       cfg,
		logger:       log,
		obs:          opts.Observability,
		gateway:      opts.Gateway,
		schema:       schema,
		errorHandler: errors.NewErrorHandler(log),
		now:          now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := camunda.DecodeVariables(job, h.schema, &input); err != nil {
		h.observe(ctx, string(errors.ErrCodeInvalidJobInput), startTime)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.observe(ctx, string(errors.Normalize(err).Code), startTime)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output, nil); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		h.observe(ctx, string(errors.Normalize(err).Code), startTime)
		return
	}
	h.observe(ctx, "", startTime)
}

func (h *Handler) observe(ctx context.Context, errorCode string, startTime time.Time) {
	elapsed := time.Since(startTime)
	metrics.ObserveJob(TaskType, errorCode, elapsed.Seconds())

	status := "completed"
	if errorCode != "" {
		status = "failed"
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, status)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidJobInputError("input is required")
	}
	assessment := h.AnalyzeImpact(ctx, &input.Operation, input.Snapshot)
	return &Output{ImpactAssessment: *assessment}, nil
}

// AnalyzeImpact simulates op against snap and scores the effect on each
// member. It never fails: internal faults yield a neutral score of 50 with a
// manual-review recommendation.
func (h *Handler) AnalyzeImpact(ctx context.Context, op *models.BulkOperation, snap *models.FamilyContextSnapshot) (result *models.FamilyImpactAssessment) {
	defer func() {
		if r := recover(); r != nil {
			h.logFault(op, errors.NewImpactAnalysisFailedError(fmt.Errorf("%v", r)))
			result = fallbackAssessment(op)
		}
		metrics.ImpactScore.Observe(float64(result.OverallScore))
	}()

	if op == nil || snap == nil {
		h.logFault(op, errors.NewImpactAnalysisFailedError(stderrors.New("operation and family snapshot are required")))
		return fallbackAssessment(op)
	}

	s := &simulation{op: op, snap: snap, sim: workload.Simulate(op, snap)}
	assessment := &models.FamilyImpactAssessment{
		OperationID:     op.ID,
		MemberImpacts:   []models.MemberImpact{},
		Recommendations: []string{},
	}
	for _, id := range s.memberIDs() {
		mi := s.assess(id)
		if affected(mi) {
			assessment.AffectedMembers++
		}
		assessment.MemberImpacts = append(assessment.MemberImpacts, mi)
	}
	assessment.OverallScore = overallScore(assessment.MemberImpacts)

	var base []string
	if op.Type != models.OperationOptimize {
		base = baseRecommendations(assessment.MemberImpacts)
	}
	extra := h.aiRecommendations(ctx, op, snap, assessment)
	assessment.Recommendations = mergeRecommendations(base, extra)
	assessment.AIEnhanced = len(assessment.Recommendations) > len(base)

	h.logger.Info("impact analysis complete", map[string]interface{}{
		"familyId":        snap.FamilyID,
		"operationId":     op.ID,
		"operation":       string(op.Type),
		"affectedMembers": assessment.AffectedMembers,
		"overallScore":    assessment.OverallScore,
		"aiEnhanced":      assessment.AIEnhanced,
	})
	return assessment
}

func (h *Handler) aiRecommendations(ctx context.Context, op *models.BulkOperation, snap *models.FamilyContextSnapshot, assessment *models.FamilyImpactAssessment) []string {
	if h.gateway == nil || !h.gateway.IsAvailable(ctx, snap.FamilyID) {
		return nil
	}

	resp, err := h.gateway.ProcessRequest(ctx, aigateway.Request{
		FamilyID: snap.FamilyID,
		Type:     aigateway.RequestImpactAssessment,
		Prompt: fmt.Sprintf("%s. Assess a %s operation on %d chore(s) affecting %d member(s), current score %d",
			aigateway.OperationTag(op), op.Type, len(op.ChoreIDs), assessment.AffectedMembers, assessment.OverallScore),
		Context:   snap,
		Operation: op,
		Timestamp: h.now(),
	})
	if err != nil {
		fields := map[string]interface{}{
			"familyId":    snap.FamilyID,
			"requestType": string(aigateway.RequestImpactAssessment),
			"error":       err.Error(),
		}
		var gwErr *aigateway.GatewayError
		if stderrors.As(err, &gwErr) {
			fields["errorCode"] = string(gwErr.Code)
		}
		h.logger.Warn("AI impact recommendations unavailable", fields)
		return nil
	}
	if resp == nil || resp.Analysis == nil {
		return nil
	}
	return resp.Analysis.Recommendations
}

func (h *Handler) logFault(op *models.BulkOperation, stdErr *errors.StandardError) {
	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Details,
	}
	if op != nil {
		fields["operationId"] = op.ID
		fields["familyId"] = op.FamilyID
	}
	h.logger.Error("impact analysis failed, returning fallback assessment", fields)
}

func fallbackAssessment(op *models.BulkOperation) *models.FamilyImpactAssessment {
	a := &models.FamilyImpactAssessment{
		MemberImpacts:   []models.MemberImpact{},
		OverallScore:    fallbackScore,
		Recommendations: []string{recommendReview},
	}
	if op != nil {
		a.OperationID = op.ID
	}
	return a
}
