// internal/workers/bulk-operations/detect-conflicts/handler.go
package detectconflicts

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
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

const TaskType = registry.TaskDetectConflicts

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
	analysis := h.AnalyzeOperation(ctx, &input.Operation, input.Snapshot)
	return &Output{ConflictAnalysis: *analysis}, nil
}

// AnalyzeOperation runs every detector against snap and attaches
// resolutions. It reads snap without modifying it and never fails; internal
// faults produce an empty analysis.
func (h *Handler) AnalyzeOperation(ctx context.Context, op *models.BulkOperation, snap *models.FamilyContextSnapshot) (result *models.ConflictAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			h.logFault(op, errors.NewConflictAnalysisFailedError(fmt.Errorf("%v", r)))
			neutral := models.NewConflictAnalysis(nil)
			result = &neutral
		}
		metrics.ConflictSeverity.WithLabelValues(string(result.Severity)).Inc()
	}()

	if op == nil || snap == nil {
		h.logFault(op, errors.NewConflictAnalysisFailedError(stderrors.New("operation and family snapshot are required")))
		neutral := models.NewConflictAnalysis(nil)
		return &neutral
	}
	if len(op.ChoreIDs) == 0 && op.Type != models.OperationCreate {
		empty := models.NewConflictAnalysis(nil)
		return &empty
	}

	d := &detection{op: op, snap: snap, sim: workload.Simulate(op, snap), now: h.now()}
	var conflicts []models.OperationConflict
	for _, detect := range detectors {
		conflicts = append(conflicts, detect(d)...)
	}

	analysis := models.NewConflictAnalysis(conflicts)
	var unresolved []models.OperationConflict
	for _, c := range analysis.Conflicts {
		if res, ok := resolve(c, d.now); ok {
			analysis.SuggestedResolutions = append(analysis.SuggestedResolutions, res)
			continue
		}
		unresolved = append(unresolved, c)
	}
	if len(unresolved) > 0 {
		analysis.SuggestedResolutions = append(analysis.SuggestedResolutions,
			h.aiResolutions(ctx, op, snap, unresolved)...)
	}

	h.logger.Info("conflict analysis complete", map[string]interface{}{
		"familyId":    snap.FamilyID,
		"operationId": op.ID,
		"operation":   string(op.Type),
		"conflicts":   len(analysis.Conflicts),
		"severity":    string(analysis.Severity),
		"resolutions": len(analysis.SuggestedResolutions),
	})
	return &analysis
}

// aiResolutions asks the gateway for resolutions to conflicts that have no
// fixed remedy. Failures are logged and yield nothing.
func (h *Handler) aiResolutions(ctx context.Context, op *models.BulkOperation, snap *models.FamilyContextSnapshot, conflicts []models.OperationConflict) []models.ConflictResolution {
	if h.gateway == nil || !h.gateway.IsAvailable(ctx, snap.FamilyID) {
		return nil
	}

	descriptions := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		descriptions = append(descriptions, c.Description)
	}

	resp, err := h.gateway.ProcessRequest(ctx, aigateway.Request{
		FamilyID:  snap.FamilyID,
		Type:      aigateway.RequestConflictAnalysis,
		Prompt:    aigateway.OperationTag(op) + ". Resolve: " + strings.Join(descriptions, "; "),
		Context:   snap,
		Operation: op,
		Conflicts: conflicts,
		Timestamp: h.now(),
	})
	if err != nil {
		fields := map[string]interface{}{
			"familyId":    snap.FamilyID,
			"requestType": string(aigateway.RequestConflictAnalysis),
			"error":       err.Error(),
		}
		var gwErr *aigateway.GatewayError
		if stderrors.As(err, &gwErr) {
			fields["errorCode"] = string(gwErr.Code)
		}
		h.logger.Warn("AI conflict resolutions unavailable", fields)
		return nil
	}
	return aigateway.ResolutionsFromResponse(resp)
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
	h.logger.Error("conflict analysis failed, returning empty analysis", fields)
}
