// internal/workers/bulk-operations/parse-bulk-request/handler.go
package parsebulkrequest

import (
	"context"
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
	"chore-workers/internal/models"
	"chore-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskParseBulkRequest

// clarificationThreshold is the confidence below which a result always
// needs clarification.
const clarificationThreshold = 0.7

// AIGateway is the part of the AI gateway the intent processor uses.
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
		h.fail(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
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

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	h.observe(ctx, string(errors.Normalize(err).Code), startTime)
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// observe records the job outcome in Prometheus and, when configured,
// OpenTelemetry. An empty errorCode means the job completed.
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

	result := h.ParseRequest(ctx, input.Text, input.FamilyID, input.Snapshot)
	return &Output{
		ParseResult:            *result,
		ClarificationQuestions: GenerateClarificationQuestions(result),
	}, nil
}

// ParseRequest turns free text into an intent, entities and a draft
// operation. It never fails: unusable input yields a low-confidence result
// that needs clarification.
func (h *Handler) ParseRequest(ctx context.Context, text, familyID string, snap *models.FamilyContextSnapshot) (result *models.NLPParseResult) {
	defer func() {
		if r := recover(); r != nil {
			stdErr := errors.NewIntentProcessingFailedError(fmt.Errorf("%v", r))
			h.logger.Error("intent processing panicked", map[string]interface{}{
				"familyId":  familyID,
				"errorCode": string(stdErr.Code),
				"error":     stdErr.Details,
			})
			result = fallbackResult()
		}
	}()

	normalized := normalize(text)
	vocab := newVocabulary(snap)
	found := extractEntities(normalized, vocab)

	c := classifyIntent(normalized, found)
	var analysis *aigateway.Analysis
	if c.confidence <= h.config.AIConfidenceThreshold {
		c, analysis = h.augmentWithAI(ctx, text, familyID, snap, c)
	}

	intent := models.ParsedIntent{
		Type:      c.intent,
		Scope:     detectScope(normalized, found),
		Target:    valuesOf(found, models.EntityChoreType, models.EntityRoom, models.EntityCategory),
		Modifiers: buildModifiers(normalized, found, vocab),
	}
	if intent.Target == nil {
		intent.Target = []string{}
	}
	if c.fromAI && analysis != nil {
		mergeAnalysis(&intent, analysis)
	}

	ambiguities := detectAmbiguities(normalized, intent, found, c)
	confidence := scoreConfidence(found, ambiguities, intent)

	result = &models.NLPParseResult{
		Intent:              intent,
		Entities:            found,
		Confidence:          confidence,
		Ambiguities:         ambiguities,
		ClarificationNeeded: len(ambiguities) > 0 || confidence < clarificationThreshold,
		SuggestedOperation:  buildDraft(familyID, text, intent, snap, h.now()),
	}
	if result.Entities == nil {
		result.Entities = []models.Entity{}
	}

	h.logger.Info("bulk request parsed", map[string]interface{}{
		"familyId":            familyID,
		"intent":              string(intent.Type),
		"confidence":          confidence,
		"ambiguities":         len(ambiguities),
		"clarificationNeeded": result.ClarificationNeeded,
		"aiAssisted":          c.fromAI,
	})
	return result
}

// mergeAnalysis fills gaps in intent from an AI classification. Values
// found by the heuristics win.
func mergeAnalysis(intent *models.ParsedIntent, a *aigateway.Analysis) {
	switch scope := models.Scope(a.Scope); scope {
	case models.ScopeAll, models.ScopeSelected, models.ScopeFiltered, models.ScopeSpecific:
		if intent.Scope == models.ScopeSpecific {
			intent.Scope = scope
		}
	}
	if len(intent.Target) == 0 {
		for _, t := range a.Targets {
			if n := normalize(t); n != "" {
				intent.Target = append(intent.Target, n)
			}
		}
	}
	if _, ok := intent.Modifiers["assignTo"]; !ok && a.AssignTo != "" {
		intent.Modifiers["assignTo"] = a.AssignTo
	}
	if _, ok := intent.Modifiers["time"]; !ok && a.NewDueDate != "" {
		intent.Modifiers["time"] = a.NewDueDate
	}
}

func fallbackResult() *models.NLPParseResult {
	return &models.NLPParseResult{
		Intent: models.ParsedIntent{
			Type:      models.IntentModify,
			Scope:     models.ScopeSpecific,
			Target:    []string{},
			Modifiers: map[string]string{},
		},
		Entities:            []models.Entity{},
		Confidence:          0.1,
		Ambiguities:         []string{AmbiguityUnclearOperation},
		ClarificationNeeded: true,
	}
}
