package aigateway

import (
	"context"
	"sync"
	"time"

	"chore-workers/internal/common/config"
	"chore-workers/internal/common/errors"
	"chore-workers/internal/common/familyconfig"
	"chore-workers/internal/common/logger"
	"chore-workers/internal/common/metrics"
	"chore-workers/internal/common/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const rateWindow = time.Minute

type configEntry struct {
	cfg       *familyconfig.AIConfig
	fetchedAt time.Time
}

// Gateway is safe for concurrent use. Its caches, rate-limit windows and
// usage counters live in process memory and reset on restart.
type Gateway struct {
	cfg    config.AIGatewayConfig
	store  familyconfig.Store
	cache  ResponseCache
	client *generationClient
	family *slidingWindow
	global *rate.Limiter
	usage  *usageTracker
	obs    *observability.Observability
	logger logger.Logger
	now    func() time.Time

	configMu    sync.Mutex
	configCache map[string]configEntry
}

type Option func(*Gateway)

// WithCache replaces the default in-memory response cache.
func WithCache(c ResponseCache) Option {
	return func(g *Gateway) { g.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithObservability(o *observability.Observability) Option {
	return func(g *Gateway) { g.obs = o }
}

func New(cfg config.AIGatewayConfig, store familyconfig.Store, log logger.Logger, opts ...Option) *Gateway {
	cfg = config.ApplyGatewayDefaults(cfg)

	g := &Gateway{
		cfg:         cfg,
		store:       store,
		client:      newGenerationClient(cfg, defaultHTTPClient()),
		family:      newSlidingWindow(cfg.MaxRequestsPerMinute, rateWindow),
		global:      rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst),
		usage:       newUsageTracker(),
		logger:      log.WithFields(map[string]interface{}{"component": "ai-gateway"}),
		now:         time.Now,
		configCache: make(map[string]configEntry),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = NewMemoryResponseCache(cfg.CacheMaxEntries, g.now)
	}
	return g
}

// IsAvailable reports whether the family has AI enabled with a credential.
// Lookup failures count as unavailable.
func (g *Gateway) IsAvailable(ctx context.Context, familyID string) bool {
	cfg, err := g.familyConfig(ctx, familyID)
	if err != nil {
		g.logger.Warn("family config lookup failed", map[string]interface{}{
			"familyId": familyID,
			"error":    err.Error(),
		})
		return false
	}
	return cfg.Usable()
}

// GetUsageStats returns today's usage for the family, or nil if it has made
// no requests today.
func (g *Gateway) GetUsageStats(familyID string) *UsageRecord {
	return g.usage.get(familyID, g.now())
}

// ProcessRequest runs one request through config lookup, rate limiting,
// the response cache and the external call. On failure the returned error
// is a *GatewayError and the response has Success=false.
func (g *Gateway) ProcessRequest(ctx context.Context, req Request) (resp *Response, err error) {
	started := g.now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = started
	}

	ctx, endSpan := g.obs.StartSpan(ctx, "aigateway.ProcessRequest",
		attribute.String("request_type", string(req.Type)),
		attribute.String("family_id", req.FamilyID),
	)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(err.(*GatewayError).Code)
		}
		metrics.AIGatewayRequests.WithLabelValues(string(req.Type), outcome).Inc()
		g.obs.RecordGatewayCall(ctx, string(req.Type), outcome, g.now().Sub(started))
		endSpan(err)
	}()

	resp, gwErr := g.process(ctx, req)
	if gwErr != nil {
		g.logger.Warn("ai request failed", map[string]interface{}{
			"requestId":   req.RequestID,
			"familyId":    req.FamilyID,
			"requestType": string(req.Type),
			"errorCode":   string(gwErr.Code),
			"error":       gwErr.Message,
		})
		return failedResponse(req.RequestID, gwErr), gwErr
	}
	return resp, nil
}

func (g *Gateway) process(ctx context.Context, req Request) (*Response, *GatewayError) {
	if !req.Type.Valid() {
		return nil, newGatewayError(errors.ErrCodeParsingFailed, "unknown request type %q", req.Type)
	}

	famCfg, err := g.familyConfig(ctx, req.FamilyID)
	if err != nil {
		return nil, newGatewayError(errors.ErrCodeServiceUnavailable, "family config lookup failed: %v", err)
	}
	if famCfg == nil || !famCfg.AIEnabled {
		return nil, newGatewayError(errors.ErrCodeServiceUnavailable, "AI assistance is not enabled for family %s", req.FamilyID)
	}
	if famCfg.Credential == "" {
		return nil, newGatewayError(errors.ErrCodeAPIKeyInvalid, "family %s has no AI credential", req.FamilyID)
	}

	now := g.now()
	if !g.global.AllowN(now, 1) {
		metrics.AIGatewayRateLimited.WithLabelValues("global").Inc()
		return nil, newGatewayError(errors.ErrCodeRateLimitExceeded, "gateway request rate exceeded")
	}
	if !g.family.Allow(req.FamilyID, now) {
		metrics.AIGatewayRateLimited.WithLabelValues("family").Inc()
		return nil, newGatewayError(errors.ErrCodeRateLimitExceeded,
			"family %s exceeded %d requests per minute", req.FamilyID, g.cfg.MaxRequestsPerMinute)
	}

	key := cacheKey(req)
	if cached, ok := g.cache.Get(ctx, key); ok {
		metrics.AIGatewayCacheHits.WithLabelValues(string(req.Type)).Inc()
		g.usage.record(req.FamilyID, now, req.Type, true, Usage{})
		cached.RequestID = req.RequestID
		cached.Cached = true
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, config.GetDuration(g.cfg.Timeout))
	defer cancel()

	env, gwErr := g.client.generate(callCtx, famCfg.Credential, buildPrompt(req), g.settingsFor(req))
	if gwErr != nil {
		g.usage.record(req.FamilyID, now, req.Type, false, Usage{})
		return nil, gwErr
	}

	resp := buildResponse(req.RequestID, req.Type, env)
	g.usage.record(req.FamilyID, now, req.Type, false, resp.Usage)
	g.cache.Set(ctx, key, resp, time.Duration(g.cfg.CacheTTLMinutes)*time.Minute)

	g.logger.Debug("ai request completed", map[string]interface{}{
		"requestId":   req.RequestID,
		"familyId":    req.FamilyID,
		"requestType": string(req.Type),
		"confidence":  resp.Confidence,
		"structured":  resp.Analysis != nil || len(resp.Suggestions) > 0,
		"totalTokens": resp.Usage.TotalTokens,
	})
	return resp, nil
}

func (g *Gateway) settingsFor(req Request) config.GenerationSettings {
	s := g.cfg.RequestTypes[string(req.Type)]
	if req.Options.MaxTokens > 0 {
		s.MaxTokens = req.Options.MaxTokens
	}
	if req.Options.Temperature > 0 {
		s.Temperature = req.Options.Temperature
	}
	if req.Options.TopP > 0 {
		s.TopP = req.Options.TopP
	}
	return s
}

// familyConfig returns the family's settings, cached for config_cache_ttl.
// Missing settings are cached too; lookup errors are not.
func (g *Gateway) familyConfig(ctx context.Context, familyID string) (*familyconfig.AIConfig, error) {
	now := g.now()
	ttl := config.GetDuration(g.cfg.ConfigCacheTTL)

	g.configMu.Lock()
	entry, ok := g.configCache[familyID]
	g.configMu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < ttl {
		return entry.cfg, nil
	}

	cfg, err := g.store.GetAIConfig(ctx, familyID)
	if err != nil {
		return nil, err
	}

	g.configMu.Lock()
	g.configCache[familyID] = configEntry{cfg: cfg, fetchedAt: now}
	g.configMu.Unlock()
	return cfg, nil
}
