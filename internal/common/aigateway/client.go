package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chore-workers/internal/common/config"
	"chore-workers/internal/common/errors"
	commonhttp "chore-workers/internal/common/http"

	"github.com/sony/gobreaker"
)

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates    []candidate   `json:"candidates"`
	UsageMetadata usageMetadata `json:"usageMetadata"`
}

type candidate struct {
	Content       content        `json:"content"`
	FinishReason  string         `json:"finishReason"`
	SafetyRatings []safetyRating `json:"safetyRatings"`
}

type safetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// serverError is an HTTP 5xx. It is the only status that counts as a
// breaker failure; 4xx answers mean the service is up.
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("text-generation service returned %d", e.status)
}

type rawResponse struct {
	status int
	body   []byte
}

type generationClient struct {
	http    *http.Client
	baseURL string
	model   string
	breaker *gobreaker.CircuitBreaker
}

func newGenerationClient(cfg config.AIGatewayConfig, httpClient *http.Client) *generationClient {
	maxFailures := uint32(cfg.BreakerMaxFailures)
	return &generationClient{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ai-gateway",
			MaxRequests: 1,
			Timeout:     config.GetDuration(cfg.BreakerTimeout),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		}),
	}
}

func (c *generationClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
}

// generate sends prompt and returns the decoded envelope, or a classified
// gateway error.
func (c *generationClient) generate(ctx context.Context, credential, prompt string, settings config.GenerationSettings) (*generateResponse, *GatewayError) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     settings.Temperature,
			MaxOutputTokens: settings.MaxTokens,
			TopP:            settings.TopP,
		},
		SafetySettings: defaultSafetySettings,
	})
	if err != nil {
		return nil, newGatewayError(errors.ErrCodeParsingFailed, "encode request: %v", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", credential)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &serverError{status: resp.StatusCode}
		}
		return &rawResponse{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	raw := result.(*rawResponse)
	switch {
	case raw.status == http.StatusUnauthorized || raw.status == http.StatusForbidden:
		return nil, newGatewayError(errors.ErrCodeAPIKeyInvalid, "credential rejected with status %d", raw.status)
	case raw.status == http.StatusTooManyRequests:
		return nil, newGatewayError(errors.ErrCodeRateLimitExceeded, "text-generation service quota exceeded")
	case raw.status < 200 || raw.status >= 300:
		return nil, newGatewayError(errors.ErrCodeServiceUnavailable, "text-generation service returned %d", raw.status)
	}

	var envelope generateResponse
	if err := json.Unmarshal(raw.body, &envelope); err != nil {
		return nil, newGatewayError(errors.ErrCodeParsingFailed, "decode response: %v", err)
	}
	if len(envelope.Candidates) == 0 {
		return nil, newGatewayError(errors.ErrCodeParsingFailed, "response has no candidates")
	}
	return &envelope, nil
}

func classifyTransportError(ctx context.Context, err error) *GatewayError {
	var srvErr *serverError
	switch {
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return newGatewayError(errors.ErrCodeRequestTimeout, "text-generation call exceeded its deadline")
	case stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return newGatewayError(errors.ErrCodeServiceUnavailable, "circuit breaker open")
	case stderrors.As(err, &srvErr):
		return newGatewayError(errors.ErrCodeServiceUnavailable, "%v", srvErr)
	default:
		return newGatewayError(errors.ErrCodeServiceUnavailable, "text-generation call failed: %v", err)
	}
}

// defaultHTTPClient has no client-level timeout; each call runs under the
// gateway's context deadline.
func defaultHTTPClient() *http.Client {
	return commonhttp.NewClient(0).Standard()
}
