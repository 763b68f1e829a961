// Package collaborator talks to an OpenAI-compatible chat completion
// endpoint and turns its replies into structured edit suggestions.
package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"specmap/application/ports"
	"specmap/application/suggestion"
	"specmap/domain/chat"
	"specmap/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// Client calls a chat completion API. It implements ports.Collaborator.
type Client struct {
	url     string
	apiKey  string
	model   string
	httpc   *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpc = c }
}

// WithModel sets the model name sent with each request.
func WithModel(model string) Option {
	return func(cl *Client) { cl.model = model }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a collaborator client for the given endpoint.
func NewClient(url, apiKey string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		apiKey: apiKey,
		model:  "gpt-4o-mini",
		httpc:  &http.Client{Timeout: defaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire types for the chat completion API.

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type wireResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// payload is the structured body we expect inside the model's reply.
type payload struct {
	Message       string                    `json:"message"`
	Suggestions   []suggestion.ProposedEdit `json:"suggestions"`
	Impact        string                    `json:"impact"`
	NeedsApproval bool                      `json:"needsApproval"`
}

// Respond sends one turn to the collaborator and parses the structured
// reply. A reply that is not valid JSON degrades to a plain message with
// no suggestions rather than an error.
func (c *Client) Respond(ctx context.Context, req ports.CollaboratorRequest) (*ports.CollaboratorResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	messages := []wireMessage{{Role: "system", Content: systemPrompt}}
	for _, m := range req.History {
		role := "user"
		if m.Role == chat.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, wireMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, wireMessage{Role: "user", Content: renderUserContent(req)})

	body, err := json.Marshal(wireRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, errors.NewCollaboratorError("encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewCollaboratorError("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, errors.NewCollaboratorError("collaborator request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.NewCollaboratorError("read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewCollaboratorError(
			fmt.Sprintf("collaborator returned status %d", resp.StatusCode), nil)
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.NewCollaboratorError("decode response", err)
	}
	if wire.Error != nil {
		return nil, errors.NewCollaboratorError(wire.Error.Message, nil)
	}
	if len(wire.Choices) == 0 {
		return nil, errors.NewCollaboratorError("collaborator returned no choices", nil)
	}

	return c.parseReply(wire.Choices[0].Message.Content), nil
}

// parseReply extracts the structured payload from the model's text.
// Models sometimes wrap JSON in markdown fences or prose; anything that
// still fails to parse becomes a plain conversational reply.
func (c *Client) parseReply(content string) *ports.CollaboratorResponse {
	var p payload
	if err := json.Unmarshal([]byte(extractJSON(content)), &p); err != nil || p.Message == "" {
		c.logger.Debug("collaborator reply was not structured JSON", zap.Int("len", len(content)))
		return &ports.CollaboratorResponse{
			Message: strings.TrimSpace(content),
			Impact:  suggestion.ImpactMinor,
		}
	}
	return &ports.CollaboratorResponse{
		Message:       p.Message,
		Edits:         p.Suggestions,
		Impact:        suggestion.ParseImpact(p.Impact),
		NeedsApproval: p.NeedsApproval,
	}
}

// extractJSON strips markdown code fences and surrounding prose, keeping
// the outermost JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
