// Package llm wraps an OpenAI-compatible endpoint behind the three
// completion capabilities the core consumes: plain text, strict JSON and
// vision JSON with inline attachments. Retry on malformed JSON is the
// client's concern; callers express validity through a post-validation hook.
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brightboard/brightboard-backend/internal/config"
	"github.com/brightboard/brightboard-backend/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"
)

// Usage is the token accounting record for one logical call. It accumulates
// across retries so the grading pipeline can aggregate per-student totals.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

func (u *Usage) add(other openai.Usage) {
	u.Prompt += other.PromptTokens
	u.Completion += other.CompletionTokens
	u.Total += other.TotalTokens
}

// Attachment is an inline binary document sent with a vision call.
type Attachment struct {
	Data []byte
	MIME string
}

// ValidateFunc lets a caller require the decoded JSON to satisfy a
// post-condition. A non-nil error counts as a retryable parse failure.
type ValidateFunc func(raw json.RawMessage) error

// VisionOptions tunes one CompleteVisionJSON call.
type VisionOptions struct {
	Temperature float32
	MaxRetries  int    // 0 → client default
	LogTag      string // names the diagnostic dump on terminal failure
	Validate    ValidateFunc
}

const (
	retryTemperatureStep = 0.05
	retryTemperatureCap  = 0.30
)

// Client is the single LLM adapter. Safe for concurrent use.
type Client struct {
	api         *openai.Client
	model       string
	visionModel string
	maxRetries  int
	debugDir    string
	log         zerolog.Logger
}

// NewClient builds a client from application config.
func NewClient(cfg *config.Config, log zerolog.Logger) (*Client, error) {
	if cfg.LLMEndpoint == "" {
		return nil, fmt.Errorf("LLM endpoint is required")
	}
	if cfg.LLMModel == "" {
		return nil, fmt.Errorf("LLM model is required")
	}

	clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	clientCfg.BaseURL = strings.TrimSuffix(cfg.LLMEndpoint, "/")

	return &Client{
		api:         openai.NewClientWithConfig(clientCfg),
		model:       cfg.LLMModel,
		visionModel: cfg.LLMVisionModel,
		maxRetries:  cfg.LLMMaxRetries,
		debugDir:    cfg.LLMDebugDir,
		log:         log.With().Str("component", "llm_client").Logger(),
	}, nil
}

// CompleteText sends a free-form prompt and returns raw text plus usage.
func (c *Client) CompleteText(ctx context.Context, prompt string, temperature float32) (string, Usage, error) {
	var usage Usage

	resp, err := c.chat(ctx, c.model, prompt, nil, temperature, false)
	if err != nil {
		return "", usage, err
	}
	usage.add(resp.Usage)

	if len(resp.Choices) == 0 {
		return "", usage, domain.Transient("no choices in completion", nil)
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// CompleteJSON sends a prompt with the response MIME pinned to JSON and
// decodes the result. The per-retry temperature bump applies to vision calls
// only; this path fails fast on a single malformed response.
func (c *Client) CompleteJSON(ctx context.Context, prompt string, temperature float32) (json.RawMessage, Usage, error) {
	var usage Usage

	resp, err := c.chat(ctx, c.model, prompt, nil, temperature, true)
	if err != nil {
		return nil, usage, err
	}
	usage.add(resp.Usage)

	if len(resp.Choices) == 0 {
		return nil, usage, domain.Transient("no choices in completion", nil)
	}

	raw, err := ExtractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, usage, domain.Parse("completion is not valid JSON", err)
	}
	return raw, usage, nil
}

// CompleteVisionJSON sends a prompt plus 1–2 inline attachments and returns
// strict JSON. On a JSON-decode or validation failure it retries up to
// MaxRetries attempts, raising the temperature by 0.05 each retry (capped at
// 0.30) and stripping markdown fences before parsing. On final failure the
// raw response is persisted to the diagnostics dir and a Parse error is
// returned.
func (c *Client) CompleteVisionJSON(ctx context.Context, prompt string, attachments []Attachment, opts VisionOptions) (json.RawMessage, Usage, error) {
	var usage Usage

	if len(attachments) == 0 || len(attachments) > 2 {
		return nil, usage, domain.Validation("vision calls require 1 or 2 attachments")
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = c.maxRetries
	}

	temperature := opts.Temperature
	var lastRaw string
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			temperature = min32(temperature+retryTemperatureStep, retryTemperatureCap)
			c.log.Warn().
				Str("tag", opts.LogTag).
				Int("attempt", attempt+1).
				Float32("temperature", temperature).
				Msg("Retrying vision completion after parse failure")
		}

		resp, err := c.chat(ctx, c.visionModel, prompt, attachments, temperature, true)
		if err != nil {
			// Transport/rate-limit errors surface to the caller; they are
			// not parse failures and retrying at higher temperature would
			// not help.
			return nil, usage, err
		}
		usage.add(resp.Usage)

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in completion")
			continue
		}
		lastRaw = resp.Choices[0].Message.Content

		raw, err := ExtractJSON(lastRaw)
		if err != nil {
			lastErr = err
			continue
		}
		if opts.Validate != nil {
			if err := opts.Validate(raw); err != nil {
				lastErr = fmt.Errorf("validation hook: %w", err)
				continue
			}
		}
		return raw, usage, nil
	}

	c.dumpFailure(opts.LogTag, lastRaw)
	return nil, usage, domain.Parse(
		fmt.Sprintf("vision completion unparsable after %d attempts", maxRetries), lastErr)
}

// chat performs one chat-completion request.
func (c *Client) chat(ctx context.Context, model, prompt string, attachments []Attachment, temperature float32, jsonMode bool) (openai.ChatCompletionResponse, error) {
	var msg openai.ChatCompletionMessage
	if len(attachments) == 0 {
		msg = openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}
	} else {
		parts := make([]openai.ChatMessagePart, 0, len(attachments)+1)
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: prompt,
		})
		for _, a := range attachments {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: dataURL(a),
				},
			})
		}
		msg = openai.ChatCompletionMessage{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.log.Error().Err(err).
			Str("model", model).
			Dur("elapsed", time.Since(start)).
			Msg("LLM request failed")
		return resp, domain.Transient("llm request", err)
	}

	c.log.Debug().
		Str("model", model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("LLM request completed")

	return resp, nil
}

// dumpFailure persists a terminally-unparsable response for diagnosis.
func (c *Client) dumpFailure(tag, raw string) {
	if raw == "" {
		return
	}
	if tag == "" {
		tag = "untagged"
	}
	if err := os.MkdirAll(c.debugDir, 0o755); err != nil {
		c.log.Error().Err(err).Msg("Cannot create LLM debug dir")
		return
	}
	name := fmt.Sprintf("%s-%d.txt", tag, time.Now().UnixNano())
	path := filepath.Join(c.debugDir, name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("Cannot write LLM failure dump")
		return
	}
	c.log.Warn().Str("path", path).Msg("Persisted unparsable LLM response")
}

func dataURL(a Attachment) string {
	return "data:" + a.MIME + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
