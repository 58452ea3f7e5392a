// Package llmstream streams a single chat completion from an OpenAI-compatible endpoint as a series of cumulative text snapshots.
package llmstream

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/codalotl/streamfill/internal/diag"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Config selects the endpoint, model, and sampling parameters.
type Config struct {
	BaseURL     string // ex: "https://api.openai.com/v1". Empty uses the SDK default.
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// MaxRetries is how many times the SDK retries a failed request before any output is received.
	MaxRetries int

	// Debounce is the minimum time between forwarded text deltas. Deltas arriving faster are merged. Zero forwards every chunk.
	Debounce time.Duration
}

// Request is the conversation to complete.
type Request struct {
	SystemPrompt string
	UserContent  string
}

type Client struct {
	diag.Ctx
	cfg    Config
	client openai.Client
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		Ctx:    diag.NewCtx(logger),
		cfg:    cfg,
		client: openai.NewClient(opts...),
	}
}

func (c *Client) params(req Request) openai.ChatCompletionNewParams {
	p := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserContent),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
		Temperature: openai.Float(c.cfg.Temperature),
		TopP:        openai.Float(c.cfg.TopP),
	}
	if c.cfg.MaxTokens > 0 {
		p.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	return p
}

// Stream returns immediately. The returned channel receives EventTypeTextDelta events, then exactly one terminal event (EventTypeCompletedSuccess or EventTypeError),
// and is then closed. If ctx is cancelled, the channel is closed promptly; the terminal event may be dropped.
func (c *Client) Stream(ctx context.Context, req Request) <-chan Event {
	out := make(chan Event, 64)
	go func() {
		defer close(out)

		if c.cfg.APIKey == "" {
			trySendEvent(ctx, out, newErrorEvent(c.LogNewErr("llmstream.api_key_missing", "base_url", c.cfg.BaseURL)))
			return
		}
		if c.cfg.Model == "" {
			trySendEvent(ctx, out, newErrorEvent(c.LogNewErr("llmstream.model_missing")))
			return
		}

		start := time.Now()
		stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
		defer stream.Close()

		// Deltas go through the debouncer; the terminal event is sent only after it has flushed.
		deltas := make(chan Event, 64)
		debounceDone := make(chan struct{})
		go func() {
			debounceEvents(ctx, c.cfg.Debounce, deltas, out)
			close(debounceDone)
		}()
		flush := func() {
			close(deltas)
			<-debounceDone
		}

		var acc openai.ChatCompletionAccumulator
		var text strings.Builder
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			text.WriteString(delta)
			if !trySendEvent(ctx, deltas, Event{Type: EventTypeTextDelta, Delta: delta, Text: text.String()}) {
				break
			}
		}
		flush()

		if err := stream.Err(); err != nil {
			trySendEvent(ctx, out, newErrorEvent(c.LogWrappedErr("llmstream.stream", err, "model", c.cfg.Model)))
			return
		}
		if err := ctx.Err(); err != nil {
			trySendEvent(ctx, out, newErrorEvent(c.LogWrappedErr("llmstream.stream", err, "model", c.cfg.Model)))
			return
		}

		usage := TokenUsage{InputTokens: acc.Usage.PromptTokens, OutputTokens: acc.Usage.CompletionTokens}
		if usage.OutputTokens == 0 && text.Len() > 0 {
			usage.OutputTokens = int64(CountTokens(text.String()))
			usage.Estimated = true
		}
		var finishReason string
		if len(acc.Choices) > 0 {
			finishReason = acc.Choices[0].FinishReason
		}

		c.Log("llmstream.completed", "model", c.cfg.Model, "elapsed", time.Since(start), "output_tokens", usage.OutputTokens, "estimated", usage.Estimated, "finish_reason", finishReason)
		trySendEvent(ctx, out, Event{Type: EventTypeCompletedSuccess, Text: text.String(), Usage: usage, FinishReason: finishReason})
	}()
	return out
}

// trySendEvent sends ev on out, but fast-fails if ctx is done. Reports if the event was sent.
func trySendEvent(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// debounceEvents reads text deltas from in and forwards them to out, sending at most one delta per interval (a trailing throttle). Deltas that arrive within the window
// are merged: the forwarded event carries the latest cumulative Text and a Delta covering everything not yet forwarded. Events of other types pass straight through.
//
// It returns when ctx is done (without flushing) or when in is closed (after flushing any pending delta). If interval <= 0, every event is forwarded as-is.
func debounceEvents(ctx context.Context, interval time.Duration, in <-chan Event, out chan<- Event) {
	var (
		lastSent   time.Time
		sentBytes  int    // bytes of latest already forwarded
		latest     string // latest cumulative text
		hasPending bool
		timer      *time.Timer
		timerC     <-chan time.Time
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}
	send := func(now time.Time) bool {
		start := sentBytes
		if start > len(latest) {
			start = 0
		}
		ev := Event{Type: EventTypeTextDelta, Delta: latest[start:], Text: latest}
		if !trySendEvent(ctx, out, ev) {
			return false
		}
		lastSent = now
		sentBytes = len(latest)
		hasPending = false
		return true
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case ev, ok := <-in:
			if !ok {
				if hasPending {
					send(time.Now())
				}
				stopTimer()
				return
			}
			if ev.Type != EventTypeTextDelta || interval <= 0 {
				if !trySendEvent(ctx, out, ev) {
					stopTimer()
					return
				}
				if ev.Type == EventTypeTextDelta {
					latest, sentBytes = ev.Text, len(ev.Text)
				}
				continue
			}

			latest = ev.Text
			now := time.Now()
			if lastSent.IsZero() || now.Sub(lastSent) >= interval {
				stopTimer()
				if !send(now) {
					return
				}
				continue
			}

			// Too soon: queue a trailing send.
			hasPending = true
			if timer == nil {
				timer = time.NewTimer(time.Until(lastSent.Add(interval)))
				timerC = timer.C
			}

		case <-timerC:
			timer, timerC = nil, nil
			if hasPending && !send(time.Now()) {
				return
			}
		}
	}
}
