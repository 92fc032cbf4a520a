// Package llm contains the completion providers used by the chat endpoint.
//
// A Provider turns an ordered list of role-tagged messages into a single
// assistant answer. Two implementations exist: OpenAI Chat Completions over
// HTTPS and Google Gemini through the generative-ai-go SDK. New picks one
// from configuration and wraps it with tracing and Prometheus metrics.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/aoubot-backend/internal/config"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the prompt sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider produces a completion for an ordered prompt.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Complete returns the assistant answer for msgs.
	Complete(ctx context.Context, msgs []Message, temperature float64) (string, error)
}

// ErrNotConfigured is returned by Complete when the provider has no API key.
var ErrNotConfigured = errors.New("completion provider is not configured")

// ErrEmptyCompletion is returned when the provider answered without text.
var ErrEmptyCompletion = errors.New("completion provider returned no answer")

// New builds the provider selected by cfg.Provider. A missing API key is not
// an error here: the returned provider fails every call with
// ErrNotConfigured so the service can still start.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	var p Provider
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiKey == "" {
			p = unconfigured{name: "gemini", env: "GEMINI_API_KEY"}
			break
		}
		g, err := NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		p = g
	case "openai", "":
		if cfg.OpenAIKey == "" {
			p = unconfigured{name: "openai", env: "OPENAI_API_KEY"}
			break
		}
		p = NewOpenAI(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
	return Instrument(p), nil
}

// Configured reports whether p can reach a real backend.
func Configured(p Provider) bool {
	if in, ok := p.(*instrumented); ok {
		p = in.next
	}
	_, missing := p.(unconfigured)
	return !missing
}

type unconfigured struct {
	name string
	env  string
}

func (u unconfigured) Name() string { return u.name }

func (u unconfigured) Complete(context.Context, []Message, float64) (string, error) {
	return "", fmt.Errorf("%w: set %s", ErrNotConfigured, u.env)
}

// Instrument wraps p with an OpenTelemetry span and Prometheus metrics per
// call. Close is forwarded when p implements io.Closer.
func Instrument(p Provider) Provider {
	if _, ok := p.(*instrumented); ok {
		return p
	}
	return &instrumented{next: p}
}

type instrumented struct {
	next Provider
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Complete(ctx context.Context, msgs []Message, temperature float64) (string, error) {
	name := i.next.Name()
	tr := otel.Tracer("llm/Provider")
	ctx, span := tr.Start(ctx, "Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", name),
			attribute.Int("llm.messages", len(msgs)),
			attribute.Float64("llm.temperature", temperature),
		),
	)
	defer span.End()

	start := time.Now()
	out, err := i.next.Complete(ctx, msgs, temperature)
	llmLat.WithLabelValues(name).Observe(time.Since(start).Seconds())
	llmReqs.WithLabelValues(name, outcome(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.answer_len", len(out)))
	return out, nil
}

func (i *instrumented) Close() error {
	if c, ok := i.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
