package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini answers through Google's Gemini models. System messages become the
// model's system instruction; earlier turns are replayed as chat history and
// the final user turn is sent with SendMessage.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini client authenticated with apiKey. An empty
// model defaults to gemini-1.5-flash-latest.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(model) == "" {
		model = "gemini-1.5-flash-latest"
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: c, model: model}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

// Close releases the underlying client.
func (g *Gemini) Close() error { return g.client.Close() }

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, msgs []Message, temperature float64) (string, error) {
	system, history, last, err := toGeminiChat(msgs)
	if err != nil {
		return "", err
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(float32(temperature))
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini SendMessage failed: %w", err)
	}
	return geminiText(resp)
}

// toGeminiChat splits msgs into a system instruction, prior history and the
// final user prompt. Gemini names the assistant role "model".
func toGeminiChat(msgs []Message) (system string, history []*genai.Content, last string, err error) {
	var sys []string
	turns := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != RoleUser {
		return "", nil, "", errors.New("gemini: prompt must end with a user message")
	}

	history = make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role != RoleUser {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return strings.Join(sys, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyCompletion
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
