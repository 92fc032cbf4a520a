package llm

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestToGeminiChat_SplitsSystemHistoryAndPrompt(t *testing.T) {
	system, history, last, err := toGeminiChat([]Message{
		{Role: RoleSystem, Content: "Answer from the text."},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "fees?"},
	})
	if err != nil {
		t.Fatalf("toGeminiChat: %v", err)
	}
	if system != "Answer from the text." || last != "fees?" {
		t.Fatalf("system=%q last=%q", system, last)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "model" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if txt, ok := history[1].Parts[0].(genai.Text); !ok || string(txt) != "hello" {
		t.Fatalf("unexpected history part: %#v", history[1].Parts[0])
	}
}

func TestToGeminiChat_RequiresFinalUserTurn(t *testing.T) {
	if _, _, _, err := toGeminiChat([]Message{{Role: RoleSystem, Content: "s"}}); err == nil {
		t.Fatalf("expected error without user turn")
	}
	if _, _, _, err := toGeminiChat([]Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "a"}}); err == nil {
		t.Fatalf("expected error when last turn is not from the user")
	}
}

func TestGeminiText(t *testing.T) {
	if _, err := geminiText(nil); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("nil response: %v", err)
	}
	if _, err := geminiText(&genai.GenerateContentResponse{}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("no candidates: %v", err)
	}

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(" Fees are "), genai.Text("due in May. ")}},
	}}}
	got, err := geminiText(resp)
	if err != nil || got != "Fees are due in May." {
		t.Fatalf("geminiText = %q, %v", got, err)
	}

	blank := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}},
	}}}
	if _, err := geminiText(blank); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("blank text: %v", err)
	}
}
