// Package services – ChatService
//
// This file implements the conversation orchestrator behind POST /chat. It
// builds the prompt (grounding text, prior turns, the new question), calls
// the configured completion provider and stores the exchange for known
// users. A repeated Idempotency-Key for the same user and session replays
// the stored answer without calling the provider again.
//
// Provider failures are not errors of Ask: they are reported inside Reply so
// the HTTP layer can still answer 200. Storage failures are returned.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/aoubot-backend/internal/domain"
	"github.com/tbourn/aoubot-backend/internal/knowledge"
	"github.com/tbourn/aoubot-backend/internal/llm"
	"github.com/tbourn/aoubot-backend/internal/repo"
)

// DefaultInstruction opens the system message; the grounding text follows
// after a blank line.
const DefaultInstruction = "You are an intelligent academic assistant for the Arab Open University. " +
	"Answer only based on the following text. " +
	"If no relevant information is found, reply with: " +
	"'Sorry, there is no available information about this question.'"

// DefaultTemperature favors grounded answers.
const DefaultTemperature = 0.4

// KnowledgeSource supplies the grounding text for a question.
type KnowledgeSource interface {
	ForQuestion(question string) knowledge.Document
}

// AskInput is one /chat request.
type AskInput struct {
	Message        string
	History        []HistoryItem
	Email          string
	SessionID      string
	IdempotencyKey string
}

// Reply is the outcome of Ask. Error is set when the provider failed; Answer
// then carries a readable description of the failure.
type Reply struct {
	Answer    string
	SessionID string
	Error     string
	Replayed  bool
}

// ChatService answers questions through an llm.Provider.
type ChatService struct {
	DB        *gorm.DB
	Provider  llm.Provider
	Knowledge KnowledgeSource

	// Sessions stores the exchange; nil means NewSessionService(DB).
	Sessions *SessionService

	Instruction    string
	Temperature    float64
	IdempotencyTTL time.Duration

	// Now is used for idempotency expiry checks; defaults to time.Now.
	Now func() time.Time
}

// NewChatService returns a ChatService with the default instruction,
// temperature and a 24h idempotency window.
func NewChatService(db *gorm.DB, p llm.Provider, k KnowledgeSource) *ChatService {
	return &ChatService{
		DB:             db,
		Provider:       p,
		Knowledge:      k,
		Sessions:       NewSessionService(db),
		Instruction:    DefaultInstruction,
		Temperature:    DefaultTemperature,
		IdempotencyTTL: 24 * time.Hour,
		Now:            time.Now,
	}
}

// Ask answers in.Message. An empty message short-circuits without a session
// id. A missing session id is replaced by a new UUID.
func (s *ChatService) Ask(ctx context.Context, in AskInput) (Reply, error) {
	question := strings.TrimSpace(in.Message)
	if question == "" {
		return Reply{Answer: MsgEmptyQuestion}, nil
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	key := strings.TrimSpace(in.IdempotencyKey)

	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Ask",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int("history.len", len(in.History)),
			attribute.Bool("idempotency.key", key != ""),
		),
	)
	defer span.End()

	var userID uint
	if email := strings.TrimSpace(in.Email); email != "" {
		id, err := repo.UserIDByEmail(ctx, s.DB, email)
		if err != nil {
			return Reply{}, err
		}
		userID = id
	}
	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	if userID != 0 && key != "" {
		answer, ok, err := s.replay(ctx, userID, sessionID, key)
		if err != nil {
			return Reply{}, err
		}
		if ok {
			span.SetAttributes(attribute.Bool("idempotency.replayed", true))
			return Reply{Answer: answer, SessionID: sessionID, Replayed: true}, nil
		}
	}

	answer, err := s.Provider.Complete(ctx, s.prompt(question, in.History), s.Temperature)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		log.Warn().Err(err).Str("provider", s.Provider.Name()).Msg("completion failed")
		return Reply{
			Answer:    "Error during processing: " + err.Error(),
			SessionID: sessionID,
			Error:     err.Error(),
		}, nil
	}

	if userID != 0 {
		if err := s.persist(ctx, userID, sessionID, question, answer, key); err != nil {
			span.RecordError(err)
			return Reply{}, err
		}
	}
	return Reply{Answer: answer, SessionID: sessionID}, nil
}

// prompt assembles the provider messages: system, prior turns, question.
// History roles other than "user" become "assistant"; empty turns are
// dropped.
func (s *ChatService) prompt(question string, history []HistoryItem) []llm.Message {
	doc := s.Knowledge.ForQuestion(question)
	instruction := s.Instruction
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: instruction + "\n\n" + doc.Text})
	for _, h := range history {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		role := llm.RoleAssistant
		if domain.NormalizeRole(h.Role) == domain.RoleUser {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Text})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
}

// persist stores the question, the answer and, when key is set, the
// idempotency record in one transaction. Blank texts are skipped the same way
// SaveMessage skips them; without a stored answer there is nothing to replay.
func (s *ChatService) persist(ctx context.Context, userID uint, sessionID, question, answer, key string) error {
	store := s.Sessions
	if store == nil {
		store = NewSessionService(s.DB)
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := store.saveMessage(ctx, tx, userID, sessionID, domain.RoleUser, question); err != nil {
			return err
		}
		reply, err := store.saveMessage(ctx, tx, userID, sessionID, domain.RoleAssistant, answer)
		if err != nil {
			return err
		}
		if reply == nil || key == "" {
			return nil
		}
		_, err = repo.CreateIdempotency(ctx, tx, userID, sessionID, key, reply.ID, s.IdempotencyTTL)
		if errors.Is(err, repo.ErrDuplicate) {
			// A concurrent request with the same key won; keep both exchanges.
			log.Debug().Str("session_id", sessionID).Msg("idempotency key already recorded")
			return nil
		}
		return err
	})
}

// replay returns the stored answer for a live idempotency record.
func (s *ChatService) replay(ctx context.Context, userID uint, sessionID, key string) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, sessionID, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	m, err := repo.GetMessage(ctx, s.DB, rec.MessageID)
	if errors.Is(err, repo.ErrNotFound) {
		// Session deleted since; answer afresh.
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Message, true, nil
}

// PurgeIdempotency removes expired idempotency records.
func (s *ChatService) PurgeIdempotency(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
}

func (s *ChatService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
