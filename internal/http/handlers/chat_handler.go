// Chat HTTP handler.
//
// POST /chat always answers 200 unless storage fails. Provider failures come
// back inside the body with a dedicated error field. A repeated
// Idempotency-Key from a known user replays the stored answer and sets the
// Idempotent-Replayed header.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aoubot-backend/internal/http/middleware"
	"github.com/tbourn/aoubot-backend/internal/services"
)

// ChatRequest is the JSON payload for POST /chat.
type ChatRequest struct {
	Message   string                 `json:"message" example:"When does registration open?"`
	History   []services.HistoryItem `json:"history"`
	Email     string                 `json:"email" example:"alice@arabou.edu.sa"`
	SessionID string                 `json:"session_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// ChatResponse carries the answer. SessionID is omitted for an empty
// question; Error is set only when the provider failed.
type ChatResponse struct {
	Answer    string `json:"answer" example:"Registration opens on 1 September."`
	SessionID string `json:"session_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Error     string `json:"error,omitempty" example:""`
}

// Chat godoc
// @ID          chat
// @Summary     Ask the assistant
// @Description Answers from the knowledge file. Known users get the exchange stored under session_id (a new one is issued when absent).
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Replays the stored answer for a repeated key"
// @Param       body             body    handlers.ChatRequest  true  "Question"
// @Success     200  {object}  handlers.ChatResponse
// @Header      200  {string}  Idempotent-Replayed  "true when served from a stored answer"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid Idempotency-Key"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	req := bindChatRequest(c)
	key, _ := middleware.GetIdempotencyKey(c)

	rep, err := h.chatSvc.Ask(c.Request.Context(), services.AskInput{
		Message:        req.Message,
		History:        req.History,
		Email:          req.Email,
		SessionID:      req.SessionID,
		IdempotencyKey: key,
	})
	if err != nil {
		internalError(c, err)
		return
	}

	switch {
	case rep.Replayed:
		middleware.MarkReplayed(c)
		middleware.ObserveChat(middleware.ChatReplayed)
	case rep.Error != "":
		middleware.ObserveChat(middleware.ChatProviderError)
	case rep.SessionID == "":
		middleware.ObserveChat(middleware.ChatEmptyQuestion)
	default:
		middleware.ObserveChat(middleware.ChatAnswered)
	}

	ok(c, http.StatusOK, ChatResponse{Answer: rep.Answer, SessionID: rep.SessionID, Error: rep.Error})
}

// bindChatRequest decodes the body field by field. A field of the wrong JSON
// type reads as empty and a malformed history item is dropped; only an empty
// or unparsable body yields the zero request.
func bindChatRequest(c *gin.Context) ChatRequest {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		return ChatRequest{}
	}
	req := ChatRequest{
		Message:   jsonString(fields["message"]),
		Email:     jsonString(fields["email"]),
		SessionID: jsonString(fields["session_id"]),
	}
	var items []json.RawMessage
	if json.Unmarshal(fields["history"], &items) != nil {
		return req
	}
	for _, raw := range items {
		var it map[string]json.RawMessage
		if json.Unmarshal(raw, &it) != nil || it == nil {
			continue
		}
		req.History = append(req.History, services.HistoryItem{
			Role: jsonString(it["role"]),
			Text: jsonString(it["text"]),
		})
	}
	return req
}

// jsonString returns v as a string when it is a JSON string and "" otherwise.
func jsonString(v json.RawMessage) string {
	var s string
	if json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}
