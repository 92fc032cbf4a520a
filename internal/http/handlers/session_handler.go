// Session HTTP handlers.
//
// This file exposes:
//   - POST   /session/title   (create-or-rename)
//   - DELETE /session         (cascade delete)
//   - GET    /history         (ordered turns, weak ETag)
//   - GET    /sessions        (summaries, weak ETag)
//
// Callers identify themselves by email. An unknown email or a missing
// session id is a business outcome: mutations answer {success:false} and
// reads answer an empty array.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/aoubot-backend/internal/services"
)

//
// DTOs
//

// SessionTitleRequest is the JSON payload for POST /session/title.
type SessionTitleRequest struct {
	Email     string `json:"email" example:"alice@arabou.edu.sa"`
	SessionID string `json:"session_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Title     string `json:"title" example:"Registration deadlines"`
}

// DeleteSessionRequest is the JSON payload for DELETE /session.
type DeleteSessionRequest struct {
	Email     string `json:"email" example:"alice@arabou.edu.sa"`
	SessionID string `json:"session_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// DeleteSessionResponse reports how many messages went with the session.
type DeleteSessionResponse struct {
	Success         bool  `json:"success" example:"true"`
	DeletedMessages int64 `json:"deleted_messages" example:"4"`
}

// SessionSummary is one entry of GET /sessions.
type SessionSummary struct {
	SessionID     string  `json:"session_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Title         *string `json:"title" example:"Registration deadlines"`
	MessagesCount int64   `json:"messages_count" example:"4"`
	// RFC 3339, UTC
	LastActivity string `json:"last_activity" example:"2025-03-01T10:04:05Z"`
}

func toSessionDTOs(in []services.SessionSummary) []SessionSummary {
	out := make([]SessionSummary, 0, len(in))
	for _, s := range in {
		out = append(out, SessionSummary{
			SessionID:     s.SessionID,
			Title:         s.Title,
			MessagesCount: s.MessagesCount,
			LastActivity:  s.LastActivity.UTC().Format(time.RFC3339),
		})
	}
	return out
}

//
// Handlers
//

// SetSessionTitle godoc
// @ID          setSessionTitle
// @Summary     Create or rename a session
// @Description Creates the session when needed and sets its title. Whitespace is collapsed; an empty title clears it.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.SessionTitleRequest  true  "Title"
// @Success     200   {object}  handlers.SuccessResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed JSON"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /session/title [post]
func (h *Handlers) SetSessionTitle(c *gin.Context) {
	var req SessionTitleRequest
	if !bindJSON(c, &req) {
		return
	}
	uid, err := h.userID(c, req.Email)
	if err != nil {
		internalError(c, err)
		return
	}
	done, err := h.sessionSvc.UpsertTitle(c.Request.Context(), uid, strings.TrimSpace(req.SessionID), req.Title)
	if err != nil {
		internalError(c, err)
		return
	}
	if !done {
		ok(c, http.StatusOK, SuccessResponse{Success: false, Message: services.MsgMissingSession})
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Delete a session
// @Description Removes the session and all of its messages. Deleting an absent session succeeds with 0.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.DeleteSessionRequest  true  "Session"
// @Success     200   {object}  handlers.DeleteSessionResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed JSON"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /session [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	var req DeleteSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	sid := strings.TrimSpace(req.SessionID)
	uid, err := h.userID(c, req.Email)
	if err != nil {
		internalError(c, err)
		return
	}
	if uid == 0 || sid == "" {
		ok(c, http.StatusOK, SuccessResponse{Success: false, Message: services.MsgMissingSession})
		return
	}
	n, err := h.sessionSvc.DeleteSession(c.Request.Context(), uid, sid)
	if err != nil {
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, DeleteSessionResponse{Success: true, DeletedMessages: n})
}

// History godoc
// @ID          history
// @Summary     Session history
// @Description Returns the turns of a session in creation order. Unknown email or missing session id gives []. Supports weak ETag via If-None-Match.
// @Tags        Sessions
// @Produce     json
// @Param       email          query   string  false  "User email"
// @Param       session_id     query   string  false  "Session id"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   services.HistoryItem
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /history [get]
func (h *Handlers) History(c *gin.Context) {
	ctx := c.Request.Context()
	sid := strings.TrimSpace(c.Query("session_id"))
	uid, err := h.userID(c, c.Query("email"))
	if err != nil {
		internalError(c, err)
		return
	}
	if uid == 0 || sid == "" {
		ok(c, http.StatusOK, []services.HistoryItem{})
		return
	}

	etag, err := h.sessionSvc.HistoryETag(ctx, uid, sid)
	if err != nil {
		internalError(c, err)
		return
	}
	if notModified(c, etag) {
		return
	}

	items, err := h.sessionSvc.History(ctx, uid, sid)
	if err != nil {
		internalError(c, err)
		return
	}
	if items == nil {
		items = []services.HistoryItem{}
	}
	ok(c, http.StatusOK, items)
}

// Sessions godoc
// @ID          sessions
// @Summary     List sessions
// @Description Returns every session of the user, most recently active first. Unknown email gives []. Supports weak ETag via If-None-Match.
// @Tags        Sessions
// @Produce     json
// @Param       email          query   string  false  "User email"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   handlers.SessionSummary
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions [get]
func (h *Handlers) Sessions(c *gin.Context) {
	ctx := c.Request.Context()
	uid, err := h.userID(c, c.Query("email"))
	if err != nil {
		internalError(c, err)
		return
	}
	if uid == 0 {
		ok(c, http.StatusOK, []SessionSummary{})
		return
	}

	etag, err := h.sessionSvc.SessionsETag(ctx, uid)
	if err != nil {
		internalError(c, err)
		return
	}
	if notModified(c, etag) {
		return
	}

	list, err := h.sessionSvc.Sessions(ctx, uid)
	if err != nil {
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, toSessionDTOs(list))
}
