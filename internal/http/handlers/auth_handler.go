// Account HTTP handlers.
//
// This file exposes:
//   - POST /register
//   - POST /login
//
// Both answer 200 with {success, message} for every business outcome,
// including validation failures and wrong credentials.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRequest is the JSON payload for POST /register.
type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@arabou.edu.sa"`
	Password string `json:"password" example:"s3cret"`
}

// LoginRequest is the JSON payload for POST /login.
type LoginRequest struct {
	Email    string `json:"email" example:"alice@arabou.edu.sa"`
	Password string `json:"password" example:"s3cret"`
}

// bindJSON decodes the body into dst. An empty body leaves dst zeroed so the
// service reports the missing fields; anything else that fails to decode is
// answered with 400 and false is returned.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Stores a new user. Duplicate username or email and missing fields answer success=false.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Account"
// @Success     200   {object}  handlers.SuccessResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed JSON"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: res.Success, Message: res.Message})
}

// Login godoc
// @ID          login
// @Summary     Check credentials
// @Description Unknown email and wrong password give the same answer.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.SuccessResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed JSON"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: res.Success, Message: res.Message})
}
