package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IndexText is the body of GET /.
const IndexText = "AOU Support Chatbot backend is running."

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Health
// @Produce     plain
// @Success     200  {string}  string  "ok"
// @Router      /health [get]
func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Index godoc
// @ID          index
// @Summary     Service banner
// @Tags        Health
// @Produce     plain
// @Success     200  {string}  string  "AOU Support Chatbot backend is running."
// @Router      / [get]
func Index(c *gin.Context) {
	c.String(http.StatusOK, IndexText)
}
