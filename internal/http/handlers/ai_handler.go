// AI summary HTTP handler.
//
// Exposes POST /ai/summarize, which condenses post content into a short
// abstract. When the completion API is unreachable or unconfigured the
// service degrades to a local truncation summary rather than failing the
// request.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mahmoudomarus/chipn/internal/ai"
	"github.com/mahmoudomarus/chipn/internal/http/middleware"
)

// SummarizeRequest is the JSON payload for requesting a summary.
type SummarizeRequest struct {
	// Content is the text to summarize (required, non-blank).
	Content string `json:"content" binding:"required"`
}

// SummarizeResponse carries the generated summary.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// Summarize godoc
// @ID          summarize
// @Summary     Summarize content
// @Description Produces a short abstract of the given content. Falls back to a local truncation summary when the completion API is unavailable.
// @Tags        AI
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       body           body    handlers.SummarizeRequest  true  "Content to summarize"
//
// @Success     200  {object} handlers.SummarizeResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /ai/summarize [post]
func (h *Handlers) Summarize(c *gin.Context) {
	if _, okID := identity(c); !okID {
		return
	}

	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	summary, err := h.ai.Summarize(c.Request.Context(), req.Content)
	if err != nil {
		// Completion API failure is not fatal: serve the local fallback.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("summary fallback")
		summary = ai.FallbackSummary(req.Content)
	}
	ok(c, http.StatusOK, SummarizeResponse{Summary: summary})
}
