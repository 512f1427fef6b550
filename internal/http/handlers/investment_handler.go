// Investment HTTP handlers.
//
// This file exposes REST endpoints for the investment workflow:
//   - POST /investments                          (create; status set server-side)
//   - GET  /investments                          (caller's own investments)
//   - GET  /investments/inbound                  (investments received on caller's posts)
//   - POST /investments/{id}/due-diligence       (attach diligence notes)
//
// The investor identity is always the authenticated subject. Amounts above the
// diligence threshold enter the review pipeline automatically; clients never
// choose an investment's status.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//
// DTOs
//

// CreateInvestmentRequest is the JSON payload for recording an investment.
// The investor is always the authenticated subject; any investor field in the
// body is ignored by construction.
type CreateInvestmentRequest struct {
	// PostID identifies the post being invested in.
	PostID string `json:"post_id" binding:"required" format:"uuid"`
	// Amount is the invested sum; must be greater than zero.
	Amount float64 `json:"amount" binding:"required" example:"2500"`
	// DueDiligenceDocURL optionally links supporting documentation.
	DueDiligenceDocURL *string `json:"due_diligence_doc_url,omitempty"`
}

// DueDiligenceRequest is the JSON payload for submitting diligence notes.
type DueDiligenceRequest struct {
	// Notes holds the diligence findings (required, non-blank).
	Notes string `json:"notes" binding:"required"`
}

//
// Handlers
//

// CreateInvestment godoc
// @ID          createInvestment
// @Summary     Record an investment
// @Description Records an investment by the current user. Amounts above the diligence threshold start as pending_diligence; all others are approved.
// @Tags        Investments
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       body           body    handlers.CreateInvestmentRequest  true  "Create investment payload"
//
// @Success     201  {object}  domain.Investment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Upstream unavailable"
// @Router      /investments [post]
func (h *Handlers) CreateInvestment(c *gin.Context) {
	sub, okID := identity(c)
	if !okID {
		return
	}

	var req CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	inv, err := h.invSvc.Create(c.Request.Context(), sub, req.PostID, req.Amount, req.DueDiligenceDocURL)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, inv)
}

// ListInvestments godoc
// @ID          listInvestments
// @Summary     List my investments
// @Description Returns the investments made by the current user, newest first. An investor_id query naming anyone else is rejected.
// @Tags        Investments
// @Produce     json
//
// @Param       Authorization  header  string  true   "Bearer token"
// @Param       investor_id    query   string  false  "Must equal the authenticated subject when present"
//
// @Success     200  {array}  domain.Investment
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /investments [get]
func (h *Handlers) ListInvestments(c *gin.Context) {
	sub, okID := identity(c)
	if !okID {
		return
	}

	investorID := strings.TrimSpace(c.Query("investor_id"))
	if investorID == "" {
		investorID = sub
	}

	items, err := h.invSvc.ListMine(c.Request.Context(), sub, investorID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// ListInboundInvestments godoc
// @ID          listInboundInvestments
// @Summary     List inbound investments
// @Description Returns investments received across all posts authored by the current user, annotated with the post title.
// @Tags        Investments
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
//
// @Success     200  {array}  services.InboundInvestment
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /investments/inbound [get]
func (h *Handlers) ListInboundInvestments(c *gin.Context) {
	sub, okID := identity(c)
	if !okID {
		return
	}

	items, err := h.invSvc.ListInbound(c.Request.Context(), sub)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// SubmitDueDiligence godoc
// @ID          submitDueDiligence
// @Summary     Submit due diligence
// @Description Attaches diligence notes to an investment made by the current user and moves it to in_review.
// @Tags        Investments
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    string  true  "Investment ID (UUID)"  format(uuid)
// @Param       body           body    handlers.DueDiligenceRequest  true  "Diligence notes"
//
// @Success     200  {object} map[string]string
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     404  {object} handlers.ErrorResponse "Investment not found"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /investments/{id}/due-diligence [post]
func (h *Handlers) SubmitDueDiligence(c *gin.Context) {
	sub, okID := identity(c)
	if !okID {
		return
	}

	var req DueDiligenceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Notes) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "notes required")
		return
	}

	id := c.Param("id")
	if err := h.invSvc.SubmitDueDiligence(c.Request.Context(), sub, id, req.Notes); err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"investment_id": id, "status": "in_review"})
}
