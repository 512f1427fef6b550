// Identity verification HTTP handler.
//
// Exposes POST /auth/verify-id, a placeholder for document-based identity
// verification. The endpoint accepts a submission and acknowledges it; no
// verification pipeline is attached yet.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VerifyIDResponse acknowledges an identity verification submission.
type VerifyIDResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VerifyID godoc
// @ID          verifyID
// @Summary     Submit identity verification
// @Description Accepts an identity verification submission for the current user. Verification is not yet processed.
// @Tags        Auth
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
//
// @Success     202  {object} handlers.VerifyIDResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /auth/verify-id [post]
func (h *Handlers) VerifyID(c *gin.Context) {
	if _, okID := identity(c); !okID {
		return
	}
	ok(c, http.StatusAccepted, VerifyIDResponse{
		Status:  "received",
		Message: "identity verification submitted",
	})
}
