// Post HTTP handlers.
//
// This file exposes REST endpoints for post resources:
//   - POST   /posts               (create)
//   - GET    /posts               (list, optional author filter, ETag support)
//   - GET    /posts/{id}          (fetch one)
//   - POST   /posts/{id}/boost    (increment boost counter)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
// The authenticated subject is always taken from the verified token, never from
// the request body.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mahmoudomarus/chipn/internal/domain"
	"github.com/mahmoudomarus/chipn/internal/repo"
	"github.com/mahmoudomarus/chipn/internal/services"
)

//
// Service contracts (context-aware)
//

// PostService defines post lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PostService interface {
	// Create stores a new post authored by authorID.
	Create(ctx context.Context, authorID string, in services.NewPost) (*domain.Post, error)
	// List returns posts, optionally filtered to a single author.
	List(ctx context.Context, authorID string) ([]domain.Post, error)
	// Get fetches a single post by id.
	Get(ctx context.Context, id string) (*domain.Post, error)
	// Boost atomically increments a post's boost counter and returns the result.
	Boost(ctx context.Context, id string) (*domain.Post, error)
	// Feed returns a cursor page of recent posts.
	Feed(ctx context.Context, cursor int) (*services.FeedPage, error)
	// Search returns posts matching the query, optionally deep-ranked.
	Search(ctx context.Context, query string, deep bool) ([]domain.Post, error)
}

// InvestmentService defines investment workflow operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type InvestmentService interface {
	// Create records an investment by investorID into postID.
	Create(ctx context.Context, investorID, postID string, amount float64, docURL *string) (*domain.Investment, error)
	// ListMine returns investments made by investorID; callerID must match.
	ListMine(ctx context.Context, callerID, investorID string) ([]domain.Investment, error)
	// ListInbound returns investments received across the caller's posts.
	ListInbound(ctx context.Context, callerID string) ([]services.InboundInvestment, error)
	// SubmitDueDiligence attaches diligence notes to an investment the caller made.
	SubmitDueDiligence(ctx context.Context, callerID, investmentID, notes string) error
}

// PitchStore uploads pitch media to blob storage and returns serveable URLs.
type PitchStore interface {
	// UploadVideo stores a pitch video privately and returns a signed URL.
	UploadVideo(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error)
	// UploadDeck stores a pitch deck publicly and returns its public URL.
	UploadDeck(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error)
}

// Summarizer produces a short abstract for post content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for posts, investments, uploads, and
// summaries. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	postSvc PostService
	invSvc  InvestmentService
	store   PitchStore
	ai      Summarizer
}

// New constructs and returns a Handlers instance bound to the given services.
func New(postSvc PostService, invSvc InvestmentService, store PitchStore, ai Summarizer) *Handlers {
	return &Handlers{postSvc: postSvc, invSvc: invSvc, store: store, ai: ai}
}

//
// DTOs
//

// CreatePostRequest is the JSON payload for creating a post. The author is
// always the authenticated subject; any author field in the body is ignored
// by construction.
type CreatePostRequest struct {
	// Type is one of "idea", "product", or "request".
	Type string `json:"type" binding:"required" example:"idea"`
	// Title names the post (required, non-blank).
	Title string `json:"title" binding:"required" example:"Solar-powered delivery drones"`
	// Description summarizes the post (required, non-blank).
	Description string `json:"description" binding:"required" example:"Autonomous last-mile delivery without emissions"`
	// Content optionally carries the long-form body.
	Content *string `json:"content,omitempty"`
	// VideoURL optionally links a previously uploaded pitch video.
	VideoURL *string `json:"video_url,omitempty"`
	// DeckURL optionally links a previously uploaded pitch deck.
	DeckURL *string `json:"deck_url,omitempty"`
	// ProductURL optionally links a live product page.
	ProductURL *string `json:"product_url,omitempty"`
}

//
// Handlers
//

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Creates an idea, product, or request post authored by the current user.
// @Tags        Posts
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       body           body    handlers.CreatePostRequest  true  "Create post payload"
//
// @Success     201  {object}  domain.Post
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     503  {object}  handlers.ErrorResponse  "Upstream unavailable"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	sub, okID := identity(c)
	if !okID {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.postSvc.Create(c.Request.Context(), sub, services.NewPost{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		DeckURL:     req.DeckURL,
		ProductURL:  req.ProductURL,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListPosts godoc
// @ID          listPosts
// @Summary     List posts
// @Description Returns posts newest-first, optionally filtered by author. Supports weak ETag via If-None-Match.
// @Tags        Posts
// @Produce     json
//
// @Param       author_id      query   string  false "Filter to a single author"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {array}  domain.Post
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()
	authorID := strings.TrimSpace(c.Query("author_id"))

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.postSvc.(*services.PostService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.PostsStats(ctx, db, authorID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"posts:%s:%d:%d"`, authorID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.postSvc.List(ctx, authorID)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetPost godoc
// @ID          getPost
// @Summary     Fetch a post
// @Description Returns a single post by its identifier.
// @Tags        Posts
// @Produce     json
//
// @Param       id  path  string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Post
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	p, err := h.postSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// BoostPost godoc
// @ID          boostPost
// @Summary     Boost a post
// @Description Atomically increments the post's boost counter and returns the updated post.
// @Tags        Posts
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    string  true  "Post ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Post
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Post not found"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /posts/{id}/boost [post]
func (h *Handlers) BoostPost(c *gin.Context) {
	if _, okID := identity(c); !okID {
		return
	}
	p, err := h.postSvc.Boost(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
