// Feed and search HTTP handlers.
//
// This file exposes the public discovery endpoints:
//   - GET /feed    (cursor-paginated recent posts; auth optional)
//   - GET /search  (substring match, optionally deep-ranked)
//
// Both endpoints are readable without authentication; when a bearer token is
// presented it must still be valid, and the viewer identity is logged for
// audit purposes.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mahmoudomarus/chipn/internal/domain"
	"github.com/mahmoudomarus/chipn/internal/http/middleware"
	"github.com/mahmoudomarus/chipn/internal/utils"
)

// FeedResponse wraps one cursor page of the feed. NextCursor is null on the
// last page.
type FeedResponse struct {
	Items      []domain.Post `json:"items"`
	NextCursor *int          `json:"next_cursor"`
}

// SearchResponse carries search hits plus the echo of the query.
type SearchResponse struct {
	Query   string        `json:"query"`
	Results []domain.Post `json:"results"`
}

// GetFeed godoc
// @ID          getFeed
// @Summary     Read the feed
// @Description Returns a cursor page of recent posts, newest first. Pass the returned next_cursor to fetch the following page.
// @Tags        Feed
// @Produce     json
//
// @Param       cursor  query  int  false  "Offset cursor from a prior page"  minimum(0) default(0)
//
// @Success     200  {object} handlers.FeedResponse
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /feed [get]
func (h *Handlers) GetFeed(c *gin.Context) {
	cursor := utils.AtoiDefault(c.Query("cursor"), 0)

	if viewer, found := middleware.IdentityFrom(c); found {
		middleware.LoggerFrom(c).Debug().Str("viewer", viewer).Msg("feed read")
	}

	page, err := h.postSvc.Feed(c.Request.Context(), cursor)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, FeedResponse{Items: page.Items, NextCursor: page.NextCursor})
}

// SearchPosts godoc
// @ID          searchPosts
// @Summary     Search posts
// @Description Case-insensitive substring match over titles and descriptions. With deep=true, results are re-ranked by term overlap.
// @Tags        Search
// @Produce     json
//
// @Param       q     query  string  true   "Search query"
// @Param       deep  query  bool    false  "Re-rank results by relevance"  default(false)
//
// @Success     200  {object} handlers.SearchResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     503  {object} handlers.ErrorResponse "Upstream unavailable"
// @Router      /search [get]
func (h *Handlers) SearchPosts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	deep := c.Query("deep") == "true"

	results, err := h.postSvc.Search(c.Request.Context(), q, deep)
	if err != nil {
		failService(c, err)
		return
	}
	if results == nil {
		results = []domain.Post{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Results: results})
}
