// Package services – PostService
//
// This file implements the PostService, which manages the lifecycle of posts:
// creation (with server-side author substitution), listing, single fetch,
// boosting, the public feed, and search. Validation of the type enum and
// required text fields happens here so handlers can stay transport-thin.
//
// Service-level errors (e.g., ErrPostNotFound, ErrInvalidPostType) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mahmoudomarus/chipn/internal/domain"
	"github.com/mahmoudomarus/chipn/internal/search"
)

// PostRepo defines the repository contract required by PostService.
// Implementations are responsible for persistence of post aggregates.
type PostRepo interface {
	// CreatePost inserts a new post row (ID and CreatedAt are assigned there).
	CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) (*domain.Post, error)

	// ListPosts returns posts newest-first, optionally filtered by author.
	ListPosts(ctx context.Context, db *gorm.DB, authorID string) ([]domain.Post, error)

	// ListPostsPage returns a range-paginated slice of posts newest-first.
	ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error)

	// GetPost fetches a post by ID.
	GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error)

	// BoostPost atomically increments a post's boost counter.
	BoostPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error)

	// SearchPosts returns posts matching the query ilike-style.
	SearchPosts(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Post, error)
}

// NewPost carries the client-controlled fields for post creation. The author
// is deliberately absent: it always comes from the verified identity.
type NewPost struct {
	Type        string
	Title       string
	Description string
	Content     *string
	AISummary   *string
	VideoURL    *string
	DeckURL     *string
	ProductURL  *string
}

// FeedPage is one page of the public feed. NextCursor is nil on the last page.
type FeedPage struct {
	Items      []domain.Post `json:"items"`
	NextCursor *int          `json:"next_cursor"`
}

// PostService provides post-level operations. It enforces the type enum,
// required-field rules, and owns the feed/search composition.
type PostService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the post repository used by this service.
	Repo PostRepo

	// FeedPageSize caps the number of items per feed page.
	FeedPageSize int
	// SearchLimit caps the number of rows returned by search.
	SearchLimit int
	// Ranker re-scores search candidates when a deep search is requested.
	Ranker *search.Ranker
}

// NewPostService constructs a PostService with sane defaults.
func NewPostService(db *gorm.DB, r PostRepo) *PostService {
	return &PostService{
		DB:           db,
		Repo:         r,
		FeedPageSize: 5,
		SearchLimit:  20,
		Ranker:       search.NewRanker(),
	}
}

// Create inserts a new post authored by authorID. The author identifier is
// taken from the verified identity; any author supplied by the client is
// ignored by construction, since NewPost cannot carry one.
func (s *PostService) Create(ctx context.Context, authorID string, in NewPost) (*domain.Post, error) {
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	switch typ {
	case domain.PostTypeIdea, domain.PostTypeProduct, domain.PostTypeRequest:
	default:
		return nil, ErrInvalidPostType
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, ErrEmptyDescription
	}

	p := &domain.Post{
		AuthorID:    authorID,
		Type:        typ,
		Title:       title,
		Description: desc,
		Content:     in.Content,
		AISummary:   in.AISummary,
		VideoURL:    in.VideoURL,
		DeckURL:     in.DeckURL,
		ProductURL:  in.ProductURL,
	}
	return s.Repo.CreatePost(ctx, s.DB, p)
}

// List returns posts newest-first, optionally filtered by author.
func (s *PostService) List(ctx context.Context, authorID string) ([]domain.Post, error) {
	return s.Repo.ListPosts(ctx, s.DB, authorID)
}

// Get fetches a single post by ID, mapping missing rows to ErrPostNotFound.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.Repo.GetPost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// Boost increments a post's boost counter and returns the updated post.
// The increment is atomic at the storage layer.
func (s *PostService) Boost(ctx context.Context, id string) (*domain.Post, error) {
	p, err := s.Repo.BoostPost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// Feed returns one page of the public feed starting at the given row cursor.
// When a full page comes back, NextCursor points at the next offset;
// otherwise it is nil, signalling the last page.
func (s *PostService) Feed(ctx context.Context, cursor int) (*FeedPage, error) {
	if cursor < 0 {
		cursor = 0
	}
	limit := s.FeedPageSize
	if limit <= 0 {
		limit = 5
	}

	items, err := s.Repo.ListPostsPage(ctx, s.DB, cursor, limit)
	if err != nil {
		return nil, err
	}

	page := &FeedPage{Items: items}
	if len(items) == limit {
		next := cursor + limit
		page.NextCursor = &next
	}
	return page, nil
}

// Search returns posts matching the query. The shallow path is an
// ilike-style substring match ordered newest-first. When deep is true, the
// candidates are re-ranked by token-set similarity against the query so that
// the best textual matches come first; candidates that share no vocabulary
// with the query are dropped.
func (s *PostService) Search(ctx context.Context, query string, deep bool) ([]domain.Post, error) {
	limit := s.SearchLimit
	if limit <= 0 {
		limit = 20
	}

	items, err := s.Repo.SearchPosts(ctx, s.DB, query, limit)
	if err != nil {
		return nil, err
	}
	if !deep || s.Ranker == nil || len(items) == 0 {
		return items, nil
	}

	docs := make([]search.Document, len(items))
	byID := make(map[string]domain.Post, len(items))
	for i, p := range items {
		docs[i] = search.Document{ID: p.ID, Text: p.Title + " " + p.Description}
		byID[p.ID] = p
	}

	ranked := s.Ranker.Rank(query, docs, limit)
	out := make([]domain.Post, 0, len(ranked))
	for _, m := range ranked {
		out = append(out, byID[m.ID])
	}
	return out, nil
}
