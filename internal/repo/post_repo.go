// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Post model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a post is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahmoudomarus/chipn/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePost inserts a new Post row. The post ID is a randomly generated
// UUID (string) and CreatedAt is set to UTC; both overwrite whatever the
// caller supplied. AuthorID must already carry the verified identity;
// the repository trusts the service layer on that.
//
// On success, it returns the persisted Post. On failure, it returns a DB error.
func CreatePost(ctx context.Context, db *gorm.DB, p *domain.Post) (*domain.Post, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	if p.Status == "" {
		p.Status = "active"
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns posts ordered by creation time descending (most recent
// first), optionally filtered to a single author. authorID == "" disables
// the filter. It returns an empty slice when nothing matches.
func ListPosts(ctx context.Context, db *gorm.DB, authorID string) ([]domain.Post, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if authorID != "" {
		q = q.Where("author_id = ?", authorID)
	}
	var out []domain.Post
	err := q.Find(&out).Error
	return out, err
}

// ListPostsPage returns a range-paginated slice of posts, ordered by creation
// time descending. offset is a row offset (the feed cursor), not a page
// number. On DB error, it returns the error.
func ListPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Post, error) {
	var out []domain.Post
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetPost fetches a single post by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// BoostPost increments a post's boost counter and returns the updated row.
//
// The increment runs as a single UPDATE with a SQL expression, so concurrent
// boosts against the same post never lose updates. If the post does not
// exist, BoostPost returns ErrNotFound.
func BoostPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	res := db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", id).
		UpdateColumn("boost_count", gorm.Expr("boost_count + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetPost(ctx, db, id)
}

// SearchPosts returns posts whose title or description contains the query,
// case-insensitively (ilike-style), ordered by creation time descending and
// capped at limit rows. An empty query matches nothing.
func SearchPosts(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Post{}, nil
	}
	pattern := "%" + strings.ToLower(query) + "%"
	var out []domain.Post
	err := db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
