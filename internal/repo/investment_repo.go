// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Investment
// model.
//
// Error semantics mirror post_repo.go: missing rows surface as ErrNotFound,
// everything else propagates the raw gorm error.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahmoudomarus/chipn/internal/domain"
)

// CreateInvestment inserts a new Investment row. The ID is a randomly
// generated UUID and CreatedAt is set to UTC. InvestorID and Status must
// already be decided by the service layer (identity substitution and the
// initial-status policy are business rules, not persistence concerns).
func CreateInvestment(ctx context.Context, db *gorm.DB, inv *domain.Investment) (*domain.Investment, error) {
	inv.ID = uuid.NewString()
	inv.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvestmentsByInvestor returns all investments made by investorID,
// ordered by creation time descending. It returns an empty slice when the
// investor has none.
func ListInvestmentsByInvestor(ctx context.Context, db *gorm.DB, investorID string) ([]domain.Investment, error) {
	var out []domain.Investment
	err := db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListInvestmentsForPosts returns all investments made into any of the given
// posts, ordered by creation time descending. An empty postIDs slice yields
// an empty result without touching the database.
func ListInvestmentsForPosts(ctx context.Context, db *gorm.DB, postIDs []string) ([]domain.Investment, error) {
	if len(postIDs) == 0 {
		return []domain.Investment{}, nil
	}
	var out []domain.Investment
	err := db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetInvestment fetches a single investment by its ID. If the record does
// not exist, it returns ErrNotFound.
func GetInvestment(ctx context.Context, db *gorm.DB, id string) (*domain.Investment, error) {
	var inv domain.Investment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// SubmitDueDiligence attaches review notes to an investment and moves it to
// the in_review status. The caller is responsible for the ownership check;
// this function only persists the transition. If no row matches the id,
// it returns ErrNotFound.
func SubmitDueDiligence(ctx context.Context, db *gorm.DB, id, notes string) error {
	res := db.WithContext(ctx).
		Model(&domain.Investment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"due_diligence_doc_url": notes,
			"status":                domain.StatusInReview,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
