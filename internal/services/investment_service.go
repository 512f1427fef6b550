// Package services – InvestmentService
//
// This file implements the InvestmentService, which governs the pledge
// workflow: creation with the initial-status policy (large pledges enter a
// due-diligence queue), owner-scoped listings, the inbound view for founders,
// and the due-diligence submission that moves a pledge into review.
//
// Service-level errors (ErrInvalidAmount, ErrInvestmentNotFound,
// ErrForbidden, ErrPostNotFound) are returned for predictable cases so
// handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mahmoudomarus/chipn/internal/domain"
)

// DueDiligenceThreshold is the amount, in currency units, above which a new
// investment starts in pending_diligence instead of approved. The boundary
// is exclusive: a pledge of exactly the threshold is approved outright.
const DueDiligenceThreshold = 10000

// InitialStatus maps an investment amount to its initial workflow status.
// It is a pure decision function with no external dependency.
func InitialStatus(amount float64) string {
	if amount > DueDiligenceThreshold {
		return domain.StatusPendingDiligence
	}
	return domain.StatusApproved
}

// InvestmentRepo defines the repository contract required by InvestmentService.
type InvestmentRepo interface {
	// CreateInvestment inserts a new investment row.
	CreateInvestment(ctx context.Context, db *gorm.DB, inv *domain.Investment) (*domain.Investment, error)

	// ListInvestmentsByInvestor returns an investor's pledges newest-first.
	ListInvestmentsByInvestor(ctx context.Context, db *gorm.DB, investorID string) ([]domain.Investment, error)

	// ListInvestmentsForPosts returns pledges into any of the given posts.
	ListInvestmentsForPosts(ctx context.Context, db *gorm.DB, postIDs []string) ([]domain.Investment, error)

	// GetInvestment fetches an investment by ID.
	GetInvestment(ctx context.Context, db *gorm.DB, id string) (*domain.Investment, error)

	// SubmitDueDiligence persists review notes and the in_review transition.
	SubmitDueDiligence(ctx context.Context, db *gorm.DB, id, notes string) error
}

// InboundInvestment is an investment into one of the caller's posts,
// annotated with the post title for display.
type InboundInvestment struct {
	domain.Investment
	PostTitle string `json:"post_title"`
}

// InvestmentService implements the use-cases around pledges. It owns the
// initial-status policy and every ownership check on the investment side.
type InvestmentService struct {
	// DB is the database handle used for all investment operations.
	DB *gorm.DB
	// Repo is the investment repository used by this service.
	Repo InvestmentRepo
	// Posts resolves post existence and the caller's own posts for the
	// inbound view.
	Posts PostRepo
}

// Create records a pledge of amount against postID on behalf of investorID.
//
// Semantics and validation:
//   - investorID is the verified identity of the caller; any client-supplied
//     investor field has already been discarded at the transport layer.
//   - amount must be strictly positive; otherwise ErrInvalidAmount.
//   - postID must reference an existing post; otherwise ErrPostNotFound.
//   - The initial status follows InitialStatus: pending_diligence above the
//     threshold, approved at or below it, never both.
func (s *InvestmentService) Create(ctx context.Context, investorID, postID string, amount float64, docURL *string) (*domain.Investment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.Posts.GetPost(ctx, s.DB, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	inv := &domain.Investment{
		PostID:             postID,
		InvestorID:         investorID,
		Amount:             amount,
		DueDiligenceDocURL: docURL,
		Status:             InitialStatus(amount),
	}
	return s.Repo.CreateInvestment(ctx, s.DB, inv)
}

// ListMine returns the pledges of investorID, but only when the caller is
// that investor. The redundant-looking parameter pair mirrors the API
// contract: clients pass investor_id explicitly and the server verifies it
// against the token identity rather than silently substituting it.
func (s *InvestmentService) ListMine(ctx context.Context, callerID, investorID string) ([]domain.Investment, error) {
	if err := AuthorizeOwner(investorID, callerID); err != nil {
		return nil, err
	}
	return s.Repo.ListInvestmentsByInvestor(ctx, s.DB, investorID)
}

// ListInbound returns all pledges made into the caller's posts, newest-first,
// each annotated with the funded post's title.
func (s *InvestmentService) ListInbound(ctx context.Context, callerID string) ([]InboundInvestment, error) {
	posts, err := s.Posts.ListPosts(ctx, s.DB, callerID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []InboundInvestment{}, nil
	}

	postIDs := make([]string, len(posts))
	titles := make(map[string]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		titles[p.ID] = p.Title
	}

	invs, err := s.Repo.ListInvestmentsForPosts(ctx, s.DB, postIDs)
	if err != nil {
		return nil, err
	}

	out := make([]InboundInvestment, len(invs))
	for i, inv := range invs {
		out[i] = InboundInvestment{Investment: inv, PostTitle: titles[inv.PostID]}
	}
	return out, nil
}

// SubmitDueDiligence attaches review notes to an investment and moves it to
// in_review.
//
// Semantics:
//   - The investment must exist; otherwise ErrInvestmentNotFound.
//   - The caller must be the investor of record; otherwise ErrForbidden, and
//     the stored status is left untouched.
//   - The previous status is not consulted before the transition: an already
//     approved pledge resubmitted here lands back in in_review. That matches
//     the historical behavior; see DESIGN.md for the open question.
func (s *InvestmentService) SubmitDueDiligence(ctx context.Context, callerID, investmentID, notes string) error {
	inv, err := s.Repo.GetInvestment(ctx, s.DB, investmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvestmentNotFound
		}
		return err
	}
	if err := AuthorizeOwner(inv.InvestorID, callerID); err != nil {
		return err
	}
	return s.Repo.SubmitDueDiligence(ctx, s.DB, investmentID, notes)
}
