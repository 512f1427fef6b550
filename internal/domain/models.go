// Package domain defines the persistence models for posts and investments.
// These types are mapped with GORM and form the core data layer of the
// Chipn platform.
package domain

import (
	"time"
)

// Post type values accepted on creation.
const (
	PostTypeIdea    = "idea"
	PostTypeProduct = "product"
	PostTypeRequest = "request"
)

// Investment status values. An investment is created in exactly one of
// StatusApproved or StatusPendingDiligence depending on the amount, and
// moves to StatusInReview when due-diligence notes are submitted.
const (
	StatusApproved         = "approved"
	StatusPendingDiligence = "pending_diligence"
	StatusInReview         = "in_review"
)

// Post represents an idea, product, or funding request published by a user.
// The author is always the verified identity of the creator; it is never
// taken from client input.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - AuthorID: UUID of the authenticated author; indexed for profile queries.
//   - Type: one of "idea", "product", "request" (enforced by DB constraint).
//   - Title / Description: the pitch itself.
//   - Content: optional long-form body.
//   - AISummary: optional investor-facing summary produced by the AI endpoint.
//   - VideoURL / DeckURL / ProductURL: optional links to uploaded assets.
//   - Status: lifecycle marker, defaults to "active".
//   - BoostCount: monotonically non-decreasing visibility counter.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Post struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	AuthorID    string    `json:"author_id"   gorm:"type:char(36);not null;index:idx_author_posts"`
	Type        string    `json:"type"        gorm:"type:varchar(50);not null;check:type IN ('idea','product','request')"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Content     *string   `json:"content,omitempty"     gorm:"type:text"`
	AISummary   *string   `json:"ai_summary,omitempty"  gorm:"type:text"`
	VideoURL    *string   `json:"video_url,omitempty"   gorm:"type:text"`
	DeckURL     *string   `json:"deck_url,omitempty"    gorm:"type:text"`
	ProductURL  *string   `json:"product_url,omitempty" gorm:"type:text"`
	Status      string    `json:"status"      gorm:"type:varchar(50);not null;default:'active'"`
	BoostCount  int       `json:"boost_count" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"  gorm:"index:idx_posts_created"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// Investment represents a pledge by an investor against a post. The investor
// is always the verified identity of the caller. Large pledges (above the
// due-diligence threshold) start in "pending_diligence" instead of "approved".
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - PostID: foreign key to the funded post (indexed, cascade delete).
//   - InvestorID: UUID of the authenticated investor; indexed.
//   - Amount: pledge size in currency units; must be > 0.
//   - DueDiligenceDocURL: optional document reference or notes supplied for review.
//   - Status: "approved", "pending_diligence", or "in_review".
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - Post: FK association, ensures cascade delete/update.
type Investment struct {
	ID                 string    `json:"id"          gorm:"type:char(36);primaryKey"`
	PostID             string    `json:"post_id"     gorm:"type:char(36);not null;index"`
	InvestorID         string    `json:"investor_id" gorm:"type:char(36);not null;index:idx_investor_investments"`
	Amount             float64   `json:"amount"      gorm:"not null"`
	DueDiligenceDocURL *string   `json:"due_diligence_doc_url,omitempty" gorm:"type:text"`
	Status             string    `json:"status"      gorm:"type:varchar(50);not null"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Post is the funded post. Investments are cascade-deleted if the
	// underlying post is removed.
	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Investment.
func (Investment) TableName() string { return "investments" }
