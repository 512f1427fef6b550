// Package services defines the business logic for posts and investments.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Post-related errors.
var (
	// ErrPostNotFound indicates that the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidPostType is returned when a post's type is outside the
	// allowed set (idea, product, request).
	ErrInvalidPostType = errors.New("post type must be idea, product, or request")

	// ErrEmptyTitle is returned when a request to create a post carries an
	// empty title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrEmptyDescription is returned when a request to create a post carries
	// an empty description.
	ErrEmptyDescription = errors.New("description is empty")
)

// Investment-related errors.
var (
	// ErrInvestmentNotFound indicates that the requested investment does not
	// exist.
	ErrInvestmentNotFound = errors.New("investment not found")

	// ErrInvalidAmount is returned when an investment amount is not strictly
	// positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrForbidden is returned when an authenticated caller attempts to read
	// or mutate a resource they do not own.
	ErrForbidden = errors.New("access denied")
)

// AuthorizeOwner checks resource ownership: it succeeds only when the caller's
// verified identity equals the resource owner's identifier. The comparison is
// a case-sensitive string equality: identifiers are opaque UUID-shaped
// strings and are never normalized.
//
// Note: on writes the server does NOT use this check; it substitutes the
// verified identity for any client-supplied owner field, which is a stronger
// guarantee than equality after the fact.
func AuthorizeOwner(ownerID, callerID string) error {
	if ownerID != callerID {
		return ErrForbidden
	}
	return nil
}
