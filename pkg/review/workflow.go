// Package review holds ambiguous listing pairs for human adjudication and
// applies the resolution outcomes.
package review

import (
	"errors"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

var (
	// ErrNotPending is returned when resolving or dismissing an item that has
	// already left the pending state. Both terminal states are final.
	ErrNotPending = errors.New("review item is not pending")

	// ErrInvalidDecision is returned when resolving without a real decision.
	ErrInvalidDecision = errors.New("resolution requires a same_vehicle or different_vehicle decision")
)

// Resolve transitions a pending item to resolved with the given decision.
// The item is mutated in place only when the transition is legal.
func Resolve(item *models.ReviewItem, decision models.ReviewDecision, reviewedBy, notes string) error {
	if item.Status != models.ReviewItemStatusPending {
		return ErrNotPending
	}
	if decision != models.ReviewDecisionSameVehicle && decision != models.ReviewDecisionDifferentVehicle {
		return ErrInvalidDecision
	}

	now := time.Now().UTC()
	item.Status = models.ReviewItemStatusResolved
	item.Decision = decision
	item.UpdatedAt = now
	item.ResolvedAt = &now
	if reviewedBy != "" {
		item.ReviewedBy = &reviewedBy
	}
	if notes != "" {
		item.Notes = &notes
	}
	return nil
}

// Dismiss transitions a pending item to dismissed without a decision. The
// pair stays unadjudicated and contributes nothing to accuracy counts.
func Dismiss(item *models.ReviewItem, reason string) error {
	if item.Status != models.ReviewItemStatusPending {
		return ErrNotPending
	}

	now := time.Now().UTC()
	item.Status = models.ReviewItemStatusDismissed
	item.Decision = models.ReviewDecisionNone
	item.UpdatedAt = now
	item.ResolvedAt = &now
	if reason != "" {
		item.DismissReason = &reason
	}
	return nil
}
