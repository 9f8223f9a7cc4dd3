// Package duplicatematch persists duplicate decisions, keyed by the
// canonicalized listing pair.
package duplicatematch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var matchCols = []string{
	"id", "source_listing_id", "target_listing_id", "overall_score",
	"confidence", "score_breakdown", "is_confirmed", "detected_at",
	"updated_at", "confirmed_at",
}

// Repository handles duplicate match persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new duplicate match repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts a match or, when the pair already exists, refreshes its
// score, confidence, breakdown and updated_at. Confirmation state is never
// touched by a rerun. Callers must pass a canonicalized pair; the unique
// constraint on (source_listing_id, target_listing_id) makes concurrent
// writes for the same pair safe without an application lock.
func (r *Repository) Upsert(ctx context.Context, match *models.DuplicateMatch) (*models.DuplicateMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatematch.Repository.Upsert")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("duplicate_matches")
	sb.Cols(matchCols...)
	sb.Values(
		match.ID, match.SourceListingID, match.TargetListingID, match.OverallScore,
		match.Confidence, match.ScoreBreakdown, match.IsConfirmed, match.DetectedAt,
		match.UpdatedAt, match.ConfirmedAt,
	)

	query, args := sb.Build()
	query += ` ON CONFLICT (source_listing_id, target_listing_id) DO UPDATE SET
		overall_score = EXCLUDED.overall_score,
		confidence = EXCLUDED.confidence,
		score_breakdown = EXCLUDED.score_breakdown,
		updated_at = EXCLUDED.updated_at
		RETURNING ` + columnList()

	var persisted models.DuplicateMatch
	if err := r.db.GetContext(ctx, &persisted, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"source_listing_id": match.SourceListingID,
			"target_listing_id": match.TargetListingID,
		}).Error("Failed to upsert duplicate match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert duplicate match")
	}

	return &persisted, nil
}

func columnList() string {
	return strings.Join(matchCols, ", ")
}

// GetByID retrieves a duplicate match by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.DuplicateMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatematch.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchCols...)
	sb.From("duplicate_matches")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var match models.DuplicateMatch
	if err := r.db.GetContext(ctx, &match, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("duplicate match %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get duplicate match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get duplicate match")
	}

	return &match, nil
}

// GetByPair retrieves the match for a canonicalized pair, or nil when none
// exists.
func (r *Repository) GetByPair(ctx context.Context, sourceListingID, targetListingID string) (*models.DuplicateMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatematch.Repository.GetByPair")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchCols...)
	sb.From("duplicate_matches")
	sb.Where(
		sb.Equal("source_listing_id", sourceListingID),
		sb.Equal("target_listing_id", targetListingID),
	)

	query, args := sb.Build()
	var match models.DuplicateMatch
	if err := r.db.GetContext(ctx, &match, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get duplicate match by pair")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get duplicate match")
	}

	return &match, nil
}

// ListByListing retrieves matches involving a listing, highest score first.
func (r *Repository) ListByListing(ctx context.Context, listingID string, limit int) ([]models.DuplicateMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatematch.Repository.ListByListing")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchCols...)
	sb.From("duplicate_matches")
	sb.Where(
		sb.Or(
			sb.Equal("source_listing_id", listingID),
			sb.Equal("target_listing_id", listingID),
		),
	)
	sb.OrderBy("overall_score DESC", "detected_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var matches []models.DuplicateMatch
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list duplicate matches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list duplicate matches")
	}

	return matches, nil
}

// Confirm marks a match as reviewer-confirmed and returns the updated row.
func (r *Repository) Confirm(ctx context.Context, id string) (*models.DuplicateMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatematch.Repository.Confirm")
	defer span.End()

	now := time.Now().UTC()
	query := `
		UPDATE duplicate_matches
		SET is_confirmed = TRUE, confirmed_at = $1, updated_at = $1
		WHERE id = $2
		RETURNING ` + columnList()

	var match models.DuplicateMatch
	if err := r.db.GetContext(ctx, &match, query, now, id); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("duplicate match %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to confirm duplicate match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to confirm duplicate match")
	}

	return &match, nil
}

// CountAll returns the total number of duplicate matches ever recorded.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatematch.Repository.CountAll")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM duplicate_matches"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count duplicate matches")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count duplicate matches")
	}

	return count, nil
}

// CountConfirmedWithoutReview counts confirmed matches whose pair has no
// resolved review item, so reviewed confirmations are not counted twice in
// accuracy tallies.
func (r *Repository) CountConfirmedWithoutReview(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "duplicatematch.Repository.CountConfirmedWithoutReview")
	defer span.End()

	query := `
		SELECT COUNT(*)
		FROM duplicate_matches dm
		WHERE dm.is_confirmed = TRUE
		AND NOT EXISTS (
			SELECT 1 FROM review_items ri
			WHERE ri.source_listing_id = dm.source_listing_id
			AND ri.target_listing_id = dm.target_listing_id
			AND ri.status = 'resolved'
		)
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count confirmed matches without review")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count confirmed matches")
	}

	return count, nil
}
