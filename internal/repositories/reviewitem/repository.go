// Package reviewitem persists review items for ambiguous listing pairs.
package reviewitem

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var itemCols = []string{
	"id", "source_listing_id", "target_listing_id", "match_score", "priority",
	"status", "decision", "reviewed_by", "notes", "dismiss_reason",
	"created_at", "updated_at", "resolved_at",
}

// Repository handles review item persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new review item repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertPending inserts a pending item or refreshes the score and priority of
// the existing row for the pair - but only while that row is still pending.
// A pair that has already been adjudicated or dismissed is returned untouched
// so a rerun can never reopen it.
func (r *Repository) UpsertPending(ctx context.Context, item *models.ReviewItem) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.UpsertPending")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("review_items")
	sb.Cols(itemCols...)
	sb.Values(
		item.ID, item.SourceListingID, item.TargetListingID, item.MatchScore, item.Priority,
		item.Status, item.Decision, item.ReviewedBy, item.Notes, item.DismissReason,
		item.CreatedAt, item.UpdatedAt, item.ResolvedAt,
	)

	query, args := sb.Build()
	query += ` ON CONFLICT (source_listing_id, target_listing_id) DO UPDATE SET
		match_score = EXCLUDED.match_score,
		priority = EXCLUDED.priority,
		updated_at = EXCLUDED.updated_at
		WHERE review_items.status = 'pending'
		RETURNING ` + strings.Join(itemCols, ", ")

	var persisted models.ReviewItem
	err := r.db.GetContext(ctx, &persisted, query, args...)
	if err == nil {
		return &persisted, nil
	}

	// The conditional upsert returns no row when the existing item already
	// left pending; hand back that row unchanged.
	if err.Error() == "sql: no rows in result set" {
		existing, err := r.GetByPair(ctx, item.SourceListingID, item.TargetListingID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
		"source_listing_id": item.SourceListingID,
		"target_listing_id": item.TargetListingID,
	}).Error("Failed to upsert review item")
	return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert review item")
}

// GetByID retrieves a review item by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemCols...)
	sb.From("review_items")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var item models.ReviewItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("review item %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get review item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review item")
	}

	return &item, nil
}

// GetByPair retrieves the review item for a canonicalized pair, or nil when
// none exists.
func (r *Repository) GetByPair(ctx context.Context, sourceListingID, targetListingID string) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.GetByPair")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemCols...)
	sb.From("review_items")
	sb.Where(
		sb.Equal("source_listing_id", sourceListingID),
		sb.Equal("target_listing_id", targetListingID),
	)

	query, args := sb.Build()
	var item models.ReviewItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get review item by pair")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review item")
	}

	return &item, nil
}

// Update persists a state transition on an existing item.
func (r *Repository) Update(ctx context.Context, item *models.ReviewItem) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("review_items")
	sb.Set(
		sb.Assign("status", item.Status),
		sb.Assign("decision", item.Decision),
		sb.Assign("reviewed_by", item.ReviewedBy),
		sb.Assign("notes", item.Notes),
		sb.Assign("dismiss_reason", item.DismissReason),
		sb.Assign("updated_at", item.UpdatedAt),
		sb.Assign("resolved_at", item.ResolvedAt),
	)
	sb.Where(sb.Equal("id", item.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update review item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update review item")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("review item %s not found", item.ID))
	}

	return item, nil
}

// ListPending retrieves open review items, highest priority first.
func (r *Repository) ListPending(ctx context.Context, limit, offset int) ([]models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.ListPending")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemCols...)
	sb.From("review_items")
	sb.Where(sb.Equal("status", models.ReviewItemStatusPending))
	sb.OrderBy("priority DESC", "created_at ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var items []models.ReviewItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list pending review items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pending review items")
	}

	return items, nil
}

// CountAll returns the total number of review items ever created.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.CountAll")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM review_items"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count review items")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count review items")
	}

	return count, nil
}

// CountByStatus counts review items in the given lifecycle state.
func (r *Repository) CountByStatus(ctx context.Context, status models.ReviewItemStatus) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.CountByStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("review_items")
	sb.Where(sb.Equal("status", status))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count review items by status")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count review items")
	}

	return count, nil
}

// CountResolvedByDecision counts resolved items carrying the given decision.
func (r *Repository) CountResolvedByDecision(ctx context.Context, decision models.ReviewDecision) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.CountResolvedByDecision")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("review_items")
	sb.Where(
		sb.Equal("status", models.ReviewItemStatusResolved),
		sb.Equal("decision", decision),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count resolved review items")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count review items")
	}

	return count, nil
}
