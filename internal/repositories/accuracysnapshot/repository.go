// Package accuracysnapshot persists the accuracy metric time series.
package accuracysnapshot

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var snapshotCols = []string{
	"id", "total_matches", "confirmed_duplicates", "confirmed_non_duplicates",
	"pending_reviews", "precision", "recall", "f1", "computed_at",
}

// Repository handles accuracy snapshot persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new accuracy snapshot repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an immutable snapshot row.
func (r *Repository) Create(ctx context.Context, snapshot *models.AccuracyMetrics) (*models.AccuracyMetrics, error) {
	ctx, span := tracing.StartSpan(ctx, "accuracysnapshot.Repository.Create")
	defer span.End()

	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("accuracy_snapshots")
	sb.Cols(snapshotCols...)
	sb.Values(
		snapshot.ID, snapshot.TotalMatches, snapshot.ConfirmedDuplicates, snapshot.ConfirmedNonDuplicates,
		snapshot.PendingReviews, snapshot.Precision, snapshot.Recall, snapshot.F1, snapshot.ComputedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create accuracy snapshot")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create accuracy snapshot")
	}

	return snapshot, nil
}

// List retrieves snapshots, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.AccuracyMetrics, error) {
	ctx, span := tracing.StartSpan(ctx, "accuracysnapshot.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(snapshotCols...)
	sb.From("accuracy_snapshots")
	sb.OrderBy("computed_at DESC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var snapshots []models.AccuracyMetrics
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list accuracy snapshots")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list accuracy snapshots")
	}

	return snapshots, nil
}
