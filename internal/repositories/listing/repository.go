// Package listing reads listing records and supplies candidate prefilters for
// duplicate detection. Listings are written by the ingestion pipeline; this
// service only ever updates the computed image hash.
package listing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var listingCols = []string{
	"id", "title", "vin", "make", "model", "year", "price", "mileage",
	"image_url", "image_hash", "city", "province", "postal_code", "latitude", "longitude",
	"source_name", "source_listing_id", "scraped_at",
}

// Repository handles listing reads
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new listing repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a listing by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.ListingData, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingCols...)
	sb.From("listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var listing models.ListingData
	if err := r.db.GetContext(ctx, &listing, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("listing %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get listing")
	}

	return &listing, nil
}

// FindCandidates returns listings worth scoring against the given one: same
// make and model, year within one, excluding the listing itself and records
// scraped from the same source posting. This is a coarse blocking prefilter;
// real similarity is the engine's job.
func (r *Repository) FindCandidates(ctx context.Context, listing *models.ListingData, limit int) ([]*models.ListingData, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.FindCandidates")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 200
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingCols...)
	sb.From("listings")
	sb.Where(
		sb.NotEqual("id", listing.ID),
		sb.Equal("make", listing.Make),
		sb.Equal("model", listing.Model),
		sb.Between("year", listing.Year-1, listing.Year+1),
		sb.Or(
			sb.NotEqual("source_name", listing.SourceName),
			sb.NotEqual("source_listing_id", listing.SourceListingID),
		),
	)
	sb.OrderBy("scraped_at DESC NULLS LAST")
	sb.Limit(limit)

	query, args := sb.Build()
	var candidates []*models.ListingData
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"listing_id": listing.ID,
		}).Error("Failed to find candidate listings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find candidate listings")
	}

	return candidates, nil
}

// UpdateImageHash stores a freshly computed perceptual hash on the listing.
func (r *Repository) UpdateImageHash(ctx context.Context, id string, hash string) error {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.UpdateImageHash")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("listings")
	sb.Set(sb.Assign("image_hash", hash))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update listing image hash")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update listing image hash")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("listing %s not found", id))
	}

	return nil
}

// ListMissingImageHash returns listings scraped since cutoff that have no
// computed image hash yet, for the backfill worker.
func (r *Repository) ListMissingImageHash(ctx context.Context, cutoff time.Time, limit int) ([]*models.ListingData, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.ListMissingImageHash")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 200
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingCols...)
	sb.From("listings")
	sb.Where(
		sb.IsNull("image_hash"),
		sb.IsNotNull("image_url"),
		sb.GreaterEqualThan("scraped_at", cutoff),
	)
	sb.OrderBy("scraped_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var listings []*models.ListingData
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list listings missing image hash")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list listings")
	}

	return listings, nil
}
