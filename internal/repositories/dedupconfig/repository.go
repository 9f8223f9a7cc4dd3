// Package dedupconfig persists versioned deduplication configs. Exactly one
// config is active at a time; inactive versions are retained for audit.
package dedupconfig

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var configCols = []string{
	"id", "name", "version", "is_active",
	"vin_weight", "title_weight", "price_weight", "mileage_weight", "location_weight", "image_weight",
	"title_similarity_threshold", "image_max_distance", "price_max_pct_diff", "mileage_max_diff", "location_max_distance_km",
	"overall_match_threshold", "review_threshold",
	"created_at", "updated_at",
}

// Repository handles deduplication config persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new config repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new config version. New configs start inactive; Activate
// swaps them in.
func (r *Repository) Create(ctx context.Context, cfg *models.DeduplicationConfig) (*models.DeduplicationConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupconfig.Repository.Create")
	defer span.End()

	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.IsActive = false
	cfg.CreatedAt = time.Now().UTC()
	cfg.UpdatedAt = cfg.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("dedup_configs")
	sb.Cols(configCols...)
	sb.Values(
		cfg.ID, cfg.Name, cfg.Version, cfg.IsActive,
		cfg.VINWeight, cfg.TitleWeight, cfg.PriceWeight, cfg.MileageWeight, cfg.LocationWeight, cfg.ImageWeight,
		cfg.TitleSimilarityThreshold, cfg.ImageMaxDistance, cfg.PriceMaxPctDiff, cfg.MileageMaxDiff, cfg.LocationMaxDistanceKm,
		cfg.OverallMatchThreshold, cfg.ReviewThreshold,
		cfg.CreatedAt, cfg.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create dedup config")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dedup config")
	}

	return cfg, nil
}

// GetByID retrieves a config by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.DeduplicationConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupconfig.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(configCols...)
	sb.From("dedup_configs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var cfg models.DeduplicationConfig
	if err := r.db.GetContext(ctx, &cfg, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("dedup config %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get dedup config")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dedup config")
	}

	return &cfg, nil
}

// GetActive retrieves the currently active config.
func (r *Repository) GetActive(ctx context.Context) (*models.DeduplicationConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupconfig.Repository.GetActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(configCols...)
	sb.From("dedup_configs")
	sb.Where(sb.Equal("is_active", true))
	sb.OrderBy("updated_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var cfg models.DeduplicationConfig
	if err := r.db.GetContext(ctx, &cfg, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "no active dedup config")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get active dedup config")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get active dedup config")
	}

	return &cfg, nil
}

// List retrieves config versions, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.DeduplicationConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupconfig.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(configCols...)
	sb.From("dedup_configs")
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var configs []models.DeduplicationConfig
	if err := r.db.SelectContext(ctx, &configs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dedup configs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dedup configs")
	}

	return configs, nil
}

// Activate makes the given config the single active one. Deactivating the
// rest and activating the target happen in one transaction so there is never
// a moment with zero or two active configs.
func (r *Repository) Activate(ctx context.Context, id string) (*models.DeduplicationConfig, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupconfig.Repository.Activate")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx, "UPDATE dedup_configs SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE", now); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to deactivate dedup configs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to activate dedup config")
	}

	result, err := tx.ExecContext(ctx, "UPDATE dedup_configs SET is_active = TRUE, updated_at = $1 WHERE id = $2", now, id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to activate dedup config")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to activate dedup config")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("dedup config %s not found", id))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to activate dedup config")
	}

	return r.GetByID(ctx, id)
}
