// Package detect exposes duplicate detection runs over HTTP.
package detect

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers detection routes
func Register(g *echo.Group) {
	g.POST("/:listingID", DetectDuplicates)
	g.POST("/batch", ProcessBatch)
}

// DetectDuplicates runs duplicate detection for one listing
func DetectDuplicates(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "detect_handler.DetectDuplicates")
	defer span.End()

	listingID := c.Param("listingID")
	if listingID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "listingID is required")
	}

	ctx, orchestrator, err := ectoinject.GetContext[*dedup.Orchestrator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get orchestrator")
	}

	result, err := orchestrator.DetectDuplicates(ctx, listingID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ProcessBatch runs detection for a set of listings with per-listing error
// isolation; the response carries one result per requested id
func ProcessBatch(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "detect_handler.ProcessBatch")
	defer span.End()

	var req models.BatchDetectRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, orchestrator, err := ectoinject.GetContext[*dedup.Orchestrator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get orchestrator")
	}

	results := orchestrator.ProcessBatch(ctx, req.ListingIDs)

	return c.JSON(http.StatusOK, results)
}
