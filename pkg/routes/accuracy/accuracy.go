// Package accuracy exposes the accuracy metric snapshots over HTTP.
package accuracy

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/accuracy"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Register registers accuracy routes
func Register(g *echo.Group) {
	g.GET("", GetCurrent)
	g.POST("/snapshot", Snapshot)
	g.GET("/history", History)
}

// GetCurrent computes current metrics without persisting a snapshot
func GetCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "accuracy_handler.GetCurrent")
	defer span.End()

	ctx, svc, err := ectoinject.GetContext[*accuracy.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get accuracy service")
	}

	metrics, err := svc.Compute(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, metrics)
}

// Snapshot computes and persists a new snapshot
func Snapshot(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "accuracy_handler.Snapshot")
	defer span.End()

	ctx, svc, err := ectoinject.GetContext[*accuracy.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get accuracy service")
	}

	snapshot, err := svc.Snapshot(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, snapshot)
}

// History lists persisted snapshots, newest first
func History(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "accuracy_handler.History")
	defer span.End()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit < 1 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx, svc, err := ectoinject.GetContext[*accuracy.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get accuracy service")
	}

	snapshots, err := svc.History(ctx, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, snapshots)
}
