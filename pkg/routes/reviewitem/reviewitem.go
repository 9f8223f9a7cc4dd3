// Package reviewitem exposes the manual review queue over HTTP.
package reviewitem

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/review"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers review item routes
func Register(g *echo.Group) {
	g.GET("", ListPending)
	g.GET("/:id", Get)
	g.POST("/:id/resolve", Resolve)
	g.POST("/:id/dismiss", Dismiss)
}

// ListPending returns open review items, highest priority first
func ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewitem_handler.ListPending")
	defer span.End()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit < 1 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review service")
	}

	items, err := svc.ListPending(ctx, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

// Get returns a single review item
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewitem_handler.Get")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review service")
	}

	item, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, item)
}

// Resolve adjudicates a pending review item
func Resolve(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewitem_handler.Resolve")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	var req models.ResolveReviewRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review service")
	}

	item, err := svc.Resolve(ctx, id, req.Decision, req.ReviewedBy, req.Notes)
	if err != nil {
		return mapWorkflowError(err)
	}

	return c.JSON(http.StatusOK, item)
}

// Dismiss closes a pending review item without a decision
func Dismiss(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "reviewitem_handler.Dismiss")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	var req models.DismissReviewRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review service")
	}

	item, err := svc.Dismiss(ctx, id, req.Reason)
	if err != nil {
		return mapWorkflowError(err)
	}

	return c.JSON(http.StatusOK, item)
}

func mapWorkflowError(err error) error {
	switch {
	case errors.Is(err, review.ErrNotPending):
		return httperror.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, review.ErrInvalidDecision):
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
