// Package dedupconfig exposes config version management over HTTP.
package dedupconfig

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/dedupconfig"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Register registers dedup config routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.GET("/active", GetActive)
	g.GET("/:id", Get)
	g.POST("", Create)
	g.POST("/:id/activate", Activate)
}

// List returns config versions, newest first
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupconfig_handler.List")
	defer span.End()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit < 1 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx, repo, err := ectoinject.GetContext[*dedupconfig.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config repository")
	}

	configs, err := repo.List(ctx, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, configs)
}

// GetActive returns the currently active config
func GetActive(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupconfig_handler.GetActive")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*dedupconfig.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config repository")
	}

	cfg, err := repo.GetActive(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cfg)
}

// Get returns a config version by id
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupconfig_handler.Get")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*dedupconfig.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config repository")
	}

	cfg, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cfg)
}

// Create creates a new inactive config version
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupconfig_handler.Create")
	defer span.End()

	var req models.CreateDedupConfigRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*dedupconfig.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config repository")
	}

	created, err := repo.Create(ctx, req.ToConfig())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// Activate makes the given config the single active one
func Activate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "dedupconfig_handler.Activate")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*dedupconfig.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config repository")
	}

	activated, err := repo.Activate(ctx, id)
	if err != nil {
		return err
	}

	// drop the cached snapshot so the next detection run sees the new config
	ctx, cacheClient, _ := ectoinject.GetContext[*cache.Client](ctx)
	if cacheClient != nil {
		cacheClient.InvalidateActiveConfig(ctx)
	}

	return c.JSON(http.StatusOK, activated)
}
