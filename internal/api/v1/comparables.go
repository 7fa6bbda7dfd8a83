package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propscope/propscope/internal/analysis"
)

// initComparablesRoutes registers comparable search endpoints.
func (c *Controller) initComparablesRoutes() {
	c.Group.POST("/comparables", c.SearchComparables)
}

// SearchComparables resolves the subject address, infers its neighborhood,
// and returns ranked comparable sales with market aggregates.
func (c *Controller) SearchComparables(ctx echo.Context) error {
	var req analysis.ComparablesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	result, err := c.Core.SearchComparables(ctx.Request().Context(), req)
	if err != nil {
		return c.OperationError(ctx, err, "Comparable search failed")
	}

	return ctx.JSON(http.StatusOK, result)
}
