package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propscope/propscope/internal/analysis"
)

// initSalesRoutes registers sales history endpoints.
func (c *Controller) initSalesRoutes() {
	c.Group.POST("/sales/search", c.SearchSales)
}

// SearchSales returns the recorded deed transfers for a parcel identified
// either by BBL or by address.
func (c *Controller) SearchSales(ctx echo.Context) error {
	var req analysis.SalesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	result, err := c.Core.SearchSales(ctx.Request().Context(), req)
	if err != nil {
		return c.OperationError(ctx, err, "Sales search failed")
	}

	return ctx.JSON(http.StatusOK, result)
}
