package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propscope/propscope/internal/analysis"
)

// initPropertyRoutes registers property lookup endpoints.
func (c *Controller) initPropertyRoutes() {
	c.Group.POST("/property", c.LookupProperty)
}

// LookupProperty resolves an address to a parcel record and returns it with
// a rent regulation assessment, optionally refined by tax benefit data.
func (c *Controller) LookupProperty(ctx echo.Context) error {
	var req analysis.PropertyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	result, err := c.Core.LookupProperty(ctx.Request().Context(), req)
	if err != nil {
		return c.OperationError(ctx, err, "Property lookup failed")
	}

	return ctx.JSON(http.StatusOK, result)
}
