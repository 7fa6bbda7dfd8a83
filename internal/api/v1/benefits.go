package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// initBenefitRoutes registers tax benefit endpoints.
func (c *Controller) initBenefitRoutes() {
	c.Group.GET("/taxbenefits/:bbl", c.GetTaxBenefits)
}

// GetTaxBenefits returns the exemption and abatement summary for a BBL.
// Sources that could not be reached are listed in degraded_sources rather
// than failing the request.
func (c *Controller) GetTaxBenefits(ctx echo.Context) error {
	summary, err := c.Core.GetTaxBenefits(ctx.Request().Context(), ctx.Param("bbl"))
	if err != nil {
		return c.OperationError(ctx, err, "Tax benefit lookup failed")
	}

	return ctx.JSON(http.StatusOK, summary)
}
