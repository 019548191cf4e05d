package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Healthz answers the load balancer probe.
func Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
