package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type ActivityHandler struct {
	Activities *repository.ActivityRepo
}

// List handles GET /api/activity?entity_type=&page=&per_page= behind
// the view_reports permission.
func (h *ActivityHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Activities.List(ctx, c.QueryParam("entity_type"), page, perPage)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
