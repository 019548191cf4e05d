package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type CategoryHandler struct {
	Categories *repository.CategoryRepo
	Audit      *Auditor
}

func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Categories.List(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var body struct {
		Name     string  `json:"name"`
		ParentID *uint64 `json:"parent_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cat := &repository.Category{Name: name, ParentID: body.ParentID}
	if err := h.Categories.Create(ctx, cat); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "category", cat.ID, "created")
	warmTranslations(c, cat.Name)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name     string  `json:"name"`
		ParentID *uint64 `json:"parent_id"`
		Version  uint64  `json:"version"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Categories.Update(ctx, id, name, body.ParentID, body.Version); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "category", id, "updated")
	warmTranslations(c, name)

	cat, err := h.Categories.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Categories.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "category", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}
