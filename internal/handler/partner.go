package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type PartnerHandler struct {
	Partners *repository.PartnerRepo
	Audit    *Auditor
}

func (h *PartnerHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Partners.List(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *PartnerHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Partners.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type partnerBody struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
	Version uint64 `json:"version"`
}

func (h *PartnerHandler) Create(c echo.Context) error {
	var body partnerBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p := &repository.Partner{
		Name:    strings.TrimSpace(body.Name),
		Contact: body.Contact,
		Email:   body.Email,
		Phone:   body.Phone,
		Notes:   body.Notes,
	}
	if err := h.Partners.Create(ctx, p); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "partner", p.ID, "created")
	return c.JSON(http.StatusCreated, p)
}

func (h *PartnerHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body partnerBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p := &repository.Partner{
		ID:      id,
		Name:    strings.TrimSpace(body.Name),
		Contact: body.Contact,
		Email:   body.Email,
		Phone:   body.Phone,
		Notes:   body.Notes,
		Version: body.Version,
	}
	if err := h.Partners.Update(ctx, p); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "partner", id, "updated")

	updated, err := h.Partners.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *PartnerHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Partners.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "partner", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}
