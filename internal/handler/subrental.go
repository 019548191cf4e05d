package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type SubrentalHandler struct {
	Subrentals *repository.SubrentalRepo
	Audit      *Auditor
}

type subrentalBody struct {
	PartnerID   uint64    `json:"partner_id"`
	EventID     *uint64   `json:"event_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	CostCents   int64     `json:"cost_cents"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Version     uint64    `json:"version"`
}

func (b *subrentalBody) validate() string {
	if b.PartnerID == 0 {
		return "partner_id is required"
	}
	if strings.TrimSpace(b.Description) == "" {
		return "description is required"
	}
	if b.Quantity < 1 {
		return "quantity must be positive"
	}
	if b.StartsAt.IsZero() || b.EndsAt.IsZero() || !b.EndsAt.After(b.StartsAt) {
		return "a valid date range is required"
	}
	return ""
}

func (h *SubrentalHandler) List(c echo.Context) error {
	partnerID, _ := strconv.ParseUint(c.QueryParam("partner_id"), 10, 64)

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Subrentals.List(ctx, partnerID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *SubrentalHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Subrentals.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SubrentalHandler) Create(c echo.Context) error {
	var body subrentalBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s := &repository.Subrental{
		PartnerID:   body.PartnerID,
		EventID:     body.EventID,
		Description: strings.TrimSpace(body.Description),
		Quantity:    body.Quantity,
		CostCents:   body.CostCents,
		StartsAt:    body.StartsAt,
		EndsAt:      body.EndsAt,
	}
	if err := h.Subrentals.Create(ctx, s); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "subrental", s.ID, "created")
	return c.JSON(http.StatusCreated, s)
}

func (h *SubrentalHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body subrentalBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s := &repository.Subrental{
		ID:          id,
		PartnerID:   body.PartnerID,
		EventID:     body.EventID,
		Description: strings.TrimSpace(body.Description),
		Quantity:    body.Quantity,
		CostCents:   body.CostCents,
		StartsAt:    body.StartsAt,
		EndsAt:      body.EndsAt,
		Version:     body.Version,
	}
	if err := h.Subrentals.Update(ctx, s); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "subrental", id, "updated")

	updated, err := h.Subrentals.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Return handles POST /api/subrentals/:id/return, stamping the return
// once. A second call gets a 409.
func (h *SubrentalHandler) Return(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Subrentals.MarkReturned(ctx, id, time.Now().UTC()); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "subrental", id, "returned")

	s, err := h.Subrentals.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SubrentalHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Subrentals.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "subrental", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}
