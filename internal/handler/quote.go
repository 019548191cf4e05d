package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type QuoteHandler struct {
	Quotes *repository.QuoteRepo
	Audit  *Auditor
}

type quoteBody struct {
	ClientID      uint64     `json:"client_id"`
	EventID       *uint64    `json:"event_id"`
	Status        string     `json:"status"`
	DiscountCents int64      `json:"discount_cents"`
	ValidUntil    *time.Time `json:"valid_until"`
	Notes         string     `json:"notes"`
	Version       uint64     `json:"version"`
	Items         []struct {
		EquipmentID   *uint64 `json:"equipment_id"`
		Description   string  `json:"description"`
		Quantity      int     `json:"quantity"`
		Days          int     `json:"days"`
		UnitRateCents int64   `json:"unit_rate_cents"`
	} `json:"items"`
}

func (b *quoteBody) validate() string {
	if b.ClientID == 0 {
		return "client_id is required"
	}
	if b.DiscountCents < 0 {
		return "discount cannot be negative"
	}
	for _, it := range b.Items {
		if it.Quantity < 1 || it.Days < 1 {
			return "items need a positive quantity and day count"
		}
		if it.UnitRateCents < 0 {
			return "item rates cannot be negative"
		}
	}
	return ""
}

func (b *quoteBody) toQuote(id uint64) *repository.Quote {
	q := &repository.Quote{
		ID:            id,
		ClientID:      b.ClientID,
		EventID:       b.EventID,
		Status:        b.Status,
		DiscountCents: b.DiscountCents,
		ValidUntil:    b.ValidUntil,
		Notes:         b.Notes,
		Version:       b.Version,
	}
	for _, it := range b.Items {
		q.Items = append(q.Items, &repository.QuoteItem{
			EquipmentID:   it.EquipmentID,
			Description:   it.Description,
			Quantity:      it.Quantity,
			Days:          it.Days,
			UnitRateCents: it.UnitRateCents,
		})
	}
	return q
}

func (h *QuoteHandler) List(c echo.Context) error {
	clientID, _ := strconv.ParseUint(c.QueryParam("client_id"), 10, 64)

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Quotes.List(ctx, clientID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *QuoteHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	q, err := h.Quotes.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuoteHandler) Create(c echo.Context) error {
	var body quoteBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	q := body.toQuote(0)
	if err := h.Quotes.Create(ctx, q); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "quote", q.ID, "created")
	return c.JSON(http.StatusCreated, q)
}

func (h *QuoteHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body quoteBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Quotes.Update(ctx, body.toQuote(id)); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "quote", id, "updated")

	q, err := h.Quotes.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuoteHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Quotes.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "quote", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}
