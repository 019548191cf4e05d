package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type EventHandler struct {
	Events *repository.EventRepo
	Audit  *Auditor
}

type eventBody struct {
	Name     string    `json:"name"`
	ClientID uint64    `json:"client_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
	Notes    string    `json:"notes"`
	Version  uint64    `json:"version"`
	Items    []struct {
		EquipmentID uint64 `json:"equipment_id"`
		Quantity    int    `json:"quantity"`
	} `json:"items"`
}

func (b *eventBody) validate() string {
	if strings.TrimSpace(b.Name) == "" {
		return "name is required"
	}
	if b.ClientID == 0 {
		return "client_id is required"
	}
	if b.StartsAt.IsZero() || b.EndsAt.IsZero() {
		return "starts_at and ends_at are required"
	}
	if !b.EndsAt.After(b.StartsAt) {
		return "ends_at must be after starts_at"
	}
	for _, it := range b.Items {
		if it.EquipmentID == 0 || it.Quantity < 1 {
			return "items need an equipment_id and a positive quantity"
		}
	}
	return ""
}

func (b *eventBody) toEvent(id uint64) *repository.Event {
	e := &repository.Event{
		ID:       id,
		Name:     strings.TrimSpace(b.Name),
		ClientID: b.ClientID,
		StartsAt: b.StartsAt,
		EndsAt:   b.EndsAt,
		Location: b.Location,
		Status:   b.Status,
		Notes:    b.Notes,
		Version:  b.Version,
	}
	for _, it := range b.Items {
		e.Items = append(e.Items, &repository.EventItem{EquipmentID: it.EquipmentID, Quantity: it.Quantity})
	}
	return e
}

// List handles GET /api/events?from=&to= (RFC 3339 bounds, both
// optional).
func (h *EventHandler) List(c echo.Context) error {
	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid 'from' timestamp"})
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid 'to' timestamp"})
		}
		to = t
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Events.List(ctx, from, to)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *EventHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Create(c echo.Context) error {
	var body eventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e := body.toEvent(0)
	if err := h.Events.Create(ctx, e); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "event", e.ID, "created")
	return c.JSON(http.StatusCreated, e)
}

func (h *EventHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body eventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.Update(ctx, body.toEvent(id)); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "event", id, "updated")

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EventHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "event", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}
