package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
)

type CatalogHandler struct {
	Shares    *repository.CatalogShareRepo
	Equipment *repository.EquipmentRepo
	Audit     *Auditor
}

func (h *CatalogHandler) ListShares(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Shares.List(ctx)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHandler) CreateShare(c echo.Context) error {
	var body struct {
		Title        string     `json:"title"`
		PartnerID    *uint64    `json:"partner_id"`
		EquipmentIDs []uint64   `json:"equipment_ids"`
		ExpiresAt    *time.Time `json:"expires_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.EquipmentIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "equipment_ids must not be empty"})
	}
	if body.ExpiresAt != nil && body.ExpiresAt.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_at is in the past"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s := &repository.CatalogShare{
		Title:        strings.TrimSpace(body.Title),
		PartnerID:    body.PartnerID,
		CreatedBy:    mustSession(c).UserID,
		EquipmentIDs: body.EquipmentIDs,
		ExpiresAt:    body.ExpiresAt,
	}
	if err := h.Shares.Create(ctx, s); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "catalog_share", s.ID, "created")
	return c.JSON(http.StatusCreated, s)
}

func (h *CatalogHandler) RevokeShare(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Shares.Revoke(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "catalog_share", id, "revoked")
	return c.NoContent(http.StatusNoContent)
}

// Public handles GET /api/catalog/:token, the one unauthenticated
// business read. Unknown, expired and revoked tokens all answer 404 so
// the route leaks nothing about which shares exist.
func (h *CatalogHandler) Public(c echo.Context) error {
	token := c.Param("token")
	if len(token) != 64 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "catalog not found"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Shares.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrShareNotFound) || errors.Is(err, repository.ErrShareExpired) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "catalog not found"})
		}
		return jsonError(c, err)
	}

	items, err := h.Equipment.GetByIDs(ctx, s.EquipmentIDs)
	if err != nil {
		return jsonError(c, err)
	}

	// public view strips internal fields down to what a partner's
	// client should see
	type publicItem struct {
		Name           string `json:"name"`
		Quantity       int    `json:"quantity"`
		DailyRateCents int64  `json:"daily_rate_cents"`
		ImageURL       string `json:"image_url,omitempty"`
	}
	out := make([]publicItem, 0, len(items))
	for _, e := range items {
		out = append(out, publicItem{
			Name:           e.Name,
			Quantity:       e.Quantity,
			DailyRateCents: e.DailyRateCents,
			ImageURL:       e.ImageURL,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"title": s.Title, "items": out})
}
