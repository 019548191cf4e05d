package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/queue"
	"github.com/stagedesk/stagedesk/internal/repository"
)

type EquipmentHandler struct {
	Equipment *repository.EquipmentRepo
	Audit     *Auditor
}

type equipmentBody struct {
	Name           string  `json:"name"`
	CategoryID     uint64  `json:"category_id"`
	SubcategoryID  *uint64 `json:"subcategory_id"`
	Quantity       int     `json:"quantity"`
	QtyGood        int     `json:"quantity_good"`
	QtyDamaged     int     `json:"quantity_damaged"`
	QtyMaint       int     `json:"quantity_maintenance"`
	Status         string  `json:"status"`
	DailyRateCents int64   `json:"daily_rate_cents"`
	ImageURL       string  `json:"image_url"`
	Version        uint64  `json:"version"`
}

func (b *equipmentBody) validate() string {
	if strings.TrimSpace(b.Name) == "" {
		return "name is required"
	}
	if b.CategoryID == 0 {
		return "category_id is required"
	}
	if b.Quantity < 0 || b.QtyGood < 0 || b.QtyDamaged < 0 || b.QtyMaint < 0 {
		return "quantities cannot be negative"
	}
	return ""
}

func (h *EquipmentHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Equipment.ListPage(ctx, page, perPage)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *EquipmentHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Equipment.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EquipmentHandler) Create(c echo.Context) error {
	var body equipmentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e := &repository.EquipmentItem{
		Name:           strings.TrimSpace(body.Name),
		CategoryID:     body.CategoryID,
		SubcategoryID:  body.SubcategoryID,
		Quantity:       body.Quantity,
		QtyGood:        body.QtyGood,
		QtyDamaged:     body.QtyDamaged,
		QtyMaint:       body.QtyMaint,
		Status:         body.Status,
		DailyRateCents: body.DailyRateCents,
		ImageURL:       body.ImageURL,
	}
	if err := h.Equipment.Create(ctx, e); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "equipment", e.ID, "created")
	warmTranslations(c, e.Name)
	return c.JSON(http.StatusCreated, e)
}

func (h *EquipmentHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body equipmentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	prev, err := h.Equipment.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}

	e := &repository.EquipmentItem{
		ID:             id,
		Name:           strings.TrimSpace(body.Name),
		CategoryID:     body.CategoryID,
		SubcategoryID:  body.SubcategoryID,
		Quantity:       body.Quantity,
		QtyGood:        body.QtyGood,
		QtyDamaged:     body.QtyDamaged,
		QtyMaint:       body.QtyMaint,
		Status:         body.Status,
		DailyRateCents: body.DailyRateCents,
		ImageURL:       body.ImageURL,
		Version:        body.Version,
	}
	if err := h.Equipment.Update(ctx, e, mustSession(c).UserID); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "equipment", id, "updated")
	if prev.Name != e.Name {
		warmTranslations(c, e.Name)
	}

	updated, err := h.Equipment.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *EquipmentHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Equipment.SoftDelete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "equipment", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}

func (h *EquipmentHandler) Restore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Equipment.Restore(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Audit.record(c, "equipment", id, "restored")

	e, err := h.Equipment.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// warmTranslations queues the new name for background translation into
// the languages the UI serves. Fire and forget.
func warmTranslations(c echo.Context, name string) {
	for _, lang := range []string{"pt", "es", "fr", "de"} {
		_ = queue.Publish(c.Request().Context(), queue.TranslationWarmQueue, queue.TranslationWarmEvent{
			Texts:       []string{name},
			TargetLang:  lang,
			RequestedAt: time.Now().UTC(),
		})
	}
}
