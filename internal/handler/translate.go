package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/repository"
	"github.com/stagedesk/stagedesk/internal/translate"
)

const preloadMaxLimit = 5000

// TranslateHandler serves the translation cache endpoints: seeding the
// static UI catalog, preloading cached rows for the frontend, ad-hoc
// batch translation, health, and admin edits of cache rows.
type TranslateHandler struct {
	Service      *translate.Service
	Translations *repository.TranslationRepo
	SeedMax      time.Duration
	Audit        *Auditor
}

func targetLangParam(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Seed handles POST /api/translate/seed {targetLang, force}. The whole
// run is bounded by SeedMax; texts not reached before the deadline are
// reported as errors, never retried inline.
func (h *TranslateHandler) Seed(c echo.Context) error {
	var body struct {
		TargetLang string `json:"targetLang"`
		Force      bool   `json:"force"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	lang := targetLangParam(body.TargetLang)
	if lang == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "targetLang is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.SeedMax)
	defer cancel()

	res := h.Service.Seed(ctx, lang, body.Force)
	return c.JSON(http.StatusOK, res)
}

// SeedProgress handles GET /api/translate/seed?targetLang=.
func (h *TranslateHandler) SeedProgress(c echo.Context) error {
	lang := targetLangParam(c.QueryParam("targetLang"))
	if lang == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "targetLang is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pct, err := h.Service.SeedProgress(ctx, lang)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"targetLang": lang, "percentage": pct})
}

// Preload handles GET /api/translate/preload?targetLang=&limit= and
// returns up to limit cached rows, most recently used first.
func (h *TranslateHandler) Preload(c echo.Context) error {
	lang := targetLangParam(c.QueryParam("targetLang"))
	if lang == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "targetLang is required"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > preloadMaxLimit {
		limit = preloadMaxLimit
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Translations.Preload(ctx, lang, limit)
	if err != nil {
		return jsonError(c, err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.SourceText] = r.TranslatedText
	}
	return c.JSON(http.StatusOK, echo.Map{"targetLang": lang, "count": len(rows), "translations": out})
}

// Batch handles POST /api/translate/batch {texts, targetLang}. The
// response always carries one output per input, source text standing in
// wherever translation was unavailable.
func (h *TranslateHandler) Batch(c echo.Context) error {
	var body struct {
		Texts      []string `json:"texts"`
		TargetLang string   `json:"targetLang"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	lang := targetLangParam(body.TargetLang)
	if lang == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "targetLang is required"})
	}
	if len(body.Texts) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"translations": []string{}})
	}
	if len(body.Texts) > 500 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many texts, max 500"})
	}

	out := h.Service.TranslateBatch(c.Request().Context(), body.Texts, lang)
	return c.JSON(http.StatusOK, echo.Map{"translations": out})
}

// Health handles GET /api/translate/health. Degraded means temporarily
// failing (breaker open), unhealthy means the provider is not
// configured at all.
func (h *TranslateHandler) Health(c echo.Context) error {
	m := h.Service.Metrics()
	status := "healthy"
	switch {
	case !h.Service.Configured():
		status = "unhealthy"
	case m.BreakerOpen:
		status = "degraded"
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status, "metrics": m})
}

// Update handles PUT /api/translate/:id for manual corrections of
// cached rows. Clears the memory tier so the fix is visible at once.
func (h *TranslateHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.TranslatedText) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "translatedText is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Translations.Update(ctx, id, body.TranslatedText); err != nil {
		return jsonError(c, err)
	}
	h.Service.ClearCache()
	h.Audit.record(c, "translation", id, "updated")
	return c.JSON(http.StatusOK, echo.Map{"message": "translation updated"})
}

// Delete handles DELETE /api/translate/:id.
func (h *TranslateHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Translations.Delete(ctx, id); err != nil {
		return jsonError(c, err)
	}
	h.Service.ClearCache()
	h.Audit.record(c, "translation", id, "deleted")
	return c.NoContent(http.StatusNoContent)
}

// DeleteByLang handles DELETE /api/translate?targetLang=.
func (h *TranslateHandler) DeleteByLang(c echo.Context) error {
	lang := targetLangParam(c.QueryParam("targetLang"))
	if lang == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "targetLang is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Translations.DeleteByLang(ctx, lang)
	if err != nil {
		return jsonError(c, err)
	}
	h.Service.ClearCache()
	h.Audit.record(c, "translation", 0, "purged_"+lang)
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}
