package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/stagedesk/stagedesk/internal/cache"
	"github.com/stagedesk/stagedesk/internal/translate"
)

// memStore keeps translation rows in a map so handler tests run without
// a database.
type memStore struct {
	rows map[string]string
}

func (s *memStore) key(text, lang string) string { return lang + "\x00" + text }

func (s *memStore) GetBatch(_ context.Context, texts []string, targetLang string) (map[string]string, error) {
	out := map[string]string{}
	for _, t := range texts {
		if v, ok := s.rows[s.key(t, targetLang)]; ok {
			out[t] = v
		}
	}
	return out, nil
}

func (s *memStore) Upsert(_ context.Context, sourceText, targetLang, translatedText string) error {
	if s.rows == nil {
		s.rows = map[string]string{}
	}
	s.rows[s.key(sourceText, targetLang)] = translatedText
	return nil
}

func (s *memStore) CountExisting(_ context.Context, texts []string, targetLang string) (int, error) {
	n := 0
	for _, t := range texts {
		if _, ok := s.rows[s.key(t, targetLang)]; ok {
			n++
		}
	}
	return n, nil
}

// upperProvider "translates" by uppercasing, enough to tell outputs
// from pass-through.
type upperProvider struct{}

func (upperProvider) TranslateBatch(_ context.Context, texts []string, _ string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out, nil
}

func newTranslateHandler(p translate.Provider) *TranslateHandler {
	mem := cache.New(true, time.Minute)
	svc := translate.New(p, &memStore{rows: map[string]string{}}, mem, nil, translate.Options{
		MemoryTTL:        time.Minute,
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
	})
	return &TranslateHandler{Service: svc, SeedMax: time.Second}
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBatchTranslatesViaProvider(t *testing.T) {
	h := newTranslateHandler(upperProvider{})
	e := echo.New()
	e.POST("/api/translate/batch", h.Batch)

	rec := postJSON(e, "/api/translate/batch", `{"texts":["Dashboard","Save"],"targetLang":"pt"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Translations []string `json:"translations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"DASHBOARD", "SAVE"}, body.Translations)
}

func TestBatchPassesThroughWithoutProvider(t *testing.T) {
	h := newTranslateHandler(nil)
	e := echo.New()
	e.POST("/api/translate/batch", h.Batch)

	rec := postJSON(e, "/api/translate/batch", `{"texts":["Dashboard"],"targetLang":"pt"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Translations []string `json:"translations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"Dashboard"}, body.Translations)
}

func TestBatchRejectsMissingTargetLang(t *testing.T) {
	h := newTranslateHandler(nil)
	e := echo.New()
	e.POST("/api/translate/batch", h.Batch)

	rec := postJSON(e, "/api/translate/batch", `{"texts":["Dashboard"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthReportsUnhealthyWithoutProvider(t *testing.T) {
	h := newTranslateHandler(nil)
	e := echo.New()
	e.GET("/api/translate/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/api/translate/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unhealthy", body.Status)
}

func TestHealthReportsHealthyWithProvider(t *testing.T) {
	h := newTranslateHandler(upperProvider{})
	e := echo.New()
	e.GET("/api/translate/health", h.Health)

	req := httptest.NewRequest(http.MethodGet, "/api/translate/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body.Status)
}

func TestSeedRequiresTargetLang(t *testing.T) {
	h := newTranslateHandler(upperProvider{})
	e := echo.New()
	e.POST("/api/translate/seed", h.Seed)

	rec := postJSON(e, "/api/translate/seed", `{"force":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeedTranslatesStaticCatalog(t *testing.T) {
	h := newTranslateHandler(upperProvider{})
	e := echo.New()
	e.POST("/api/translate/seed", h.Seed)

	rec := postJSON(e, "/api/translate/seed", `{"targetLang":"pt"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res translate.SeedResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, len(translate.StaticTexts), res.Total)
	require.Equal(t, 0, res.Errors)
	require.Equal(t, res.Total, res.Translated)
}
