package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// Tokens are always 64 hex characters; anything else 404s before any
// lookup happens, so these cases need no repositories behind the
// handler.
func TestPublicCatalogRejectsMalformedTokens(t *testing.T) {
	h := &CatalogHandler{}
	e := echo.New()
	e.GET("/api/catalog/:token", h.Public)

	for _, token := range []string{
		"short",
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/catalog/"+token, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code, "token %q", token)
	}
}

func TestLoginValidatesBody(t *testing.T) {
	h := &AuthHandler{}
	e := echo.New()
	e.POST("/api/auth/login", h.Login)

	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing password", `{"username":"alice"}`},
		{"missing username", `{"password":"secretpass"}`},
		{"blank username", `{"username":"   ","password":"secretpass"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(e, "/api/auth/login", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
