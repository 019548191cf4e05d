package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/stagedesk/stagedesk/internal/auth"
)

const testSecret = "middleware-test-secret"

func doRequest(t *testing.T, role string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	chain := append([]echo.MiddlewareFunc{Session(testSecret)}, mw...)
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, chain...)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if role != "" {
		token, _, err := auth.NewSessionToken(testSecret, 7, "tester", role, 1)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	rec := doRequest(t, "", RequireAuth())
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthPassesSession(t *testing.T) {
	rec := doRequest(t, auth.RoleViewer, RequireAuth())
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionSplitsStatuses(t *testing.T) {
	cases := []struct {
		name string
		role string
		perm string
		want int
	}{
		{"anonymous gets 401", "", auth.PermManageEquipment, http.StatusUnauthorized},
		{"viewer lacks manage_equipment", auth.RoleViewer, auth.PermManageEquipment, http.StatusForbidden},
		{"technician manages equipment", auth.RoleTechnician, auth.PermManageEquipment, http.StatusOK},
		{"employee lacks manage_users", auth.RoleEmployee, auth.PermManageUsers, http.StatusForbidden},
		{"admin passes everything", auth.RoleAdmin, auth.PermManageUsers, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, tc.role, RequirePermission(tc.perm))
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestSessionIgnoresForgedCookie(t *testing.T) {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, Session(testSecret), RequireAuth())

	token, _, err := auth.NewSessionToken("other-secret", 7, "tester", auth.RoleAdmin, 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
