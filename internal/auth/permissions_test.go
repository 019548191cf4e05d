package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowedPerRole(t *testing.T) {
	cases := []struct {
		role string
		perm string
		want bool
	}{
		{RoleAdmin, PermManageUsers, true},
		{RoleAdmin, PermViewReports, true},
		{RoleManager, PermManageUsers, false},
		{RoleManager, PermManageEquipment, true},
		{RoleManager, PermViewReports, true},
		{RoleTechnician, PermManageEquipment, true},
		{RoleTechnician, PermManageMaintenance, true},
		{RoleTechnician, PermManageClients, false},
		{RoleEmployee, PermManageQuotes, true},
		{RoleEmployee, PermManageEquipment, false},
		{RoleViewer, PermManageEquipment, false},
		{RoleViewer, PermViewReports, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Allowed(tc.role, tc.perm), "%s/%s", tc.role, tc.perm)
	}
}

func TestAllowedNormalizesRoleCase(t *testing.T) {
	require.True(t, Allowed("Admin", PermManageUsers))
	require.True(t, Allowed(" MANAGER ", PermManageEvents))
	require.False(t, Allowed("superuser", PermManageUsers))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, exp, err := NewSessionToken("secret", 42, "ana", RoleManager, 1)
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	s, err := ParseSessionToken("secret", tok)
	require.NoError(t, err)
	require.Equal(t, uint64(42), s.UserID)
	require.Equal(t, "ana", s.Username)
	require.Equal(t, RoleManager, s.Role)
}

func TestParseSessionTokenRejectsWrongSecret(t *testing.T) {
	tok, _, err := NewSessionToken("secret", 1, "u", RoleAdmin, 1)
	require.NoError(t, err)

	_, err = ParseSessionToken("other", tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}
