package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
)

// guards mirrors the route groups: admin-only, hospital-only and the
// hospital-or-doctor patient routes.
var guards = map[string][]Role{
	"admin":           {RoleAdmin},
	"hospital":        {RoleHospital},
	"hospital,doctor": {RoleHospital, RoleDoctor},
}

func TestRequireRole_Matrix(t *testing.T) {
	tokens := newTestTokens(t)

	for guardName, allowed := range guards {
		for _, role := range Roles {
			allowedRole := hasRole(allowed, role)
			t.Run(guardName+"/"+string(role), func(t *testing.T) {
				tok, _ := tokens.Issue(testPrincipal(role))
				c, rec := newGuardContext("Bearer " + tok)

				h := Authenticate(tokens)(RequireRole(allowed...)(okHandler))
				err := h(c)

				if allowedRole {
					if err != nil {
						t.Fatalf("expected %s to pass guard %s, got %v", role, guardName, err)
					}
					if rec.Code != http.StatusOK {
						t.Errorf("expected 200, got %d", rec.Code)
					}
					return
				}
				assertKind(t, err, apperr.KindForbidden)
			})
		}
	}
}

func TestRequireRole_WithoutPrincipal(t *testing.T) {
	c, _ := newGuardContext("")
	err := RequireRole(RoleAdmin)(okHandler)(c)
	assertKind(t, err, apperr.KindMissingToken)
}

func TestRequireRole_NoAdminBypass(t *testing.T) {
	c, _ := newGuardContext("")
	ctx := WithPrincipal(c.Request().Context(), testPrincipal(RoleAdmin))
	c.SetRequest(c.Request().WithContext(ctx))

	err := RequireRole(RoleHospital)(okHandler)(c)
	assertKind(t, err, apperr.KindForbidden)
}

func TestRequireRole_DeniedMessages(t *testing.T) {
	tests := []struct {
		roles []Role
		want  string
	}{
		{[]Role{RoleAdmin}, "Access denied. Admins only."},
		{[]Role{RoleHospital}, "Access denied. Hospital only."},
		{[]Role{RoleHospital, RoleDoctor}, "Access denied. Doctor and Hospital only."},
		{[]Role{RolePatient}, "Access denied. required role: patient"},
	}
	for _, tt := range tests {
		if got := deniedMessage(tt.roles); got != tt.want {
			t.Errorf("deniedMessage(%v) = %q, want %q", tt.roles, got, tt.want)
		}
	}
}

func TestRequireRole_Chain(t *testing.T) {
	tokens := newTestTokens(t)
	tok, _ := tokens.Issue(testPrincipal(RoleDoctor))

	e := echo.New()
	g := e.Group("/api/patient", Authenticate(tokens), RequireRole(RoleHospital, RoleDoctor))
	g.GET("/all", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/patient/all", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 through the group chain, got %d", rec.Code)
	}
}
