package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/pkg/jwt"
)

const testSecret = "secreto-de-prueba"

// buildTestApp app mínima con auth y una ruta protegida por rol.
func buildTestApp(minRole string) *fiber.App {
	app := fiber.New()
	app.Get("/protegida", AuthMiddleware(testSecret), RequireRole(minRole), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	return app
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.Generate(testSecret, "user-1", role, "picking-api", 60)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_SinToken(t *testing.T) {
	app := buildTestApp(domain.RoleOperator)
	req := httptest.NewRequest("GET", "/protegida", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_FormatoInvalido(t *testing.T) {
	app := buildTestApp(domain.RoleOperator)

	for _, header := range []string{"Basic abc", "Bearer", "Bearer  "} {
		req := httptest.NewRequest("GET", "/protegida", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, header)
	}
}

func TestAuthMiddleware_TokenConOtraFirma(t *testing.T) {
	app := buildTestApp(domain.RoleOperator)
	token, err := jwt.Generate("otro-secreto", "user-1", domain.RoleOperator, "picking-api", 60)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protegida", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole_OperatorNoEntraARutaSupervisor(t *testing.T) {
	app := buildTestApp(domain.RoleSupervisor)
	req := httptest.NewRequest("GET", "/protegida", nil)
	req.Header.Set("Authorization", "Bearer "+tokenForRole(t, domain.RoleOperator))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRole_JerarquiaDeRoles(t *testing.T) {
	cases := []struct {
		role     string
		minRole  string
		expected int
	}{
		{domain.RoleOperator, domain.RoleOperator, fiber.StatusOK},
		{domain.RoleSupervisor, domain.RoleOperator, fiber.StatusOK},
		{domain.RoleSupervisor, domain.RoleSupervisor, fiber.StatusOK},
		{domain.RoleAdmin, domain.RoleSupervisor, fiber.StatusOK},
		{domain.RoleAdmin, domain.RoleAdmin, fiber.StatusOK},
		{domain.RoleOperator, domain.RoleAdmin, fiber.StatusForbidden},
		{"desconocido", domain.RoleOperator, fiber.StatusForbidden},
	}
	for _, tc := range cases {
		app := buildTestApp(tc.minRole)
		req := httptest.NewRequest("GET", "/protegida", nil)
		req.Header.Set("Authorization", "Bearer "+tokenForRole(t, tc.role))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, resp.StatusCode, "%s contra mínimo %s", tc.role, tc.minRole)
	}
}
