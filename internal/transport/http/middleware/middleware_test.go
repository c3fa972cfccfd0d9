package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoami(c *fiber.Ctx) error {
	role := "operator"
	if IsAdmin(c) {
		role = "admin"
	}
	return c.SendString(Operator(c) + ":" + role)
}

func call(t *testing.T, app *fiber.App, path string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestOperatorAuth(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{AdminAPIKey: "adm", OperatorAPIKey: "op"}}
	app := fiber.New()
	app.Get("/me", OperatorAuth(cfg), whoami)

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
		body    string
	}{
		{name: "no token", path: "/me", status: fiber.StatusUnauthorized},
		{name: "admin header", path: "/me", headers: map[string]string{"X-Admin-Token": "adm", "X-Operator": "alice"},
			status: fiber.StatusOK, body: "alice:admin"},
		{name: "operator bearer", path: "/me", headers: map[string]string{"Authorization": "Bearer op"},
			status: fiber.StatusOK, body: "operator:operator"},
		{name: "query token and name", path: "/me?token=op&operator=bob", status: fiber.StatusOK, body: "bob:operator"},
		{name: "wrong token", path: "/me", headers: map[string]string{"X-Admin-Token": "nope"}, status: fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, tt.path, tt.headers)
			assert.Equal(t, tt.status, status)
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			}
		})
	}
}

func TestOperatorAuthOpenWhenUnconfigured(t *testing.T) {
	app := fiber.New()
	app.Get("/me", OperatorAuth(&config.Config{}), whoami)
	status, body := call(t, app, "/me", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "operator:admin", body)
}

func TestAgentAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/poll", AgentAuth(&config.Config{Auth: config.AuthConfig{AgentToken: "tok"}}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	status, _ := call(t, app, "/poll", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = call(t, app, "/poll", map[string]string{"X-Agent-Token": "tok"})
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID("X-Request-ID"))
	app.Get("/", func(c *fiber.Ctx) error {
		id, _ := c.UserContext().Value(RequestIDKey).(string)
		return c.SendString(id)
	})

	_, body := call(t, app, "/", map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", body)

	_, body = call(t, app, "/", nil)
	assert.Len(t, body, 36)
}
