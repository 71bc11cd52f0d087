package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/pkg/constants"
	"stablebricks-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireAuth(t *testing.T) {
	u := domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: constants.RoleUser}
	ok := func(c *fiber.Ctx) error {
		p, _ := CurrentPrincipal(c)
		return c.SendString(p.UserID.String())
	}

	anon := fiber.New()
	anon.Get("/", RequireAuth(), ok)
	assert.Equal(t, fiber.StatusUnauthorized, do(t, anon, httptest.NewRequest("GET", "/", nil)).StatusCode)

	app := fiber.New()
	app.Get("/", testutil.AsUser(u), RequireAuth(), ok)
	resp := do(t, app, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthorizePermission(t *testing.T) {
	user := domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: constants.RoleUser}
	admin := domain.User{ID: uuid.New(), Name: "Bola", Email: "bola@example.com", Role: constants.RoleAdmin}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app := fiber.New()
	app.Get("/user/manage", testutil.AsUser(user), AuthorizePermission(constants.ManageUsers), ok)
	app.Get("/admin/manage", testutil.AsUser(admin), AuthorizePermission(constants.ManageUsers), ok)
	app.Get("/admin/unknown", testutil.AsUser(admin), AuthorizePermission("no_such_permission"), ok)
	app.Get("/anon", AuthorizePermission(constants.ManageUsers), ok)

	assert.Equal(t, fiber.StatusForbidden, do(t, app, httptest.NewRequest("GET", "/user/manage", nil)).StatusCode)
	assert.Equal(t, fiber.StatusOK, do(t, app, httptest.NewRequest("GET", "/admin/manage", nil)).StatusCode)
	assert.Equal(t, fiber.StatusInternalServerError, do(t, app, httptest.NewRequest("GET", "/admin/unknown", nil)).StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, httptest.NewRequest("GET", "/anon", nil)).StatusCode)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".stablebricks.com", DevPassword: "letmein", AllowLocalhost: true}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	cases := []struct {
		origin, password string
		want             int
	}{
		{"", "", fiber.StatusOK},
		{"https://app.stablebricks.com", "", fiber.StatusOK},
		{"http://localhost:3000", "", fiber.StatusOK},
		{"https://evil.example", "", fiber.StatusForbidden},
		{"https://evil.example", "letmein", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if tc.password != "" {
			req.Header.Set("dev-password", tc.password)
		}
		resp := do(t, app, req)
		assert.Equal(t, tc.want, resp.StatusCode, tc.origin)
		if tc.want == fiber.StatusOK && tc.origin != "" {
			assert.Equal(t, tc.origin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		}
	}
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp := do(t, app, httptest.NewRequest("GET", "/", nil))
	generated := resp.Header.Get("X-Trace-Id")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", incoming)
	assert.Equal(t, incoming, do(t, app, req).Header.Get("X-Trace-Id"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", do(t, app, req).Header.Get("X-Trace-Id"))
}

func TestSession_SavesAndLoadsUser(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	u := domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", Role: constants.RoleUser}

	app := fiber.New()
	app.Use(Session(rdb))
	app.Post("/login", func(c *fiber.Ctx) error {
		sid := RegenerateSessionID(c)
		SetSessionUser(c, authsvc.NewSessionUser(&u))
		c.Cookie(SessionCookie(SessionConfig{}, sid))
		return c.SendString(sid)
	})
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		p, _ := CurrentPrincipal(c)
		return c.JSON(fiber.Map{"email": p.Email, "sid": GetSessionID(c)})
	})

	resp := do(t, app, httptest.NewRequest("POST", "/login", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	sid := cookie.Value[2:]
	assert.True(t, mr.Exists(authsvc.SessionRedisPrefix+sid))

	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(cookie)
	resp = do(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ada@example.com", out["email"])
	assert.Equal(t, sid, out["sid"])

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, httptest.NewRequest("GET", "/me", nil)).StatusCode)
}

func TestSessionCookie(t *testing.T) {
	c := SessionCookie(SessionConfig{AllowCrossSiteDev: true}, "abc")
	assert.Equal(t, "s:abc", c.Value)
	assert.Equal(t, fiber.CookieSameSiteNoneMode, c.SameSite)
	assert.True(t, c.Secure)

	expired := ExpiredSessionCookie(SessionConfig{})
	assert.Equal(t, -1, expired.MaxAge)
	assert.Empty(t, expired.Value)
	assert.False(t, expired.Secure)
}
