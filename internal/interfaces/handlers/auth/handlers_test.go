package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "stablebricks-backend/internal/application/auth"
	usersvc "stablebricks-backend/internal/application/user"
	"stablebricks-backend/internal/application/wallet"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/constants"
	"stablebricks-backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	app    *fiber.App
	h      *Handlers
	db     *gorm.DB
	mr     *miniredis.Miniredis
	mailer *testutil.Mailer
}

func setup(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	mailer := &testutil.Mailer{}
	wallets := &wallet.Service{DB: db, WelcomeBonus: decimal.NewFromInt(5000)}
	h := &Handlers{
		Auth:  &authsvc.Service{DB: db, Rdb: rdb, Secret: "test-secret", Mailer: mailer, AppBaseURL: "https://app.test"},
		Users: &usersvc.Service{DB: db, Rdb: rdb, Wallets: wallets, Mailer: mailer, ReferralBonus: decimal.NewFromInt(1000)},
		Rdb:   rdb,
	}
	app := fiber.New()
	app.Use(middleware.Session(rdb))
	app.Post("/register", h.Register)
	app.Post("/login", h.Login)
	app.Get("/me", h.Me)
	app.Delete("/logout", h.Logout)
	app.Post("/forgot-password", h.ForgotPassword)
	app.Post("/reset-password", h.ResetPassword)
	return &fixture{app: app, h: h, db: db, mr: mr, mailer: mailer}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func errMessage(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	msg, _ := e["message"].(string)
	return msg
}

func TestRegister_StartsSession(t *testing.T) {
	f := setup(t)
	resp, out := f.do(t, "POST", "/register", map[string]string{
		"name": "ada lovelace", "email": "Ada@Example.com", "password": "Secret#123",
	}, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "Ada Lovelace", user["name"])
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, constants.RoleUser, user["role"])
	assert.Len(t, data["referral_code"], 8)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, strings.HasPrefix(cookie.Value, "s:"))
	assert.True(t, f.mr.Exists(authsvc.SessionRedisPrefix+strings.TrimPrefix(cookie.Value, "s:")))
	assert.Equal(t, []string{"welcome"}, f.mailer.Kinds())

	resp, out = f.do(t, "GET", "/me", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	me := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", me["email"])
}

func TestRegister_Validation(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.db, "taken@example.com", constants.RoleUser, "Secret#123")

	cases := []struct {
		body   map[string]string
		status int
		msg    string
	}{
		{map[string]string{"name": "A B", "email": "bad", "password": "Secret#123"}, 400, usersvc.ErrInvalidEmail.Error()},
		{map[string]string{"name": "A B", "email": "a@b.com", "password": "short"}, 400, usersvc.ErrWeakPassword.Error()},
		{map[string]string{"name": "", "email": "a@b.com", "password": "Secret#123"}, 400, usersvc.ErrNameRequired.Error()},
		{map[string]string{"name": "A B", "email": "taken@example.com", "password": "Secret#123"}, 409, usersvc.ErrEmailTaken.Error()},
	}
	for _, tc := range cases {
		resp, out := f.do(t, "POST", "/register", tc.body, nil)
		assert.Equal(t, tc.status, resp.StatusCode, tc.msg)
		assert.Equal(t, tc.msg, errMessage(out))
	}
}

func TestLogin(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.db, "investor@example.com", constants.RoleUser, "Secret#123")

	resp, out := f.do(t, "POST", "/login", map[string]string{"email": "investor@example.com"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, authsvc.ErrEmailPasswordRequired.Error(), errMessage(out))

	resp, out = f.do(t, "POST", "/login", map[string]string{"email": "nobody@example.com", "password": "x"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, authsvc.ErrInvalidEmail.Error(), errMessage(out))

	resp, out = f.do(t, "POST", "/login", map[string]string{"email": "investor@example.com", "password": "Wrong#123"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, authsvc.ErrIncorrectPassword.Error(), errMessage(out))

	resp, out = f.do(t, "POST", "/login", map[string]string{"email": "investor@example.com", "password": "Secret#123"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", out["message"])
	require.NotNil(t, sessionCookie(resp))
}

func TestLogout_DestroysSession(t *testing.T) {
	f := setup(t)
	u := testutil.CreateUser(t, f.db, "investor@example.com", constants.RoleUser, "Secret#123")
	resp, _ := f.do(t, "POST", "/login", map[string]string{"email": u.Email, "password": "Secret#123"}, nil)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	sid := strings.TrimPrefix(cookie.Value, "s:")

	resp, _ = f.do(t, "DELETE", "/logout", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, f.mr.Exists(authsvc.SessionRedisPrefix+sid))
	members, _ := f.mr.Members(authsvc.UserSessionsPrefix + u.ID.String())
	assert.NotContains(t, members, sid)

	resp, _ = f.do(t, "GET", "/me", nil, cookie)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe_NoSession(t *testing.T) {
	f := setup(t)
	resp, out := f.do(t, "GET", "/me", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not authenticated", errMessage(out))
}

func TestForgotAndResetPassword(t *testing.T) {
	f := setup(t)
	u := testutil.CreateUser(t, f.db, "investor@example.com", constants.RoleUser, "Secret#123")

	resp, _ := f.do(t, "POST", "/forgot-password", map[string]string{"email": "nobody@example.com"}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, f.mailer.Sent)

	resp, _ = f.do(t, "POST", "/forgot-password", map[string]string{"email": u.Email}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, f.mailer.Sent, 1)
	link := f.mailer.Sent[0].Body
	token := link[strings.Index(link, "token=")+len("token="):]

	resp, out := f.do(t, "POST", "/reset-password", map[string]string{"token": token, "password": "weak"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, authsvc.ErrWeakPassword.Error(), errMessage(out))

	resp, out = f.do(t, "POST", "/reset-password", map[string]string{"token": "garbage", "password": "N3w#Secret"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, authsvc.ErrInvalidResetToken.Error(), errMessage(out))

	require.NoError(t, authsvc.TrackSession(context.Background(), f.h.Rdb, u.ID.String(), "old-session"))
	resp, _ = f.do(t, "POST", "/reset-password", map[string]string{"token": token, "password": "N3w#Secret"}, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, f.mr.Exists(authsvc.UserSessionsPrefix+u.ID.String()))

	resp, _ = f.do(t, "POST", "/login", map[string]string{"email": u.Email, "password": "N3w#Secret"}, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
