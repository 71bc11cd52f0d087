package middleware

import (
	"encoding/json"
	"strings"
	"time"

	authsvc "stablebricks-backend/internal/application/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig controls the session cookie.
type SessionConfig struct {
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName = "stablebricks.sid"
	sessionMaxAge     = 24 * time.Hour

	localSessionData = "session_data"
	localSessionID   = "session_id"
)

// NewRedis parses a redis:// URL into a client.
func NewRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// Session loads the session named by the cookie from Redis into Locals and saves it back after the handler.
func Session(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)
		// "s:<id>.<signature>" cookies carry the id before the dot
		if strings.HasPrefix(sessionID, "s:") {
			sessionID = strings.SplitN(sessionID[2:], ".", 2)[0]
		}

		var data map[string]interface{}
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), authsvc.SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals(localSessionData, data)
		c.Locals(userLocal, data["user"])
		c.Locals(localSessionID, sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		sid, _ := c.Locals(localSessionID).(string)
		updated, _ := c.Locals(localSessionData).(map[string]interface{})
		if sid == "" || len(updated) == 0 {
			return nil
		}
		b, err := json.Marshal(updated)
		if err != nil {
			return err
		}
		if err := rdb.Set(c.UserContext(), authsvc.SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Msg("session save failed")
		}
		return nil
	}
}

// GetSessionID returns the current session id, empty when the request carried none.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(localSessionID).(string)
	return sid
}

// SetSessionUser stores the user in the session; call RegenerateSessionID first.
func SetSessionUser(c *fiber.Ctx, user authsvc.SessionUser) {
	data, _ := c.Locals(localSessionData).(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	data["user"] = user.Map()
	c.Locals(localSessionData, data)
	c.Locals(userLocal, data["user"])
}

// RegenerateSessionID issues a fresh session id for the response.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals(localSessionID, newID)
	return newID
}

// DestroySession clears the session from Locals; the caller removes the Redis key and cookie.
func DestroySession(c *fiber.Ctx) {
	c.Locals(localSessionData, make(map[string]interface{}))
	c.Locals(userLocal, nil)
	c.Locals(localSessionID, "")
}

// SessionCookie returns the cookie carrying sid.
func SessionCookie(cfg SessionConfig, sid string) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if cfg.AllowCrossSiteDev {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "s:" + sid,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

// ExpiredSessionCookie clears the session cookie in the browser.
func ExpiredSessionCookie(cfg SessionConfig) *fiber.Cookie {
	cookie := SessionCookie(cfg, "")
	cookie.Value = ""
	cookie.MaxAge = -1
	return cookie
}
