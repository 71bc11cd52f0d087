package auth

import (
	authsvc "stablebricks-backend/internal/application/auth"
	usersvc "stablebricks-backend/internal/application/user"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers serves /api/v1/auth.
type Handlers struct {
	Auth   *authsvc.Service
	Users  *usersvc.Service
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

var registerStatuses = response.StatusMap{
	usersvc.ErrNameRequired: fiber.StatusBadRequest,
	usersvc.ErrInvalidName:  fiber.StatusBadRequest,
	usersvc.ErrInvalidEmail: fiber.StatusBadRequest,
	usersvc.ErrWeakPassword: fiber.StatusBadRequest,
	usersvc.ErrInvalidPhone: fiber.StatusBadRequest,
	usersvc.ErrEmailTaken:   fiber.StatusConflict,
}

var loginStatuses = response.StatusMap{
	authsvc.ErrEmailPasswordRequired: fiber.StatusBadRequest,
	authsvc.ErrInvalidEmail:          fiber.StatusUnauthorized,
	authsvc.ErrIncorrectPassword:     fiber.StatusUnauthorized,
}

var resetStatuses = response.StatusMap{
	authsvc.ErrInvalidResetToken: fiber.StatusBadRequest,
	authsvc.ErrWeakPassword:      fiber.StatusBadRequest,
	authsvc.ErrResetUnavailable:  fiber.StatusServiceUnavailable,
}

// startSession issues a fresh session id for u, records it under the user's session set and sets the cookie.
func (h *Handlers) startSession(c *fiber.Ctx, u *domain.User) (authsvc.SessionUser, error) {
	sid := middleware.RegenerateSessionID(c)
	su := authsvc.NewSessionUser(u)
	middleware.SetSessionUser(c, su)
	if err := authsvc.TrackSession(c.UserContext(), h.Rdb, su.UserID, sid); err != nil {
		return su, err
	}
	c.Cookie(middleware.SessionCookie(h.Config, sid))
	return su, nil
}

// Register POST /api/v1/auth/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in usersvc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	u, err := h.Users.Register(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err, registerStatuses, "Registration failed")
	}
	su, err := h.startSession(c, u)
	if err != nil {
		log.Error().Err(err).Str("user_id", su.UserID).Msg("session tracking failed after register")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.SuccessCreated(c, "Registration successful", fiber.Map{
		"user":          su,
		"referral_code": u.ReferralCode,
	}, nil)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrEmailPasswordRequired.Error())
	}
	u, err := h.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return response.FromError(c, err, loginStatuses, "Internal Server Error")
	}
	su, err := h.startSession(c, u)
	if err != nil {
		log.Error().Err(err).Str("user_id", su.UserID).Msg("session tracking failed after login")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": su}, nil)
}

// Me GET /api/v1/auth/me returns the session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		if middleware.GetSessionID(c) != "" {
			log.Debug().Str("path", c.Path()).Msg("session id present but no user in session data")
		}
		return response.Unauthorized(c, authsvc.ErrNotAuthenticated.Error())
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": authsvc.SessionUser{
		UserID: p.UserID.String(),
		Name:   p.Name,
		Email:  p.Email,
		Role:   p.Role,
	}}, nil)
}

// Logout DELETE /api/v1/auth/logout removes the session from Redis and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if sid := middleware.GetSessionID(c); sid != "" {
		userID := ""
		if p, ok := middleware.CurrentPrincipal(c); ok {
			userID = p.UserID.String()
		}
		authsvc.ForgetSession(c.UserContext(), h.Rdb, userID, sid)
	}
	middleware.DestroySession(c)
	c.Cookie(middleware.ExpiredSessionCookie(h.Config))
	return response.Success(c, "Logged out successfully", nil, nil)
}

// ForgotPassword POST /api/v1/auth/forgot-password always answers 200.
func (h *Handlers) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.BodyParser(&req)
	if err := h.Auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		log.Error().Err(err).Msg("password reset request failed")
	}
	return response.Success(c, "If the email is registered, a reset link has been sent", nil, nil)
}

// ResetPassword POST /api/v1/auth/reset-password.
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return response.BadRequest(c, authsvc.ErrInvalidResetToken.Error())
	}
	if err := h.Auth.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return response.FromError(c, err, resetStatuses, "Internal Server Error")
	}
	return response.Success(c, "Password has been reset", nil, nil)
}
