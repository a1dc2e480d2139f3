package server

import (
	"fmt"
	"strconv"
	"time"

	"racketlog/internal/cache"
	"racketlog/internal/models"
	"racketlog/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.userService.Register(c.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return mapServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusCreated)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}

	access, err := s.generateToken(user, "access", s.accessTokenTTL())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	refresh, err := s.generateToken(user, "refresh", s.refreshTokenTTL())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Refresh handles POST /api/auth/refresh. A valid, non-blacklisted refresh
// token yields a new access token; a blacklisted one can never mint again.
func (s *Server) Refresh(c *fiber.Ctx) error {
	claims, err := s.parseRefreshToken(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError(err.Error()))
	}

	// Revocation must fail closed here: minting a fresh access token for a
	// logged-out refresh token is worse than a temporary 503.
	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, blErr := cache.CheckTokenBlacklist(c.Context(), jti)
		if blErr != nil {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewUnavailableError("Token revocation check unavailable"))
		}
		if revoked {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}
	}

	userID, err := subjectUserID(claims)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid user ID in token"))
	}
	user, err := s.userService.GetUser(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Account no longer exists"))
	}

	access, err := s.generateToken(user, "access", s.accessTokenTTL())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"access_token": access,
	})
}

// Logout handles POST /api/auth/logout by blacklisting the refresh token's
// jti until its natural expiry.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, err := s.parseRefreshToken(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError(err.Error()))
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Token has no ID"))
	}

	ttl := time.Minute
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		if until := time.Until(exp.Time); until > ttl {
			ttl = until
		}
	}
	if err := cache.BlacklistToken(c.Context(), jti, ttl); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// CheckAuth handles GET /api/auth/check and returns the authenticated user.
func (s *Server) CheckAuth(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	user, err := s.userService.GetUser(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// parseRefreshToken reads the refresh token from the JSON body and validates
// it is a refresh-typed token.
func (s *Server) parseRefreshToken(c *fiber.Ctx) (jwt.MapClaims, error) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return nil, fmt.Errorf("refresh_token is required")
	}

	claims, err := s.parseToken(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired refresh token")
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, fmt.Errorf("refresh token required")
	}
	return claims, nil
}

// generateToken creates a signed JWT of the given type for the user.
func (s *Server) generateToken(user *models.User, typ string, ttl time.Duration) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"typ":   typ,
		"iss":   tokenIssuer,
		"aud":   tokenAudience,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"jti":   uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Server) accessTokenTTL() time.Duration {
	minutes := s.config.AccessTokenTTLMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Server) refreshTokenTTL() time.Duration {
	hours := s.config.RefreshTokenTTLHours
	if hours <= 0 {
		hours = 24 * 7
	}
	return time.Duration(hours) * time.Hour
}
