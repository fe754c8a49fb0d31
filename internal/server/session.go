package server

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"sitehub/internal/cache"
	"sitehub/internal/middleware"
	"sitehub/internal/models"
	"sitehub/internal/tokens"

	"github.com/gofiber/fiber/v2"
)

// sessionCookie is the name of the cookie carrying the session token.
const sessionCookie = "session"

// issueSession signs a session token for user and sets it as an HTTP-only cookie.
func (s *Server) issueSession(c *fiber.Ctx, user *models.User) (string, error) {
	token, sess, err := s.signer.IssueSession(user, tokens.SessionTTL)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return token, nil
}

// sessionToken returns the bearer token, or the session cookie when no
// Authorization header is present.
func sessionToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(sessionCookie)
}

// currentSession parses and checks the request's session token. The result
// is memoized in locals for the rest of the request.
func (s *Server) currentSession(c *fiber.Ctx) (tokens.Session, bool) {
	if sess, ok := c.Locals("session").(tokens.Session); ok {
		return sess, true
	}
	raw := sessionToken(c)
	if raw == "" {
		return tokens.Session{}, false
	}
	sess, err := s.signer.ParseSession(raw)
	if err != nil {
		return tokens.Session{}, false
	}
	if s.revoked(c, sess.JTI) {
		return tokens.Session{}, false
	}
	c.Locals("session", sess)
	return sess, true
}

// revoked reports whether jti was logged out. Without Redis nothing is revoked.
func (s *Server) revoked(c *fiber.Ctx, jti string) bool {
	if s.redis == nil || jti == "" {
		return false
	}
	n, err := s.redis.Exists(c.UserContext(), cache.BlacklistKey(jti)).Result()
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "session blacklist lookup failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}

// sessionUser loads the signed-in user, or nil for anonymous requests.
func (s *Server) sessionUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user
	}
	sess, ok := s.currentSession(c)
	if !ok {
		return nil
	}
	user, err := s.userRepo.GetByID(c.UserContext(), sess.UserID)
	if err != nil {
		return nil
	}
	c.Locals("user", user)
	return user
}

// AuthRequired returns the authentication middleware. Page requests without a
// session are sent to the login page; API requests get 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := s.currentSession(c)
		if !ok {
			if !wantsJSON(c) && c.Method() == fiber.MethodGet {
				return c.Redirect("/accounts/login/?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusSeeOther)
			}
			return s.fail(c, models.NewUnauthorizedError("Authorization required"))
		}

		c.Locals("userID", sess.UserID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), sess.UserID))
		return c.Next()
	}
}

// StaffRequired returns middleware that rejects non-staff users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return s.fail(c, models.NewUnauthorizedError("Authorization required"))
			}
			return s.fail(c, err)
		}
		if !user.IsStaff {
			return s.fail(c, models.NewForbiddenError("Staff access required"))
		}
		c.Locals("user", user)
		return c.Next()
	}
}

// revokeSession blacklists the current session until it would have expired
// and clears the cookie.
func (s *Server) revokeSession(c *fiber.Ctx) {
	if sess, ok := s.currentSession(c); ok && s.redis != nil {
		ttl := time.Until(sess.ExpiresAt)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), cache.BlacklistKey(sess.JTI), "1", ttl).Err(); err != nil {
				middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session", slog.String("error", err.Error()))
			}
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
