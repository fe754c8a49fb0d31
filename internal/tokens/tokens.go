// Package tokens issues and verifies the signed tokens used for sessions and
// for emailed account links.
package tokens

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sitehub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token issuer and audiences.
const (
	Issuer          = "sitehub"
	SessionAudience = "sitehub-web"
	linkAudience    = "sitehub-link"
)

// Link purposes. A link issued for one purpose is rejected for any other.
const (
	PurposeActivate      = "activate"
	PurposeResetPassword = "reset-password"
	PurposeChangeEmail   = "change-email"
)

// Default lifetimes.
const (
	SessionTTL = 7 * 24 * time.Hour
	LinkTTL    = 3 * 24 * time.Hour
)

// ErrInvalid is returned for any token that is malformed, expired, revoked
// by a state change or issued for another purpose.
var ErrInvalid = errors.New("invalid or expired token")

// Signer signs and verifies HS256 tokens with a shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer using secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of s that reads the time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Signer) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}

func (s *Signer) parser(audience string) *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
}

// Session identifies a signed-in user.
type Session struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// IssueSession signs a session token for user.
func (s *Signer) IssueSession(user *models.User, ttl time.Duration) (string, Session, error) {
	if len(s.secret) == 0 {
		return "", Session{}, fmt.Errorf("JWT secret not configured")
	}
	now := s.now()
	sess := Session{
		UserID:    user.ID,
		Username:  user.Username,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      Issuer,
		"aud":      SessionAudience,
		"exp":      sess.ExpiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      sess.JTI,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Session{}, err
	}
	return signed, sess, nil
}

// ParseSession verifies a session token and returns its identity.
func (s *Signer) ParseSession(tokenString string) (Session, error) {
	claims := jwt.MapClaims{}
	if _, err := s.parser(SessionAudience).ParseWithClaims(tokenString, claims, s.keyFunc); err != nil {
		return Session{}, ErrInvalid
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Session{}, ErrInvalid
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return Session{}, ErrInvalid
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return Session{}, ErrInvalid
	}
	jti, _ := claims["jti"].(string)
	username, _ := claims["username"].(string)
	return Session{UserID: uint(id), Username: username, JTI: jti, ExpiresAt: exp.Time}, nil
}

type linkClaims struct {
	Purpose string `json:"purpose"`
	State   string `json:"state"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Fingerprint summarizes the account state a link is bound to. Setting a
// password, changing the email, activating or signing in all change it.
func Fingerprint(u *models.User) string {
	var lastLogin int64
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.UTC().Unix()
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%s|%s|%t|%d", u.ID, u.Password, u.Email, u.IsActive, lastLogin))
	return hex.EncodeToString(sum[:16])
}

// IssueLink signs a token for purpose bound to the current state of user.
// email carries the pending address for PurposeChangeEmail and is empty otherwise.
func (s *Signer) IssueLink(purpose string, user *models.User, email string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := linkClaims{
		Purpose: purpose,
		State:   Fingerprint(user),
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{linkAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Link is a verified account link.
type Link struct {
	Purpose string
	UserID  uint
	Email   string
}

// VerifyLink checks that tokenString was issued for purpose to user and that
// user has not changed since.
func (s *Signer) VerifyLink(purpose, tokenString string, user *models.User) (Link, error) {
	var claims linkClaims
	if _, err := s.parser(linkAudience).ParseWithClaims(tokenString, &claims, s.keyFunc); err != nil {
		return Link{}, ErrInvalid
	}
	if claims.Purpose != purpose || claims.Subject != strconv.FormatUint(uint64(user.ID), 10) {
		return Link{}, ErrInvalid
	}
	if claims.State != Fingerprint(user) {
		return Link{}, ErrInvalid
	}
	return Link{Purpose: purpose, UserID: user.ID, Email: claims.Email}, nil
}

// EncodeUID renders a user id as URL-safe base64 for use in link paths.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(s string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrInvalid
	}
	id, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalid
	}
	return uint(id), nil
}
