package tokens

import (
	"encoding/base64"
	"testing"
	"time"

	"sitehub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{ID: 42, Username: "alice", Email: "alice@example.com", Password: "$2a$hash"}
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()
	signer := NewSigner("secret")

	token, sess, err := signer.IssueSession(testUser(), time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.JTI)

	parsed, err := signer.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), parsed.UserID)
	assert.Equal(t, "alice", parsed.Username)
	assert.Equal(t, sess.JTI, parsed.JTI)
}

func TestParseSession_Rejects(t *testing.T) {
	t.Parallel()
	signer := NewSigner("secret")
	token, _, err := signer.IssueSession(testUser(), time.Hour)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewSigner("other").ParseSession(token)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		later := signer.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
		_, err := later.ParseSession(token)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("link token is not a session", func(t *testing.T) {
		link, err := signer.IssueLink(PurposeActivate, testUser(), "", time.Hour)
		require.NoError(t, err)
		_, err = signer.ParseSession(link)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("unsigned", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "42", "iss": Issuer, "aud": SessionAudience})
		raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = signer.ParseSession(raw)
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestIssueSession_RequiresSecret(t *testing.T) {
	t.Parallel()
	_, _, err := NewSigner("").IssueSession(testUser(), time.Hour)
	assert.Error(t, err)
}

func TestLinkLifecycle(t *testing.T) {
	t.Parallel()
	signer := NewSigner("secret")
	user := testUser()

	token, err := signer.IssueLink(PurposeResetPassword, user, "", time.Hour)
	require.NoError(t, err)

	link, err := signer.VerifyLink(PurposeResetPassword, token, user)
	require.NoError(t, err)
	assert.Equal(t, user.ID, link.UserID)

	_, err = signer.VerifyLink(PurposeActivate, token, user)
	assert.ErrorIs(t, err, ErrInvalid, "purpose is bound")

	other := testUser()
	other.ID = 7
	_, err = signer.VerifyLink(PurposeResetPassword, token, other)
	assert.ErrorIs(t, err, ErrInvalid, "subject is bound")

	user.Password = "$2a$newhash"
	_, err = signer.VerifyLink(PurposeResetPassword, token, user)
	assert.ErrorIs(t, err, ErrInvalid, "password change revokes the link")
}

func TestLink_ActivationRevokedOnceActive(t *testing.T) {
	t.Parallel()
	signer := NewSigner("secret")
	user := testUser()

	token, err := signer.IssueLink(PurposeActivate, user, "", time.Hour)
	require.NoError(t, err)

	user.IsActive = true
	_, err = signer.VerifyLink(PurposeActivate, token, user)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLink_CarriesPendingEmail(t *testing.T) {
	t.Parallel()
	signer := NewSigner("secret")
	user := testUser()

	token, err := signer.IssueLink(PurposeChangeEmail, user, "new@example.com", time.Hour)
	require.NoError(t, err)

	link, err := signer.VerifyLink(PurposeChangeEmail, token, user)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", link.Email)
}

func TestLink_Expires(t *testing.T) {
	t.Parallel()
	signer := NewSigner("secret")
	user := testUser()
	token, err := signer.IssueLink(PurposeActivate, user, "", time.Minute)
	require.NoError(t, err)

	later := signer.WithClock(func() time.Time { return time.Now().Add(time.Hour) })
	_, err = later.VerifyLink(PurposeActivate, token, user)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUID(t *testing.T) {
	t.Parallel()

	encoded := EncodeUID(42)
	assert.Equal(t, "NDI", encoded)

	id, err := DecodeUID(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "!!", rawUID("abc"), rawUID("0")} {
		_, err := DecodeUID(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func rawUID(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	u := testUser()
	before := Fingerprint(u)
	assert.Len(t, before, 32)

	now := time.Now()
	u.LastLogin = &now
	assert.NotEqual(t, before, Fingerprint(u))
}
