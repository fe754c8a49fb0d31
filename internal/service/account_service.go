package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sitehub/internal/mail"
	"sitehub/internal/middleware"
	"sitehub/internal/models"
	"sitehub/internal/observability"
	"sitehub/internal/repository"
	"sitehub/internal/tokens"
	"sitehub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt cost for new password hashes.
var passwordCost = bcrypt.DefaultCost

const (
	msgInvalidCredentials = "Invalid username or password"
	msgInactiveAccount    = "This account is not active. Check your email for the activation link."
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// authenticate returns the user owning username when password matches.
func authenticate(ctx context.Context, users repository.UserRepository, username, password string) (*models.User, error) {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}
	return user, nil
}

type AccountService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	signer   *tokens.Signer
	mailer   mail.Mailer
	siteURL  string
	now      func() time.Time
}

func NewAccountService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	signer *tokens.Signer,
	mailer mail.Mailer,
	siteURL string,
) *AccountService {
	return &AccountService{
		users:    users,
		profiles: profiles,
		signer:   signer,
		mailer:   mailer,
		siteURL:  strings.TrimRight(siteURL, "/"),
		now:      time.Now,
	}
}

// Register creates an inactive account with an empty profile and emails an
// activation link.
func (s *AccountService) Register(ctx context.Context, form validation.SignUpForm) (*models.User, error) {
	errs := form.Validate()
	if !errs.Has("password1") && !errs.Has("password2") && form.Password1 != form.Password2 {
		errs.Add("password2", validation.MsgPasswordsMismatch)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(form.Password1)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
		IsActive: false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, &models.Profile{UserID: user.ID}); err != nil {
		return nil, err
	}
	observability.AccountEvents.WithLabelValues("registered").Inc()

	s.sendLink(ctx, user, tokens.PurposeActivate, user.Email, "", "Activate your account",
		"Hi %s,\n\nPlease click the link below to activate your account:\n\n%s\n")
	return user, nil
}

// Activate marks the account named by an activation link as active.
func (s *AccountService) Activate(ctx context.Context, uidb64, token string) (*models.User, error) {
	user, _, err := s.verifyLink(ctx, tokens.PurposeActivate, uidb64, token)
	if err != nil {
		return nil, err
	}
	user.IsActive = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	observability.AccountEvents.WithLabelValues("activated").Inc()
	return user, nil
}

// Login checks credentials and records the sign-in time. Inactive accounts are refused.
func (s *AccountService) Login(ctx context.Context, form validation.LogInForm) (*models.User, error) {
	if err := validation.Check(&form).Err(); err != nil {
		return nil, err
	}
	user, err := authenticate(ctx, s.users, form.Username, form.Password)
	if err != nil {
		observability.AccountEvents.WithLabelValues("login_failed").Inc()
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewForbiddenError(msgInactiveAccount)
	}
	if err := s.touchLogin(ctx, user); err != nil {
		return nil, err
	}
	observability.AccountEvents.WithLabelValues("login").Inc()
	return user, nil
}

func (s *AccountService) touchLogin(ctx context.Context, user *models.User) error {
	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return err
	}
	user.LastLogin = &now
	return nil
}

// RequestPasswordReset emails a reset link when an account owns the address.
// It reports success either way so callers cannot discover which accounts exist.
func (s *AccountService) RequestPasswordReset(ctx context.Context, form validation.PasswordForgotForm) error {
	if err := validation.Check(&form).Err(); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, form.Email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	s.sendLink(ctx, user, tokens.PurposeResetPassword, user.Email, "", "Reset your password",
		"Hi %s,\n\nUse the link below to choose a new password:\n\n%s\n")
	return nil
}

// CheckResetLink reports whether a password reset link is still usable.
func (s *AccountService) CheckResetLink(ctx context.Context, uidb64, token string) error {
	_, _, err := s.verifyLink(ctx, tokens.PurposeResetPassword, uidb64, token)
	return err
}

// ResetPassword sets a new password from a reset link. The new hash changes
// the account state, so the link cannot be used twice.
func (s *AccountService) ResetPassword(ctx context.Context, uidb64, token string, form validation.PasswordResetForm) error {
	user, _, err := s.verifyLink(ctx, tokens.PurposeResetPassword, uidb64, token)
	if err != nil {
		return err
	}
	if err := validation.Check(&form).Err(); err != nil {
		return err
	}
	hash, err := HashPassword(form.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	observability.AccountEvents.WithLabelValues("password_reset").Inc()
	return nil
}

// RequestEmailChange validates the new address and emails a confirmation link to it.
func (s *AccountService) RequestEmailChange(ctx context.Context, userID uint, form validation.EmailChangeForm) error {
	errs, err := form.Validate(ctx, s.users)
	if err != nil {
		return err
	}
	if err := errs.Err(); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	s.sendLink(ctx, user, tokens.PurposeChangeEmail, form.NewEmail, form.NewEmail, "Confirm your new email address",
		"Hi %s,\n\nClick the link below to confirm your new email address:\n\n%s\n")
	return nil
}

// ConfirmEmailChange applies the address carried by a confirmation link,
// unless another account has claimed it in the meantime.
func (s *AccountService) ConfirmEmailChange(ctx context.Context, uidb64, token string) (*models.User, error) {
	user, link, err := s.verifyLink(ctx, tokens.PurposeChangeEmail, uidb64, token)
	if err != nil {
		return nil, err
	}
	taken, err := s.users.EmailTaken(ctx, link.Email, user.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("User", "email")
	}
	user.Email = link.Email
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	observability.AccountEvents.WithLabelValues("email_changed").Inc()
	return user, nil
}

func (s *AccountService) verifyLink(ctx context.Context, purpose, uidb64, token string) (*models.User, tokens.Link, error) {
	id, err := tokens.DecodeUID(uidb64)
	if err != nil {
		return nil, tokens.Link{}, ErrInvalidLink
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, tokens.Link{}, ErrInvalidLink
		}
		return nil, tokens.Link{}, err
	}
	link, err := s.signer.VerifyLink(purpose, token, user)
	if err != nil {
		return nil, tokens.Link{}, ErrInvalidLink
	}
	return user, link, nil
}

// LinkPath is the site path an emailed link for purpose points at.
func LinkPath(purpose, uidb64, token string) string {
	switch purpose {
	case tokens.PurposeActivate:
		return fmt.Sprintf("/activate/%s/%s/", uidb64, token)
	case tokens.PurposeResetPassword:
		return fmt.Sprintf("/set-new-password/%s/%s/", uidb64, token)
	default:
		return fmt.Sprintf("/confirm-email-change/%s/%s/", uidb64, token)
	}
}

// sendLink signs a link for user and mails it to "to". Delivery failures are
// logged: the account change that triggered the mail has already happened.
func (s *AccountService) sendLink(ctx context.Context, user *models.User, purpose, to, pendingEmail, subject, bodyFmt string) {
	token, err := s.signer.IssueLink(purpose, user, pendingEmail, tokens.LinkTTL)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to sign account link", slog.String("purpose", purpose), slog.String("error", err.Error()))
		return
	}
	url := s.siteURL + LinkPath(purpose, tokens.EncodeUID(user.ID), token)
	msg := mail.Message{
		To:      to,
		Subject: subject,
		Body:    fmt.Sprintf(bodyFmt, user.Username, url),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to send account email",
			slog.String("purpose", purpose),
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
	}
}
