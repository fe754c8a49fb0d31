package server

import (
	"errors"

	"sitehub/internal/models"
	"sitehub/internal/render"
	"sitehub/internal/service"
	"sitehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// formPage describes an account form page. Pages post back to their own URL.
type formPage struct {
	title   string
	message string
	submit  string
	fields  []render.FormField
}

var (
	registerForm = formPage{
		title:  "Sign up",
		submit: "Create account",
		fields: []render.FormField{
			{Name: "username", Label: "Username", Type: "text"},
			{Name: "email", Label: "Email", Type: "email"},
			{Name: "password1", Label: "Password", Type: "password"},
			{Name: "password2", Label: "Confirm password", Type: "password"},
		},
	}
	loginForm = formPage{
		title:  "Log in",
		submit: "Log in",
		fields: []render.FormField{
			{Name: "username", Label: "Username", Type: "text"},
			{Name: "password", Label: "Password", Type: "password"},
		},
	}
	passwordForgotForm = formPage{
		title:   "Reset password",
		message: "Enter the email address of your account and we will send you a reset link.",
		submit:  "Send link",
		fields: []render.FormField{
			{Name: "email", Label: "Email", Type: "email"},
		},
	}
	passwordResetForm = formPage{
		title:  "Choose a new password",
		submit: "Set password",
		fields: []render.FormField{
			{Name: "new_password", Label: "New password", Type: "password"},
			{Name: "confirm_new_password", Label: "Confirm new password", Type: "password"},
		},
	}
	emailChangeForm = formPage{
		title:  "Change email",
		submit: "Send confirmation",
		fields: []render.FormField{
			{Name: "new_email", Label: "New email", Type: "email"},
			{Name: "confirm_email", Label: "Confirm new email", Type: "email"},
		},
	}
)

// renderForm renders page with the submitted values (passwords excluded) and errs.
func (s *Server) renderForm(c *fiber.Ctx, status int, page formPage, errs map[string][]string) error {
	if errs == nil {
		errs = map[string][]string{}
	}
	fields := make([]render.FormField, len(page.fields))
	for i, f := range page.fields {
		if f.Type != "password" {
			f.Value = c.FormValue(f.Name)
		}
		fields[i] = f
	}
	return s.render(c, status, render.PageAccountForm, fiber.Map{
		"Title":   page.title,
		"Message": page.message,
		"Action":  c.OriginalURL(),
		"Fields":  fields,
		"Errors":  errs,
		"Submit":  page.submit,
	})
}

// formFailure reports a failed form submission. Page requests see the form
// again with the errors attached; API callers and internal errors go to fail.
func (s *Server) formFailure(c *fiber.Ctx, page formPage, err error) error {
	status := models.StatusFor(err)
	var appErr *models.AppError
	if wantsJSON(c) || status >= fiber.StatusInternalServerError || !errors.As(err, &appErr) {
		return s.fail(c, err)
	}
	errs := appErr.Fields
	if len(errs) == 0 {
		errs = map[string][]string{models.NonFieldKey: {appErr.Message}}
	}
	return s.renderForm(c, status, page, errs)
}

// notice answers a completed account action with a message page or JSON.
func (s *Server) notice(c *fiber.Ctx, status int, title, message, next string) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
	return s.render(c, status, render.PageAccountNotice, fiber.Map{
		"Title":   title,
		"Message": message,
		"Next":    next,
	})
}

// RegisterPage handles GET /accounts/register/
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return s.renderForm(c, fiber.StatusOK, registerForm, nil)
}

// Register handles POST /accounts/register/
// @Summary Register a site account
// @Description Creates an inactive account and emails an activation link
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body validation.SignUpForm true "Account"
// @Success 201 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /accounts/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var form validation.SignUpForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	if _, err := s.accountService.Register(c.UserContext(), form); err != nil {
		return s.formFailure(c, registerForm, err)
	}
	return s.notice(c, fiber.StatusCreated, "Check your email",
		"Your account was created. Follow the link we emailed you to activate it.", "")
}

// Activate handles GET /activate/:uidb64/:token/
func (s *Server) Activate(c *fiber.Ctx) error {
	if _, err := s.accountService.Activate(c.UserContext(), c.Params("uidb64"), c.Params("token")); err != nil {
		return s.fail(c, err)
	}
	return s.notice(c, fiber.StatusOK, "Account activated",
		"Your account is active. You can now log in.", "/accounts/login/")
}

// LoginPage handles GET /accounts/login/
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.renderForm(c, fiber.StatusOK, loginForm, nil)
}

// Login handles POST /accounts/login/
// @Summary Log in
// @Description Starts a session. The token is also set as an HTTP-only cookie.
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body validation.LogInForm true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /accounts/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LogInForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	user, err := s.accountService.Login(c.UserContext(), form)
	if err != nil {
		return s.formFailure(c, loginForm, err)
	}
	token, err := s.issueSession(c, user)
	if err != nil {
		return s.fail(c, err)
	}
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"token": token, "user": user})
	}
	return c.Redirect(safeNext(c.Query("next"), "/profile/"), fiber.StatusSeeOther)
}

// Logout handles POST /accounts/logout/
// @Summary Log out
// @Description Revokes the current session
// @Tags accounts
// @Produce json
// @Success 200 {object} map[string]string
// @Router /accounts/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	s.revokeSession(c)
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"message": "Logged out"})
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// PasswordForgotPage handles GET /request-reset-password/
func (s *Server) PasswordForgotPage(c *fiber.Ctx) error {
	return s.renderForm(c, fiber.StatusOK, passwordForgotForm, nil)
}

// RequestPasswordReset handles POST /request-reset-password/
// @Summary Request a password reset link
// @Description Answers the same way whether or not an account uses the address
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body validation.PasswordForgotForm true "Email"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Router /request-reset-password [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var form validation.PasswordForgotForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	if err := s.accountService.RequestPasswordReset(c.UserContext(), form); err != nil {
		return s.formFailure(c, passwordForgotForm, err)
	}
	return s.notice(c, fiber.StatusOK, "Check your email",
		"If an account uses that address, we sent it a link to reset the password.", "")
}

// PasswordResetPage handles GET /set-new-password/:uidb64/:token/
func (s *Server) PasswordResetPage(c *fiber.Ctx) error {
	if err := s.accountService.CheckResetLink(c.UserContext(), c.Params("uidb64"), c.Params("token")); err != nil {
		return s.fail(c, err)
	}
	return s.renderForm(c, fiber.StatusOK, passwordResetForm, nil)
}

// ResetPassword handles POST /set-new-password/:uidb64/:token/
// @Summary Set a new password from a reset link
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param uidb64 path string true "Encoded user ID"
// @Param token path string true "Reset token"
// @Param request body validation.PasswordResetForm true "New password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Router /set-new-password/{uidb64}/{token} [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var form validation.PasswordResetForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	err := s.accountService.ResetPassword(c.UserContext(), c.Params("uidb64"), c.Params("token"), form)
	if errors.Is(err, service.ErrInvalidLink) {
		return s.fail(c, err)
	}
	if err != nil {
		return s.formFailure(c, passwordResetForm, err)
	}
	return s.notice(c, fiber.StatusOK, "Password changed",
		"Your password has been set. You can now log in with it.", "/accounts/login/")
}

// EmailChangePage handles GET /change-email/
func (s *Server) EmailChangePage(c *fiber.Ctx) error {
	return s.renderForm(c, fiber.StatusOK, emailChangeForm, nil)
}

// RequestEmailChange handles POST /change-email/
// @Summary Request an email change
// @Description Emails a confirmation link to the new address
// @Tags accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param request body validation.EmailChangeForm true "New email"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Router /change-email [post]
func (s *Server) RequestEmailChange(c *fiber.Ctx) error {
	var form validation.EmailChangeForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	if err := s.accountService.RequestEmailChange(c.UserContext(), currentUserID(c), form); err != nil {
		return s.formFailure(c, emailChangeForm, err)
	}
	return s.notice(c, fiber.StatusOK, "Check your email",
		"We sent a confirmation link to the new address.", "/profile/")
}

// ConfirmEmailChange handles GET /confirm-email-change/:uidb64/:token/
func (s *Server) ConfirmEmailChange(c *fiber.Ctx) error {
	if _, err := s.accountService.ConfirmEmailChange(c.UserContext(), c.Params("uidb64"), c.Params("token")); err != nil {
		return s.fail(c, err)
	}
	return s.notice(c, fiber.StatusOK, "Email changed",
		"Your email address has been updated.", "/profile/")
}
