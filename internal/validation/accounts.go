package validation

import (
	"context"
	"unicode/utf8"
)

// Messages shared with callers that perform the same checks.
const (
	MsgNameTooShort      = "Name is too Short"
	MsgEmailMismatch     = "The new email addresses do not match."
	MsgEmailTaken        = "This email is already taken by another user."
	MsgPasswordsMismatch = "The two password fields didn't match."
)

// SignUpForm registers a site account. Password1 and Password2 are collected
// here but their equality is checked by the account service.
type SignUpForm struct {
	Username  string `json:"username" form:"username" validate:"required,max=150"`
	Email     string `json:"email" form:"email" validate:"required,email,max=254"`
	Password1 string `json:"password1" form:"password1" validate:"required,max=128"`
	Password2 string `json:"password2" form:"password2" validate:"required,max=128"`
}

func (f *SignUpForm) normalize() {
	trim(&f.Username, &f.Email)
}

// Validate checks the tags and that the username is longer than three characters.
func (f *SignUpForm) Validate() Errors {
	errs := Check(f)
	if !errs.Has("username") && utf8.RuneCountInString(f.Username) <= 3 {
		errs.Add("username", MsgNameTooShort)
	}
	return errs
}

// LogInForm authenticates a site account.
type LogInForm struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

func (f *LogInForm) normalize() {
	trim(&f.Username)
}

// EmailOwnerLookup reports whether any account other than exceptID owns an
// email address. An exceptID of zero excludes nobody.
type EmailOwnerLookup interface {
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
}

// EmailChangeForm requests a new email address for the signed-in account.
type EmailChangeForm struct {
	NewEmail     string `json:"new_email" form:"new_email" validate:"required,email,max=254"`
	ConfirmEmail string `json:"confirm_email" form:"confirm_email" validate:"required,email,max=254"`
}

func (f *EmailChangeForm) normalize() {
	trim(&f.NewEmail, &f.ConfirmEmail)
}

// Validate checks both addresses, then that they match, then that nobody
// already owns the new address. The cross-field checks run only once both
// fields are individually valid; their errors are keyed models.NonFieldKey.
// The returned error is non-nil only when the lookup itself failed.
func (f *EmailChangeForm) Validate(ctx context.Context, owners EmailOwnerLookup) (Errors, error) {
	errs := Check(f)
	if len(errs) > 0 {
		return errs, nil
	}
	if f.NewEmail != f.ConfirmEmail {
		errs.AddNonField(MsgEmailMismatch)
		return errs, nil
	}
	taken, err := owners.EmailTaken(ctx, f.NewEmail, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		errs.AddNonField(MsgEmailTaken)
	}
	return errs, nil
}

// PasswordForgotForm asks for a password reset link.
type PasswordForgotForm struct {
	Email string `json:"email" form:"email" validate:"required,email,max=254"`
}

func (f *PasswordForgotForm) normalize() {
	trim(&f.Email)
}

// PasswordResetForm sets a new password from a reset link.
type PasswordResetForm struct {
	NewPassword     string `json:"new_password" form:"new_password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_new_password" form:"confirm_new_password" validate:"required,eqfield=NewPassword"`
}

// ProfileForm edits the public profile of the signed-in account.
type ProfileForm struct {
	Bio string `json:"bio" form:"bio" validate:"max=2000"`
}

func (f *ProfileForm) normalize() {
	trim(&f.Bio)
}
