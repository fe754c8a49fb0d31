package service

import "sitehub/internal/models"

// ErrInvalidLink is returned for account links that are malformed, expired
// or no longer match the account.
var ErrInvalidLink = models.NewValidationError("The link is invalid or has expired.")
