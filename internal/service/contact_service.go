package service

import (
	"context"

	"sitehub/internal/models"
	"sitehub/internal/observability"
	"sitehub/internal/repository"
	"sitehub/internal/validation"
)

// ContactThanks is the message returned for an accepted contact submission.
const ContactThanks = "Thank you for your message!"

// ContactResult is the outcome of a contact form submission. Exactly one of
// Message and Errors is set.
type ContactResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

type ContactService struct {
	repo repository.ContactRepository
}

func NewContactService(repo repository.ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

// SubmitContact validates form and stores it. Invalid input yields a failed
// result and writes nothing; the error is reserved for store failures.
func (s *ContactService) SubmitContact(ctx context.Context, form validation.ContactForm) (res *ContactResult, err error) {
	ctx, end := observability.StartSpan(ctx, "ContactService.SubmitContact")
	defer func() { end(err) }()

	if errs := validation.Check(&form); len(errs) > 0 {
		observability.ContactSubmissions.WithLabelValues("invalid").Inc()
		return &ContactResult{Success: false, Errors: errs}, nil
	}

	submission := &models.ContactSubmission{
		Name:    form.Name,
		Email:   form.Email,
		Message: form.Message,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		observability.ContactSubmissions.WithLabelValues("error").Inc()
		return nil, err
	}

	observability.ContactSubmissions.WithLabelValues("success").Inc()
	return &ContactResult{Success: true, Message: ContactThanks}, nil
}

// ListSubmissions returns one page of submissions, newest first.
func (s *ContactService) ListSubmissions(ctx context.Context, page, size int) (models.Page[models.ContactSubmission], error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return models.Page[models.ContactSubmission]{}, err
	}
	window := models.ResolvePage(total, page, size)
	items, err := s.repo.List(ctx, window.Limit, window.Offset)
	if err != nil {
		return models.Page[models.ContactSubmission]{}, err
	}
	return models.NewPage(items, window, total), nil
}
