package service

import (
	"context"
	"errors"
	"testing"

	"sitehub/internal/models"
	"sitehub/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactServiceSubmitContact(t *testing.T) {
	var stored *models.ContactSubmission
	repo := &contactRepoStub{
		createFn: func(_ context.Context, s *models.ContactSubmission) error {
			stored = s
			return nil
		},
	}
	svc := NewContactService(repo)

	res, err := svc.SubmitContact(context.Background(), validation.ContactForm{
		Name:    " Ada ",
		Email:   "ada@example.com",
		Message: "Hello there",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, ContactThanks, res.Message)
	assert.Empty(t, res.Errors)
	require.NotNil(t, stored)
	assert.Equal(t, "Ada", stored.Name)
}

func TestContactServiceSubmitContactInvalidWritesNothing(t *testing.T) {
	tests := []struct {
		name  string
		form  validation.ContactForm
		field string
	}{
		{name: "bad email", form: validation.ContactForm{Name: "A", Email: "nope", Message: "hi"}, field: "email"},
		{name: "missing message", form: validation.ContactForm{Name: "A", Email: "a@example.com"}, field: "message"},
		{name: "missing name", form: validation.ContactForm{Email: "a@example.com", Message: "hi"}, field: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &contactRepoStub{
				createFn: func(context.Context, *models.ContactSubmission) error {
					t.Fatal("invalid submissions must not be stored")
					return nil
				},
			}
			res, err := NewContactService(repo).SubmitContact(context.Background(), tt.form)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Empty(t, res.Message)
			assert.True(t, res.Errors.Has(tt.field))
		})
	}
}

func TestContactServiceSubmitContactStoreFailure(t *testing.T) {
	repo := &contactRepoStub{
		createFn: func(context.Context, *models.ContactSubmission) error {
			return models.NewInternalError(errors.New("disk full"))
		},
	}
	res, err := NewContactService(repo).SubmitContact(context.Background(), validation.ContactForm{
		Name: "A", Email: "a@example.com", Message: "hi",
	})
	assert.Nil(t, res)
	assertCode(t, err, models.CodeInternal)
}

func TestContactServiceListSubmissions(t *testing.T) {
	repo := &contactRepoStub{
		countFn: func(context.Context) (int64, error) { return 25, nil },
		listFn: func(_ context.Context, limit, offset int) ([]models.ContactSubmission, error) {
			assert.Equal(t, 10, limit)
			assert.Equal(t, 20, offset)
			return []models.ContactSubmission{{ID: 1}}, nil
		},
	}
	page, err := NewContactService(repo).ListSubmissions(context.Background(), 7, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number)
	assert.Len(t, page.Items, 1)
}
