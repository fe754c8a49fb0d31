package server

import (
	"strconv"

	"sitehub/internal/render"
	"sitehub/internal/service"
	"sitehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultSubmissionPageSize = 20
	maxSubmissionPageSize     = 100
)

// ContactPage handles GET /contact/
func (s *Server) ContactPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, render.PageContact, fiber.Map{"Title": "Contact"})
}

// SubmitContact handles POST /contact/
// @Summary Submit the contact form
// @Description Always answers with a success flag; field errors come back with 400
// @Tags contact
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Param request body validation.ContactForm true "Contact message"
// @Success 200 {object} service.ContactResult
// @Failure 400 {object} service.ContactResult
// @Router /contact [post]
func (s *Server) SubmitContact(c *fiber.Ctx) error {
	var form validation.ContactForm
	if err := c.BodyParser(&form); err != nil {
		errs := validation.Errors{}
		errs.AddNonField("Invalid request body")
		return c.Status(fiber.StatusBadRequest).JSON(service.ContactResult{Success: false, Errors: errs})
	}
	res, err := s.contactService.SubmitContact(c.UserContext(), form)
	if err != nil {
		return s.fail(c, err)
	}
	status := fiber.StatusOK
	if !res.Success {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(res)
}

// GetContactSubmissions handles GET /api/contact
// @Summary List contact submissions
// @Tags contact
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Submissions per page (max 100)"
// @Success 200 {object} models.Page[models.ContactSubmission]
// @Failure 403 {object} models.ErrorResponse
// @Router /contact [get]
func (s *Server) GetContactSubmissions(c *fiber.Ctx) error {
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || size < 1 {
		size = defaultSubmissionPageSize
	}
	if size > maxSubmissionPageSize {
		size = maxSubmissionPageSize
	}
	page, err := s.contactService.ListSubmissions(c.UserContext(), pageParam(c), size)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(page)
}
