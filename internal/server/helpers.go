package server

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"sitehub/internal/middleware"
	"sitehub/internal/models"
	"sitehub/internal/render"
	"sitehub/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const msgServerError = "Something went wrong on our side. Please try again later."

// wantsJSON reports whether the caller expects a JSON response rather than a page.
func wantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return true
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

// pageParam reads the page query parameter. Missing or unparseable values
// resolve to the first page; the services clamp the rest.
func pageParam(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = s.fail(c, models.NewValidationError("Invalid "+strings.ToUpper(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes a JSON, urlencoded or multipart body into form.
// On failure it writes a 400 response and returns errResponseWritten.
func (s *Server) parseBody(c *fiber.Ctx, form any) error {
	if err := c.BodyParser(form); err != nil {
		_ = s.fail(c, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// currentUserID returns the user ID stored by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// fail writes err as JSON for API callers and as the error page otherwise.
// Internal errors are logged and reported with a generic message.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	if wantsJSON(c) {
		return models.RespondWithError(c, status, err)
	}

	message := msgServerError
	var appErr *models.AppError
	if status < fiber.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	return s.renderStatus(c, status, message)
}

// renderStatus renders the error page, falling back to plain text when the
// page itself cannot be rendered.
func (s *Server) renderStatus(c *fiber.Ctx, status int, message string) error {
	err := s.render(c, status, render.PageError, fiber.Map{
		"Title":   "Error",
		"Code":    status,
		"Message": message,
	})
	if err != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

// render renders a page inside the site layout. The signed-in user, if any,
// is added for the navigation bar.
func (s *Server) render(c *fiber.Ctx, status int, page string, data fiber.Map) error {
	if _, ok := data["User"]; !ok {
		if user := s.sessionUser(c); user != nil {
			data["User"] = user
		}
	}
	return c.Status(status).Render(page, data, render.Layout)
}

// formUpload reads an optional uploaded file. Requests that are not multipart
// or carry no file under field yield nil.
func (s *Server) formUpload(c *fiber.Ctx, field string) (*storage.Upload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	limit := s.images.MaxSizeBytes
	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

// safeNext returns next when it is a local path, otherwise fallback.
func safeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	return next
}
