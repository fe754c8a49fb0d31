package server

import (
	"sitehub/internal/render"
	"sitehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// homeProducts is the number of products featured on the home page.
const homeProducts = 4

// HomePage handles GET /
func (s *Server) HomePage(c *fiber.Ctx) error {
	recent, _, err := s.blogService.SideLists(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	products, err := s.storeService.ListProducts(c.UserContext(), "", 1)
	if err != nil {
		return s.fail(c, err)
	}
	items := products.Items
	if len(items) > homeProducts {
		items = items[:homeProducts]
	}
	return s.render(c, fiber.StatusOK, render.PageHome, fiber.Map{
		"Title":    "Home",
		"Recent":   recent,
		"Products": items,
	})
}

// AboutPage handles GET /about/
func (s *Server) AboutPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, render.PageAbout, fiber.Map{"Title": "About"})
}

// ServicesPage handles GET /services/
func (s *Server) ServicesPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, render.PageServices, fiber.Map{"Title": "Services"})
}

// ProfilePage handles GET /profile/
func (s *Server) ProfilePage(c *fiber.Ctx) error {
	view, err := s.profileService.Get(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return s.render(c, fiber.StatusOK, render.PageProfile, fiber.Map{
		"Title":   "Profile",
		"User":    view.User,
		"Profile": view.Profile,
	})
}

// GetMyProfile handles GET /api/profile
// @Summary Get current user's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ProfileView
// @Failure 401 {object} models.ErrorResponse
// @Router /profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	view, err := s.profileService.Get(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(view)
}

// UpdateMyProfile handles PUT /api/profile
// @Summary Update current user's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.ProfileForm true "Profile"
// @Success 200 {object} service.ProfileView
// @Failure 400 {object} models.ErrorResponse
// @Router /profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var form validation.ProfileForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	view, err := s.profileService.Update(c.UserContext(), currentUserID(c), form)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(view)
}
