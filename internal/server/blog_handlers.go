package server

import (
	"sitehub/internal/render"
	"sitehub/internal/service"
	"sitehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// BlogListingPage handles GET /blogs/?search=&page=
func (s *Server) BlogListingPage(c *fiber.Ctx) error {
	search := c.Query("search")
	listing, err := s.blogService.ListBlogs(c.UserContext(), search, pageParam(c))
	if err != nil {
		return s.fail(c, err)
	}
	return s.render(c, fiber.StatusOK, render.PageBlogListing, fiber.Map{
		"Title":   "Blog",
		"Search":  search,
		"Page":    listing.Page,
		"Recent":  listing.Recent,
		"Popular": listing.Popular,
	})
}

// BlogDetailPage handles GET /blogs/:slug/
func (s *Server) BlogDetailPage(c *fiber.Ctx) error {
	detail, err := s.blogService.GetBlogDetail(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.fail(c, err)
	}
	return s.render(c, fiber.StatusOK, render.PageBlogDetail, fiber.Map{
		"Title":   detail.Blog.Title,
		"Blog":    detail.Blog,
		"Recent":  detail.Recent,
		"Popular": detail.Popular,
	})
}

// GetBlogs handles GET /api/blogs
// @Summary List blogs
// @Description Search blogs by title or content, three per page
// @Tags blogs
// @Produce json
// @Param search query string false "Case-insensitive substring"
// @Param page query int false "Page number (clamped)"
// @Success 200 {object} service.BlogListing
// @Router /blogs [get]
func (s *Server) GetBlogs(c *fiber.Ctx) error {
	listing, err := s.blogService.ListBlogs(c.UserContext(), c.Query("search"), pageParam(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listing)
}

// GetBlog handles GET /api/blogs/:slug
// @Summary Get blog by slug
// @Description Returns the blog and counts the read as a view
// @Tags blogs
// @Produce json
// @Param slug path string true "Blog slug"
// @Success 200 {object} service.BlogDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /blogs/{slug} [get]
func (s *Server) GetBlog(c *fiber.Ctx) error {
	detail, err := s.blogService.GetBlogDetail(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(detail)
}

// blogInput decodes a blog form and its optional featured image.
func (s *Server) blogInput(c *fiber.Ctx) (service.BlogInput, error) {
	var form validation.BlogForm
	if err := s.parseBody(c, &form); err != nil {
		return service.BlogInput{}, err
	}
	image, err := s.formUpload(c, "featured_image")
	if err != nil {
		_ = s.fail(c, err)
		return service.BlogInput{}, errResponseWritten
	}
	return service.BlogInput{Form: form, Image: image}, nil
}

// CreateBlog handles POST /api/blogs
// @Summary Create blog
// @Tags blogs
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body validation.BlogForm true "Blog"
// @Success 201 {object} models.Blog
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /blogs [post]
func (s *Server) CreateBlog(c *fiber.Ctx) error {
	in, err := s.blogInput(c)
	if err != nil {
		return nil
	}
	authorID := currentUserID(c)
	in.AuthorID = &authorID

	blog, err := s.blogService.CreateBlog(c.UserContext(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(blog)
}

// UpdateBlog handles PUT /api/blogs/:id
// @Summary Update blog
// @Description Edits a blog; the slug never changes
// @Tags blogs
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Blog ID"
// @Param request body validation.BlogForm true "Blog"
// @Success 200 {object} models.Blog
// @Failure 404 {object} models.ErrorResponse
// @Router /blogs/{id} [put]
func (s *Server) UpdateBlog(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := s.blogInput(c)
	if err != nil {
		return nil
	}
	blog, err := s.blogService.UpdateBlog(c.UserContext(), id, in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(blog)
}

// DeleteBlog handles DELETE /api/blogs/:id
// @Summary Delete blog
// @Tags blogs
// @Security BearerAuth
// @Param id path int true "Blog ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /blogs/{id} [delete]
func (s *Server) DeleteBlog(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.blogService.DeleteBlog(c.UserContext(), id); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCategories handles GET /api/categories
// @Summary List blog categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.List(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(categories)
}

// CreateCategory handles POST /api/categories
// @Summary Create blog category
// @Description The slug is derived from the name when not given
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validation.CategoryForm true "Category"
// @Success 201 {object} models.Category
// @Failure 409 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var form validation.CategoryForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	category, err := s.categoryService.Create(c.UserContext(), form)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/categories/:id
// @Summary Rename blog category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body validation.CategoryForm true "Category"
// @Success 200 {object} models.Category
// @Router /categories/{id} [put]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var form validation.CategoryForm
	if err := s.parseBody(c, &form); err != nil {
		return nil
	}
	category, err := s.categoryService.Rename(c.UserContext(), id, form)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id
// @Summary Delete blog category
// @Tags categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.categoryService.Delete(c.UserContext(), id); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
