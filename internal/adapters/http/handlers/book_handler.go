package handlers

import (
	"libralend/internal/core/services"
	"libralend/internal/pkg/pagination"
	"libralend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles book catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

// CreateBookRequest represents create book request
type CreateBookRequest struct {
	Title  string  `json:"title"`
	Author string  `json:"author"`
	ISBN   *string `json:"isbn,omitempty"`
}

// Create creates a new book title
// @Summary Create book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBookRequest true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if req.Author == "" {
		return response.BadRequest(c, "Author is required")
	}

	book, err := h.bookService.Create(c.Context(), &services.CreateBookInput{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Created(c, "Book created successfully", fiber.Map{
		"book": book,
	})
}

// List lists books
// @Summary List books
// @Tags Books
// @Produce json
// @Param offset query int false "Offset"
// @Param limit query int false "Limit (default 50)"
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	books, total, err := h.bookService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(pagination.NewResponse(books, params, total))
}

// Get gets a book by id
// @Summary Get book
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	bookID, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book id")
	}

	book, err := h.bookService.GetByID(c.Context(), bookID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Success(c, "", fiber.Map{
		"book": book,
	})
}

// AddCopy registers a new physical copy
// @Summary Add book copy
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/copies [post]
func (h *BookHandler) AddCopy(c *fiber.Ctx) error {
	bookID, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book id")
	}

	copy, err := h.bookService.AddCopy(c.Context(), bookID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Created(c, "Copy added successfully", fiber.Map{
		"copy": copy,
	})
}

// ListCopies lists the physical copies of a book
// @Summary List book copies
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/copies [get]
func (h *BookHandler) ListCopies(c *fiber.Ctx) error {
	bookID, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book id")
	}

	copies, err := h.bookService.ListCopies(c.Context(), bookID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Success(c, "", fiber.Map{
		"copies": copies,
	})
}
