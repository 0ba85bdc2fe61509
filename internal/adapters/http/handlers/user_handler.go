package handlers

import (
	"libralend/internal/adapters/persistence/models"
	"libralend/internal/core/services"
	"libralend/internal/pkg/pagination"
	"libralend/internal/pkg/password"
	"libralend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user endpoints
type UserHandler struct {
	userService *services.UserService
	loanService *services.LoanService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, loanService *services.LoanService) *UserHandler {
	return &UserHandler{
		userService: userService,
		loanService: loanService,
	}
}

// RegisterRequest represents user registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user
// @Summary Register user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Name == "" {
		return response.BadRequest(c, "Name is required")
	}
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if !password.Valid(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}

	user, err := h.userService.Register(c.Context(), &services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Created(c, "User registered successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// List lists users
// @Summary List users
// @Tags Users
// @Produce json
// @Param offset query int false "Offset"
// @Param limit query int false "Limit (default 50)"
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	out := make([]*models.UserResponse, len(users))
	for i, user := range users {
		out[i] = user.ToResponse()
	}

	return c.JSON(pagination.NewResponse(out, params, total))
}

// Get gets a user by id
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	userID, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user id")
	}

	user, err := h.userService.GetByID(c.Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Success(c, "", fiber.Map{
		"user": user.ToResponse(),
	})
}

// Loans lists all loans of a user
// @Summary Get user loans
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/loans [get]
func (h *UserHandler) Loans(c *fiber.Ctx) error {
	userID, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user id")
	}

	loans, err := h.loanService.ListByUser(c.Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Success(c, "", fiber.Map{
		"loans": toLoanResponses(loans),
	})
}
