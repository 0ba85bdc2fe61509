package handlers

import (
	"libralend/internal/adapters/persistence/models"
	"libralend/internal/core/services"
	"libralend/internal/pkg/pagination"
	"libralend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// CreateLoanRequest represents create loan request
type CreateLoanRequest struct {
	UserID uint `json:"user_id"`
	BookID uint `json:"book_id"`
}

// Create lends a copy of a book to a user
// @Summary Create loan
// @Description Lend one available copy of the book to the user
// @Tags Loans
// @Accept json
// @Produce json
// @Param body body CreateLoanRequest true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.UserID == 0 {
		return response.BadRequest(c, "User id is required")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "Book id is required")
	}

	loan, err := h.loanService.Create(c.Context(), req.UserID, req.BookID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Created(c, "Loan created successfully", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// Return fulfills a loan
// @Summary Return loan
// @Description Return a loan, computing the overdue fine if any
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	loanID, ok := paramUint(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan id")
	}

	loan, err := h.loanService.Fulfill(c.Context(), loanID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Success(c, "Loan returned successfully", fiber.Map{
		"loan": loan.ToResponse(),
	})
}

// ListByUser lists all loans of a user
// @Summary List loans by user
// @Tags Loans
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/users/{user_id} [get]
func (h *LoanHandler) ListByUser(c *fiber.Ctx) error {
	userID, ok := paramUint(c, "user_id")
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

// ListActive lists open loans
// @Summary List active loans
// @Tags Loans
// @Produce json
// @Param offset query int false "Offset"
// @Param limit query int false "Limit (default 50)"
// @Success 200 {object} response.Response
// @Router /loans/active [get]
func (h *LoanHandler) ListActive(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, err := h.loanService.ListActive(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Success(c, "", fiber.Map{
		"loans": toLoanResponses(loans),
	})
}

// ListOverdue lists open loans past their due date
// @Summary List overdue loans
// @Tags Loans
// @Produce json
// @Param offset query int false "Offset"
// @Param limit query int false "Limit (default 50)"
// @Success 200 {object} response.Response
// @Router /loans/overdue [get]
func (h *LoanHandler) ListOverdue(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, err := h.loanService.ListOverdue(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return response.Success(c, "", fiber.Map{
		"loans": toLoanResponses(loans),
	})
}

func toLoanResponses(loans []*models.Loan) []*models.LoanResponse {
	out := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		out[i] = loan.ToResponse()
	}
	return out
}
