package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/isitech/bibliotheque/internal/api/metrics"
	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry a borrow safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// LoanHandler handles borrowing and returning books.
type LoanHandler struct {
	service ports.LibraryService
}

func NewLoanHandler(service ports.LibraryService) *LoanHandler {
	return &LoanHandler{service: service}
}

// Borrow handles POST /v1/loans.
//
// @Summary      Borrow a book
// @Tags         loans
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string         false  "Key making retries of the same borrow safe"
// @Param        body             body      borrowRequest  true   "Loan request"
// @Success      201              {object}  borrowResponse
// @Success      200              {object}  borrowResponse  "Replay of an earlier request"
// @Failure      400              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/loans [post]
func (h *LoanHandler) Borrow(c echo.Context) error {
	var req borrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.BorrowBook(c.Request().Context(), ports.BorrowInput{
		BookID:         req.BookID,
		UserID:         req.UserID,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		metrics.LendingErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return err
	}

	if result.Replayed {
		return c.JSON(http.StatusOK, toBorrowResponse(result))
	}
	metrics.LoansBorrowedTotal.WithLabelValues(string(result.UserKind)).Inc()
	return c.JSON(http.StatusCreated, toBorrowResponse(result))
}

// Return handles POST /v1/loans/:book_id/return.
//
// @Summary      Return a borrowed book
// @Tags         loans
// @Produce      json
// @Param        book_id  path      string  true  "Book id"
// @Success      200      {object}  returnResponse
// @Failure      404      {object}  errorResponse
// @Failure      409      {object}  errorResponse
// @Router       /v1/loans/{book_id}/return [post]
func (h *LoanHandler) Return(c echo.Context) error {
	result, err := h.service.ReturnBook(c.Request().Context(), c.Param("book_id"))
	if err != nil {
		metrics.LendingErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return err
	}

	metrics.LoansReturnedTotal.WithLabelValues(strconv.FormatBool(result.Overdue)).Inc()
	if result.Overdue {
		metrics.DaysOverdue.Observe(float64(result.DaysOverdue))
	}
	return c.JSON(http.StatusOK, toReturnResponse(result))
}

// Overdue handles GET /v1/loans/overdue.
//
// @Summary      List borrowed books past their due date
// @Tags         loans
// @Produce      json
// @Success      200  {object}  listResponse[overdueResponse]
// @Router       /v1/loans/overdue [get]
func (h *LoanHandler) Overdue(c echo.Context) error {
	return c.JSON(http.StatusOK, toOverdueList(h.service.ListOverdueBooks(c.Request().Context())))
}

// errorReason turns a lending error into a low-cardinality metric label.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		return "book_not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrAlreadyBorrowed):
		return "already_borrowed"
	case errors.Is(err, domain.ErrNotBorrowed):
		return "not_borrowed"
	case errors.Is(err, domain.ErrQuotaExceeded), errors.Is(err, domain.ErrQuotaAtCapacity):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrBorrowerMismatch):
		return "borrower_mismatch"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return "duplicate_request"
	default:
		return "internal"
	}
}
