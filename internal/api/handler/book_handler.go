package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/isitech/bibliotheque/internal/core/ports"
)

// BookHandler exposes the catalog.
type BookHandler struct {
	service ports.LibraryService
}

func NewBookHandler(service ports.LibraryService) *BookHandler {
	return &BookHandler{service: service}
}

// Create handles POST /v1/books.
//
// @Summary      Add a book to the catalog
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        body  body      bookRequest  true  "Book"
// @Success      201   {object}  bookResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/books [post]
func (h *BookHandler) Create(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input, err := toAddBookInput(req)
	if err != nil {
		return err
	}
	book, err := h.service.AddBook(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBookResponse(book))
}

// List handles GET /v1/books. The filters are exclusive, checked in the
// order q, author, status.
//
// @Summary      List books, sorted by title then author
// @Tags         books
// @Produce      json
// @Param        q       query     string  false  "Case-insensitive text in title or author"
// @Param        author  query     string  false  "Exact author, case-insensitive"
// @Param        status  query     string  false  "available or borrowed"
// @Success      200     {object}  listResponse[bookResponse]
// @Failure      400     {object}  errorResponse
// @Router       /v1/books [get]
func (h *BookHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if q := c.QueryParam("q"); q != "" {
		return c.JSON(http.StatusOK, toBookList(h.service.SearchBooks(ctx, q)))
	}
	if author := c.QueryParam("author"); author != "" {
		return c.JSON(http.StatusOK, toBookList(h.service.FindBooksByAuthor(ctx, author)))
	}

	switch c.QueryParam("status") {
	case "":
		return c.JSON(http.StatusOK, toBookList(h.service.ListAllBooks(ctx)))
	case "available":
		return c.JSON(http.StatusOK, toBookList(h.service.ListAvailableBooks(ctx)))
	case "borrowed":
		return c.JSON(http.StatusOK, toBookList(h.service.ListBorrowedBooks(ctx)))
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status must be one of: available borrowed")
	}
}

// Get handles GET /v1/books/:id.
//
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "Book id"
// @Success      200  {object}  bookResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/books/{id} [get]
func (h *BookHandler) Get(c echo.Context) error {
	book, err := h.service.FindBookByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookResponse(book))
}

// Update handles PUT /v1/books/:id. The borrow state is left untouched.
//
// @Summary      Replace the descriptive fields of a book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Book id"
// @Param        body  body      updateBookRequest  true  "Book details"
// @Success      200   {object}  bookResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/books/{id} [put]
func (h *BookHandler) Update(c echo.Context) error {
	var req updateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	details, err := toBookDetails(req)
	if err != nil {
		return err
	}
	book, err := h.service.UpdateBook(c.Request().Context(), c.Param("id"), details)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookResponse(book))
}

// Delete handles DELETE /v1/books/:id. Borrowed books cannot be removed.
//
// @Summary      Remove a book from the catalog
// @Tags         books
// @Param        id   path  string  true  "Book id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/books/{id} [delete]
func (h *BookHandler) Delete(c echo.Context) error {
	if err := h.service.RemoveBook(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// History handles GET /v1/books/:id/history.
//
// @Summary      Loan audit trail of a book, oldest first
// @Tags         books
// @Produce      json
// @Param        id     path      string  true   "Book id"
// @Param        limit  query     int     false  "Maximum number of events (default 100)"
// @Success      200    {object}  listResponse[domain.LoanEvent]
// @Failure      400    {object}  errorResponse
// @Failure      503    {object}  errorResponse
// @Router       /v1/books/{id}/history [get]
func (h *BookHandler) History(c echo.Context) error {
	var limit int64
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	events, err := h.service.LoanHistory(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventList(events))
}
