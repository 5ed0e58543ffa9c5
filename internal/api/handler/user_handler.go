package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/isitech/bibliotheque/internal/core/ports"
)

// UserHandler exposes the user registry.
type UserHandler struct {
	service ports.LibraryService
}

func NewUserHandler(service ports.LibraryService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /v1/users.
//
// @Summary      Register a student or a professor
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      userRequest  true  "User"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.AddUser(c.Request().Context(), toAddUserInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// List handles GET /v1/users.
//
// @Summary      List users in registration order, or search by name
// @Tags         users
// @Produce      json
// @Param        name  query     string  false  "Case-insensitive name fragment"
// @Success      200   {object}  listResponse[userResponse]
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if name := c.QueryParam("name"); name != "" {
		return c.JSON(http.StatusOK, toUserList(h.service.FindUsersByName(ctx, name)))
	}
	return c.JSON(http.StatusOK, toUserList(h.service.ListUsers(ctx)))
}

// Get handles GET /v1/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.FindUserByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
