package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-directory/internal/core/ports"
)

// UserHandler handles HTTP requests for user directory operations. Errors are
// returned to the central HTTPErrorHandler.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Register mounts the user routes on g. Static segments are registered
// alongside :id; echo prefers them.
func (h *UserHandler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/statistics", h.Statistics)
	g.GET("/by-username/:username", h.GetByUsername)
	g.GET("/by-email/:email", h.GetByEmail)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Patch)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/activate", h.Activate)
	g.POST("/:id/deactivate", h.Deactivate)
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.CreateUser(c.Request().Context(), toCreateInput(req))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, strings.TrimSuffix(c.Request().URL.Path, "/")+"/"+user.ID)
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c echo.Context) error {
	q, err := bindListQuery(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListUsers(c.Request().Context(), toListInput(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(page))
}

func bindListQuery(c echo.Context) (listUsersQuery, error) {
	// Newest first unless sort_desc says otherwise.
	q := listUsersQuery{SortDesc: true}
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("page_size", &q.PageSize).
		String("username", &q.Username).
		String("email", &q.Email).
		String("first_name", &q.FirstName).
		String("last_name", &q.LastName).
		String("role", &q.Role).
		String("search", &q.Search).
		String("sort_by", &q.SortBy).
		Bool("sort_desc", &q.SortDesc).
		BindError()
	if err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return q, echo.NewHTTPError(http.StatusBadRequest, "active must be true or false")
		}
		q.Active = &active
	}
	return q, nil
}

// Statistics handles GET /api/v1/users/statistics.
func (h *UserHandler) Statistics(c echo.Context) error {
	stats, err := h.service.GetUserStatistics(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatisticsResponse(stats))
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// GetByUsername handles GET /api/v1/users/by-username/:username.
func (h *UserHandler) GetByUsername(c echo.Context) error {
	user, err := h.service.GetUserByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// GetByEmail handles GET /api/v1/users/by-email/:email.
func (h *UserHandler) GetByEmail(c echo.Context) error {
	user, err := h.service.GetUserByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update handles PUT /api/v1/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(c.Request().Context(), c.Param("id"), ports.ReplaceUserInput(toCreateInput(req)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Patch handles PATCH /api/v1/users/:id.
func (h *UserHandler) Patch(c echo.Context) error {
	var req patchUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.PatchUser(c.Request().Context(), c.Param("id"), toPatchInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /api/v1/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate handles POST /api/v1/users/:id/activate.
func (h *UserHandler) Activate(c echo.Context) error {
	user, err := h.service.ActivateUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Deactivate handles POST /api/v1/users/:id/deactivate.
func (h *UserHandler) Deactivate(c echo.Context) error {
	user, err := h.service.DeactivateUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
