package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

type UserHandler struct {
	userService service.UserService
	policy      *authz.Policy
}

func NewUserHandler(userService service.UserService, policy *authz.Policy) *UserHandler {
	return &UserHandler{userService: userService, policy: policy}
}

// RegisterRoutes registers the admin user management and /users/me/ routes
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		// self-service
		users.GET("/me/", middleware.Authorize(h.policy, authz.ResourceProfile, authz.ActionRead), h.Me)
		users.PATCH("/me/", middleware.Authorize(h.policy, authz.ResourceProfile, authz.ActionUpdate), h.UpdateMe)

		// admin only
		users.GET("/", middleware.Authorize(h.policy, authz.ResourceUsers, authz.ActionRead), h.List)
		users.POST("/", middleware.Authorize(h.policy, authz.ResourceUsers, authz.ActionCreate), h.Create)
		users.GET("/:username/", middleware.Authorize(h.policy, authz.ResourceUsers, authz.ActionRead), h.Get)
		users.PATCH("/:username/", middleware.Authorize(h.policy, authz.ResourceUsers, authz.ActionUpdate), h.Update)
		users.DELETE("/:username/", middleware.Authorize(h.policy, authz.ResourceUsers, authz.ActionDelete), h.Delete)
	}
}

// List users, optionally filtered by exact username
// GET /v1/users/?search=
func (h *UserHandler) List(c *gin.Context) {
	var q dto.UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.userService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /v1/users/
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GET /v1/users/{username}/
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /v1/users/{username}/
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DELETE /v1/users/{username}/
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's own profile
// GET /v1/users/me/
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(actor))
}

// UpdateMe edits the caller's profile; role changes are ignored
// PATCH /v1/users/me/
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
