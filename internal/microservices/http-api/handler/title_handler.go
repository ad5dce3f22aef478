package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

type TitleHandler struct {
	titleService service.TitleService
	policy       *authz.Policy
}

func NewTitleHandler(titleService service.TitleService, policy *authz.Policy) *TitleHandler {
	return &TitleHandler{titleService: titleService, policy: policy}
}

// RegisterRoutes registers title routes; reviews and comments nest below.
func (h *TitleHandler) RegisterRoutes(router *gin.RouterGroup) {
	titles := router.Group("/titles")
	{
		titles.GET("/", middleware.Authorize(h.policy, authz.ResourceTitles, authz.ActionRead), h.List)
		titles.POST("/", middleware.Authorize(h.policy, authz.ResourceTitles, authz.ActionCreate), h.Create)
		titles.GET("/:title_id/", middleware.Authorize(h.policy, authz.ResourceTitles, authz.ActionRead), h.Get)
		titles.PATCH("/:title_id/", middleware.Authorize(h.policy, authz.ResourceTitles, authz.ActionUpdate), h.Update)
		titles.DELETE("/:title_id/", middleware.Authorize(h.policy, authz.ResourceTitles, authz.ActionDelete), h.Delete)
	}
}

// List titles filtered by genre, category, name and year
// GET /v1/titles/
func (h *TitleHandler) List(c *gin.Context) {
	var q dto.TitleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.titleService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /v1/titles/{title_id}/
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "title_id")
	if !ok {
		return
	}

	title, err := h.titleService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

// POST /v1/titles/
func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	title, err := h.titleService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, title)
}

// PATCH /v1/titles/{title_id}/
func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "title_id")
	if !ok {
		return
	}

	var req dto.UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	title, err := h.titleService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

// DELETE /v1/titles/{title_id}/
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "title_id")
	if !ok {
		return
	}

	if err := h.titleService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
