package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

// TaxonomyHandler serves either categories or genres, depending on resource.
type TaxonomyHandler struct {
	service  service.TaxonomyService
	policy   *authz.Policy
	resource string
}

func NewCategoryHandler(categoryService service.TaxonomyService, policy *authz.Policy) *TaxonomyHandler {
	return &TaxonomyHandler{service: categoryService, policy: policy, resource: authz.ResourceCategories}
}

func NewGenreHandler(genreService service.TaxonomyService, policy *authz.Policy) *TaxonomyHandler {
	return &TaxonomyHandler{service: genreService, policy: policy, resource: authz.ResourceGenres}
}

// RegisterRoutes mounts the handler under /<resource>/
func (h *TaxonomyHandler) RegisterRoutes(router *gin.RouterGroup) {
	rg := router.Group("/" + h.resource)
	{
		rg.GET("/", middleware.Authorize(h.policy, h.resource, authz.ActionRead), h.List)
		rg.POST("/", middleware.Authorize(h.policy, h.resource, authz.ActionCreate), h.Create)
		rg.DELETE("/:slug/", middleware.Authorize(h.policy, h.resource, authz.ActionDelete), h.Delete)
	}
}

// GET /v1/{categories|genres}/?search=
func (h *TaxonomyHandler) List(c *gin.Context) {
	var q dto.TaxonomyListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /v1/{categories|genres}/
func (h *TaxonomyHandler) Create(c *gin.Context) {
	var req dto.CreateTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// DELETE /v1/{categories|genres}/{slug}/
func (h *TaxonomyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
