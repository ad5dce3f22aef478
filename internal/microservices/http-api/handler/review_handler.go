package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/throttle"
)

type ReviewHandler struct {
	reviewService service.ReviewService
	policy        *authz.Policy
	limiter       throttle.Limiter
}

// NewReviewHandler builds the handler; review creation is throttled
// through limiter under the post_user scope.
func NewReviewHandler(reviewService service.ReviewService, policy *authz.Policy, limiter throttle.Limiter) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, policy: policy, limiter: limiter}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	reviews := router.Group("/titles/:title_id/reviews")
	{
		reviews.GET("/", middleware.Authorize(h.policy, authz.ResourceReviews, authz.ActionRead), h.List)
		reviews.POST("/",
			middleware.Authorize(h.policy, authz.ResourceReviews, authz.ActionCreate),
			middleware.Throttle(h.limiter, throttle.ScopePostUser),
			h.Create,
		)
		reviews.GET("/:review_id/", middleware.Authorize(h.policy, authz.ResourceReviews, authz.ActionRead), h.Get)

		// ownership is checked by the service
		reviews.PATCH("/:review_id/", middleware.Authorize(h.policy, authz.ResourceReviews, authz.ActionUpdate), h.Update)
		reviews.DELETE("/:review_id/", middleware.Authorize(h.policy, authz.ResourceReviews, authz.ActionDelete), h.Delete)
	}
}

// GET /v1/titles/{title_id}/reviews/
func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.reviewService.List(c.Request.Context(), titleID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /v1/titles/{title_id}/reviews/{review_id}/
func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "review_id")
	if !ok {
		return
	}

	review, err := h.reviewService.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// POST /v1/titles/{title_id}/reviews/
func (h *ReviewHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), actor, titleID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// PATCH /v1/titles/{title_id}/reviews/{review_id}/
func (h *ReviewHandler) Update(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "review_id")
	if !ok {
		return
	}

	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), actor, titleID, reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// DELETE /v1/titles/{title_id}/reviews/{review_id}/
func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}
	titleID, ok := paramID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := paramID(c, "review_id")
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), actor, titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
