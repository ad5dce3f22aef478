package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
)

type CommentHandler struct {
	commentService service.CommentService
	policy         *authz.Policy
}

func NewCommentHandler(commentService service.CommentService, policy *authz.Policy) *CommentHandler {
	return &CommentHandler{commentService: commentService, policy: policy}
}

// RegisterRoutes registers comment routes nested under a review
func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup) {
	comments := router.Group("/titles/:title_id/reviews/:review_id/comments")
	{
		comments.GET("/", middleware.Authorize(h.policy, authz.ResourceComments, authz.ActionRead), h.List)
		comments.POST("/", middleware.Authorize(h.policy, authz.ResourceComments, authz.ActionCreate), h.Create)
		comments.GET("/:comment_id/", middleware.Authorize(h.policy, authz.ResourceComments, authz.ActionRead), h.Get)
		comments.PATCH("/:comment_id/", middleware.Authorize(h.policy, authz.ResourceComments, authz.ActionUpdate), h.Update)
		comments.DELETE("/:comment_id/", middleware.Authorize(h.policy, authz.ResourceComments, authz.ActionDelete), h.Delete)
	}
}

// commentPath holds the ids of a comment URL; CommentID is zero on collection routes.
type commentPath struct {
	TitleID   int64
	ReviewID  int64
	CommentID int64
}

func parseCommentPath(c *gin.Context, withComment bool) (commentPath, bool) {
	var p commentPath
	var ok bool
	if p.TitleID, ok = paramID(c, "title_id"); !ok {
		return p, false
	}
	if p.ReviewID, ok = paramID(c, "review_id"); !ok {
		return p, false
	}
	if withComment {
		if p.CommentID, ok = paramID(c, "comment_id"); !ok {
			return p, false
		}
	}
	return p, true
}

// GET /v1/titles/{title_id}/reviews/{review_id}/comments/
func (h *CommentHandler) List(c *gin.Context) {
	p, ok := parseCommentPath(c, false)
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	page, err := h.commentService.List(c.Request.Context(), p.TitleID, p.ReviewID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET .../comments/{comment_id}/
func (h *CommentHandler) Get(c *gin.Context) {
	p, ok := parseCommentPath(c, true)
	if !ok {
		return
	}

	comment, err := h.commentService.Get(c.Request.Context(), p.TitleID, p.ReviewID, p.CommentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// POST .../comments/
func (h *CommentHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}
	p, ok := parseCommentPath(c, false)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), actor, p.TitleID, p.ReviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// PATCH .../comments/{comment_id}/
func (h *CommentHandler) Update(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}
	p, ok := parseCommentPath(c, true)
	if !ok {
		return
	}

	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), actor, p.TitleID, p.ReviewID, p.CommentID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DELETE .../comments/{comment_id}/
func (h *CommentHandler) Delete(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
		return
	}
	p, ok := parseCommentPath(c, true)
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), actor, p.TitleID, p.ReviewID, p.CommentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
