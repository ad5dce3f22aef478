package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/throttle"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.TaxonomyService
	Genres     service.TaxonomyService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

// RouterOptions configures the ambient middleware of the engine.
type RouterOptions struct {
	CORSOrigins []string
	// Metrics enables request metrics collection.
	Metrics bool
}

// NewRouter builds the gin engine with the /v1 API mounted.
func NewRouter(svc Services, policy *authz.Policy, limiter throttle.Limiter, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	if opts.Metrics {
		r.Use(middleware.Metrics())
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}

	r.GET("/check-conn", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "API is alive"})
	})

	v1 := r.Group("/v1")
	v1.Use(middleware.Authenticate(svc.Auth))

	NewAuthHandler(svc.Auth).RegisterRoutes(v1)
	NewUserHandler(svc.Users, policy).RegisterRoutes(v1)
	NewCategoryHandler(svc.Categories, policy).RegisterRoutes(v1)
	NewGenreHandler(svc.Genres, policy).RegisterRoutes(v1)
	NewTitleHandler(svc.Titles, policy).RegisterRoutes(v1)
	NewReviewHandler(svc.Reviews, policy, limiter).RegisterRoutes(v1)
	NewCommentHandler(svc.Comments, policy).RegisterRoutes(v1)

	return r
}
