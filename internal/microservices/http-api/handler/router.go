package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Services bundles what the router needs.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.TaxonomyService
	Genres     service.TaxonomyService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

// NewRouter mounts every route under /v1. Callers add logging and recovery.
func NewRouter(svcs Services, authLimiter *middleware.IPRateLimiter, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(extra...)

	r.GET("/check-conn", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is alive"})
	})

	// signup and token never read a bearer token, so a stale one is ignored
	authGroup := r.Group("/v1/auth")
	if authLimiter != nil {
		authGroup.Use(middleware.RateLimit(authLimiter))
	}
	NewAuthHandler(svcs.Auth).RegisterRoutes(authGroup)

	v1 := r.Group("/v1", middleware.Authenticate(svcs.Auth))

	NewUserHandler(svcs.Users).RegisterRoutes(v1.Group("/users"))
	NewTaxonomyHandler(svcs.Categories).RegisterRoutes(v1.Group("/categories"))
	NewTaxonomyHandler(svcs.Genres).RegisterRoutes(v1.Group("/genres"))

	titles := v1.Group("/titles")
	NewTitleHandler(svcs.Titles).RegisterRoutes(titles)
	NewReviewHandler(svcs.Reviews).RegisterRoutes(titles)
	NewCommentHandler(svcs.Comments).RegisterRoutes(titles)

	return r
}
