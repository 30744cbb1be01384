package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// RegisterRoutes expects the /v1/titles group
func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	comments := rg.Group("/:title_id/reviews/:review_id/comments", middleware.AuthenticatedOrReadOnly())
	comments.GET("/", h.List)
	comments.POST("/", h.Create)
	comments.GET("/:comment_id/", h.Get)
	comments.PATCH("/:comment_id/", h.Update)
	comments.DELETE("/:comment_id/", h.Delete)
}

// commentPath holds the ids of a nested comment route
type commentPath struct {
	titleID, reviewID, commentID int64
}

func parseCommentPath(c *gin.Context, withComment bool) (commentPath, bool) {
	var p commentPath
	var ok bool
	if p.titleID, ok = idParam(c, "title_id"); !ok {
		return p, false
	}
	if p.reviewID, ok = idParam(c, "review_id"); !ok {
		return p, false
	}
	if withComment {
		if p.commentID, ok = idParam(c, "comment_id"); !ok {
			return p, false
		}
	}
	return p, true
}

// List handles GET /v1/titles/:title_id/reviews/:review_id/comments/
func (h *CommentHandler) List(c *gin.Context) {
	path, ok := parseCommentPath(c, false)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.commentService.List(ctx, path.titleID, path.reviewID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Get(c *gin.Context) {
	path, ok := parseCommentPath(c, true)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.commentService.Get(ctx, path.titleID, path.reviewID, path.commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Create(c *gin.Context) {
	path, ok := parseCommentPath(c, false)
	if !ok {
		return
	}
	var req dto.CreateCommentDTO
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.commentService.Create(ctx, middleware.Principal(c), path.titleID, path.reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CommentHandler) Update(c *gin.Context) {
	path, ok := parseCommentPath(c, true)
	if !ok {
		return
	}
	var req dto.UpdateCommentDTO
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.commentService.Update(ctx, middleware.Principal(c), path.titleID, path.reviewID, path.commentID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	path, ok := parseCommentPath(c, true)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.commentService.Delete(ctx, middleware.Principal(c), path.titleID, path.reviewID, path.commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
