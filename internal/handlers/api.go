package handlers

import (
	"errors"
	"net/http"

	"glyde/internal/middleware"
	"glyde/internal/models"
	"glyde/internal/services"
	"glyde/internal/utils"

	"github.com/gin-gonic/gin"
)

// APIHandler serves the JSON API under /api.
type APIHandler struct {
	svc     *services.Services
	tokens  *middleware.TokenIssuer
	perPage int
}

func NewAPIHandler(svc *services.Services, tokens *middleware.TokenIssuer, perPage int) *APIHandler {
	if perPage < 1 {
		perPage = 5
	}
	return &APIHandler{svc: svc, tokens: tokens, perPage: perPage}
}

type postResponse struct {
	models.Post
	Comments []models.Comment `json:"comments"`
}

func newPostResponse(p *models.Post) postResponse {
	comments := p.CommentList()
	if comments == nil {
		comments = []models.Comment{}
	}
	return postResponse{Post: *p, Comments: comments}
}

func abortWithError(c *gin.Context, err error) {
	code, message := errorStatus(err)
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

func (h *APIHandler) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Accounts.Register(c.Request.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

func (h *APIHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.ClientIP()
	if err := h.svc.Throttle.Allow(key); err != nil {
		abortWithError(c, err)
		return
	}

	user, err := h.svc.Accounts.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.svc.Throttle.Fail(key)
		}
		abortWithError(c, err)
		return
	}
	h.svc.Throttle.Reset(key)

	token, err := h.tokens.Issue(user)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *APIHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (h *APIHandler) ListPosts(c *gin.Context) {
	page := utils.ParsePage(c.Query("page"))
	size := h.perPage
	if s := utils.StringToInt(c.Query("size")); s > 0 && s <= 100 {
		size = s
	}

	posts, err := h.svc.Posts.ListPage(c.Request.Context(), models.VisibilityPublic, page, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]postResponse, len(posts))
	for i := range posts {
		out[i] = newPostResponse(&posts[i])
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "size": size, "posts": out})
}

func (h *APIHandler) GetPost(c *gin.Context) {
	id, ok := apiPostID(c)
	if !ok {
		return
	}
	post, err := h.svc.Posts.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(post))
}

func (h *APIHandler) ListComments(c *gin.Context) {
	id, ok := apiPostID(c)
	if !ok {
		return
	}
	comments, err := h.svc.Comments.List(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *APIHandler) CreatePost(c *gin.Context) {
	var input struct {
		Title          string `json:"title"`
		Content        string `json:"content"`
		MediaReference string `json:"media_reference"`
		Visibility     string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.MediaReference != "" && !utils.IsVideoPath(input.MediaReference) {
		abortWithError(c, services.ErrUnsupportedMedia)
		return
	}

	post, err := h.svc.Posts.Create(c.Request.Context(), services.NewPost{
		Author:         middleware.CurrentUsername(c),
		Title:          input.Title,
		Content:        input.Content,
		MediaReference: input.MediaReference,
		Visibility:     models.ParseVisibility(input.Visibility),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPostResponse(post))
}

func (h *APIHandler) Upvote(c *gin.Context) {
	h.vote(c, models.DirectionUp)
}

func (h *APIHandler) Downvote(c *gin.Context) {
	h.vote(c, models.DirectionDown)
}

func (h *APIHandler) vote(c *gin.Context, dir models.Direction) {
	id, ok := apiPostID(c)
	if !ok {
		return
	}
	counted, post, err := h.svc.Interactions.Vote(c.Request.Context(), middleware.CurrentUsername(c), id, dir)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"counted":        counted,
		"upvote_count":   post.UpvoteCount,
		"downvote_count": post.DownvoteCount,
	})
}

func (h *APIHandler) CreateComment(c *gin.Context) {
	id, ok := apiPostID(c)
	if !ok {
		return
	}
	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.svc.Interactions.Comment(ctx, middleware.CurrentUsername(c), id, input.Text); err != nil {
		abortWithError(c, err)
		return
	}
	comments, err := h.svc.Comments.List(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comments)
}

func apiPostID(c *gin.Context) (uint, bool) {
	id := utils.StringToInt(c.Param("id"))
	if id <= 0 {
		abortWithError(c, services.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}
