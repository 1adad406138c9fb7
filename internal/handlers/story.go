package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"math"
	"net/http"

	"glyde/internal/middleware"
	"glyde/internal/models"
	"glyde/internal/services"
	"glyde/internal/utils"

	"github.com/gin-gonic/gin"
)

type StoryHandler struct {
	svc     *services.Services
	perPage int
}

func NewStoryHandler(svc *services.Services, perPage int) *StoryHandler {
	if perPage < 1 {
		perPage = 5
	}
	return &StoryHandler{svc: svc, perPage: perPage}
}

// PostView is a post prepared for the list template.
type PostView struct {
	models.Post
	ContentHTML template.HTML
	MediaHTML   template.HTML
	CommentList []models.Comment
	Voted       services.VoteState
	Page        int
	LoggedIn    bool
}

func (h *StoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	page := utils.ParsePage(c.Query("page"))

	total, err := h.svc.Posts.Count(ctx, models.VisibilityPublic)
	if err != nil {
		RenderError(c, err)
		return
	}
	totalPages := int(math.Ceil(float64(total) / float64(h.perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	posts, err := h.svc.Posts.ListPage(ctx, models.VisibilityPublic, page, h.perPage)
	if err != nil {
		RenderError(c, err)
		return
	}

	username := middleware.CurrentUsername(c)
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	states, err := h.svc.Ledger.States(ctx, username, ids)
	if err != nil {
		RenderError(c, err)
		return
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = PostView{
			Post:        p,
			ContentHTML: utils.RenderMarkdown(p.Content),
			MediaHTML:   utils.MediaPlayer(p.MediaReference),
			CommentList: p.CommentList(),
			Voted:       states[p.ID],
			Page:        page,
			LoggedIn:    username != "",
		}
	}

	Render(c, http.StatusOK, "story/list.html", gin.H{
		"Title":       "Home",
		"Posts":       views,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"HasPrev":     page > 1,
		"HasNext":     page < totalPages,
	})
}

func (h *StoryHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "story/create.html", gin.H{"Title": "Create a Post"})
}

func (h *StoryHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	title := c.PostForm("title")
	content := c.PostForm("content")

	form := gin.H{"Title": "Create a Post", "PostTitle": title, "Content": content}

	var mediaRef string
	if header, err := c.FormFile("video"); err == nil {
		mediaRef, err = h.svc.Media.Save(user.Username, header)
		if err != nil {
			code, message := errorStatus(err)
			form["Error"] = message
			Render(c, code, "story/create.html", form)
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		log.Printf("read upload: %v", err)
		form["Error"] = "Could not read the uploaded video, please try again."
		Render(c, http.StatusBadRequest, "story/create.html", form)
		return
	}

	post, err := h.svc.Posts.Create(c.Request.Context(), services.NewPost{
		Author:         user.Username,
		Title:          title,
		Content:        content,
		MediaReference: mediaRef,
		Visibility:     models.ParseVisibility(c.PostForm("visibility")),
	})
	if err != nil {
		code, message := errorStatus(err)
		form["Error"] = message
		Render(c, code, "story/create.html", form)
		return
	}

	log.Printf("post %d created by %s", post.ID, user.Username)
	Render(c, http.StatusOK, "story/create.html", gin.H{
		"Title":   "Create a Post",
		"Success": "Post created successfully!",
	})
}

func (h *StoryHandler) CreateComment(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	err := h.svc.Interactions.Comment(c.Request.Context(), middleware.CurrentUsername(c), postID, c.PostForm("comment"))
	if err != nil {
		RenderError(c, err)
		return
	}
	redirectToPost(c, postID)
}

func postIDParam(c *gin.Context) (uint, bool) {
	id := utils.StringToInt(c.Param("id"))
	if id <= 0 {
		RenderError(c, services.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

// redirectToPost sends the user back to the page the action was submitted from.
func redirectToPost(c *gin.Context, postID uint) {
	page := utils.ParsePage(c.PostForm("page"))
	c.Redirect(http.StatusFound, fmt.Sprintf("/?page=%d#post-%d", page, postID))
}
