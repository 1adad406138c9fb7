package handlers

import (
	"glyde/internal/middleware"
	"glyde/internal/models"
	"glyde/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	svc *services.Services
}

func NewVoteHandler(svc *services.Services) *VoteHandler {
	return &VoteHandler{svc: svc}
}

func (h *VoteHandler) Upvote(c *gin.Context) {
	h.vote(c, models.DirectionUp)
}

func (h *VoteHandler) Downvote(c *gin.Context) {
	h.vote(c, models.DirectionDown)
}

// vote counts the vote once per user; repeats just redirect back.
func (h *VoteHandler) vote(c *gin.Context, dir models.Direction) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	_, _, err := h.svc.Interactions.Vote(c.Request.Context(), middleware.CurrentUsername(c), postID, dir)
	if err != nil {
		RenderError(c, err)
		return
	}
	redirectToPost(c, postID)
}
