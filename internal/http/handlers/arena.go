package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amolab/amorate-backend/internal/http/response"
	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/services"
)

type ArenaHandler struct {
	log          *logger.Logger
	arenaService services.ArenaService
}

func NewArenaHandler(log *logger.Logger, svc services.ArenaService) *ArenaHandler {
	return &ArenaHandler{
		log:          log.With("handler", "ArenaHandler"),
		arenaService: svc,
	}
}

// GET /arena
func (h *ArenaHandler) Show(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))

	var message string
	if c.Query("status") == "recorded" {
		message = "Match recorded! Here is your next comparison."
	}

	if email == "" {
		c.HTML(http.StatusOK, "arena.html", gin.H{"NeedEmail": true})
		return
	}

	pair, err := h.arenaService.NextPair(c.Request.Context(), c.Query("piece"))
	if err != nil {
		h.log.Error("picking arena pair failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	if pair == nil {
		c.HTML(http.StatusOK, "arena.html", gin.H{
			"Email":   email,
			"NoPairs": true,
			"Message": message,
		})
		return
	}

	c.HTML(http.StatusOK, "arena.html", gin.H{
		"Email":   email,
		"Pair":    pair,
		"Message": message,
	})
}

// POST /arena
func (h *ArenaHandler) Submit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, errMissingEmail)
		return
	}

	verdict := services.ArenaVerdict{
		Email:      email,
		PieceKey:   c.PostForm("piece_key"),
		PieceLabel: c.PostForm("piece_label"),
		TrackA:     c.PostForm("track_a"),
		TrackB:     c.PostForm("track_b"),
		ModelA:     c.PostForm("model_a"),
		ModelB:     c.PostForm("model_b"),
		Winner:     c.PostForm("winner"),
		Feedback:   strings.TrimSpace(c.PostForm("feedback")),
		IP:         c.ClientIP(),
	}

	if err := h.arenaService.Record(c.Request.Context(), verdict); err != nil {
		response.RespondAPIError(c, err)
		return
	}

	q := url.Values{}
	q.Set("email", email)
	q.Set("status", "recorded")
	// next_action=same keeps the rater on the piece they were comparing.
	if c.PostForm("next_action") == "same" && verdict.PieceKey != "" {
		q.Set("piece", verdict.PieceKey)
	}
	c.Redirect(http.StatusSeeOther, "/arena?"+q.Encode())
}
