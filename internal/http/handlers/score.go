package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amolab/amorate-backend/internal/http/response"
	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/platform/logger"
)

type ScoreHandler struct {
	log *logger.Logger
}

func NewScoreHandler(log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{log: log.With("handler", "ScoreHandler")}
}

// GET /score/:basename
//
// Renders the score viewer. MusicXML derived by the converter lives next
// to the audio under /uploads and is drawn with OpenSheetMusicDisplay;
// uploaded PDFs are served from /scores and framed inline.
func (h *ScoreHandler) Show(c *gin.Context) {
	basename := c.Param("basename")
	if basename == "" || basename != filepath.Base(basename) {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeBadRequest,
			errors.New("invalid score name"))
		return
	}

	ext := strings.ToLower(filepath.Ext(basename))
	isMusicXML := ext == ".musicxml" || ext == ".xml" || ext == ".mxl"
	src := "/scores/" + basename
	if isMusicXML {
		src = "/uploads/" + basename
	}

	c.HTML(http.StatusOK, "score.html", gin.H{
		"Basename":   basename,
		"Src":        src,
		"IsMusicXML": isMusicXML,
	})
}
