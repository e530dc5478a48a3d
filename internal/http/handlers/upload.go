package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amolab/amorate-backend/internal/http/response"
	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/services"
)

type UploadHandler struct {
	log           *logger.Logger
	uploadService services.UploadService
}

func NewUploadHandler(log *logger.Logger, svc services.UploadService) *UploadHandler {
	return &UploadHandler{
		log:           log.With("handler", "UploadHandler"),
		uploadService: svc,
	}
}

// GET /upload
func (h *UploadHandler) Show(c *gin.Context) {
	c.HTML(http.StatusOK, "upload.html", gin.H{})
}

// POST /upload
//
// Every outcome re-renders the form with a message: success, wrong
// password, disallowed extension, and conversion failure are all part of
// the admin's edit loop, not API errors.
func (h *UploadHandler) Submit(c *gin.Context) {
	render := func(message string) {
		c.HTML(http.StatusOK, "upload.html", gin.H{"Message": message})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		render("No score selected.")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		render("No score selected.")
		return
	}
	defer file.Close()

	in := services.UploadInput{
		Password:  c.PostForm("password"),
		Filename:  fileHeader.Filename,
		File:      file,
		Composer:  c.PostForm("composer"),
		PieceName: c.PostForm("piece_name"),
		ModelName: c.PostForm("model_name"),
	}

	if scoreHeader, err := c.FormFile("score_file"); err == nil {
		scoreFile, err := scoreHeader.Open()
		if err == nil {
			defer scoreFile.Close()
			in.ScoreFilename = scoreHeader.Filename
			in.ScoreFile = scoreFile
		}
	}

	result, err := h.uploadService.Process(c.Request.Context(), in)
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			render(ae.Error())
			return
		}
		h.log.Error("upload failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}

	render("✔ Uploaded " + result.SavedFilename)
}
