package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amolab/amorate-backend/internal/http/response"
	"github.com/amolab/amorate-backend/internal/platform/apierr"
	"github.com/amolab/amorate-backend/internal/platform/logger"
	"github.com/amolab/amorate-backend/internal/repos"
	"github.com/amolab/amorate-backend/internal/services"
)

var errMissingEmail = errors.New("email is required to submit ratings")

type RateHandler struct {
	log           *logger.Logger
	ratingService services.RatingService
	metadataRepo  repos.MetadataRepo
}

func NewRateHandler(log *logger.Logger, svc services.RatingService, metadataRepo repos.MetadataRepo) *RateHandler {
	return &RateHandler{
		log:           log.With("handler", "RateHandler"),
		ratingService: svc,
		metadataRepo:  metadataRepo,
	}
}

// GET /rate
func (h *RateHandler) Show(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	opts := services.ListOptions{
		Sort:     c.Query("sort"),
		Composer: c.Query("composer"),
		Piece:    c.Query("piece"),
		Model:    c.Query("model"),
	}

	listing, err := h.ratingService.ListForRater(c.Request.Context(), email, opts)
	if err != nil {
		h.log.Error("listing tracks failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}

	composers, pieces, models := h.filterOptions(c)

	var errorMessage string
	if c.Query("error") == "no_ratings" {
		errorMessage = "No ratings were submitted. Pick a score for at least one track."
	}

	c.HTML(http.StatusOK, "rate.html", gin.H{
		"Email":        email,
		"Tracks":       listing.Tracks,
		"TotalTracks":  listing.TotalTracks,
		"Remaining":    len(listing.Tracks),
		"Sort":         opts.Sort,
		"Composer":     opts.Composer,
		"Piece":        opts.Piece,
		"Model":        opts.Model,
		"AllComposers": composers,
		"AllPieces":    pieces,
		"AllModels":    models,
		"ErrorMessage": errorMessage,
	})
}

// filterOptions collects the distinct metadata values the filter dropdowns
// offer. Options come from the whole catalog, not the filtered view, so a
// rater can always widen a filter back out.
func (h *RateHandler) filterOptions(c *gin.Context) (composers, pieces, models []string) {
	metadata, err := h.metadataRepo.All(c.Request.Context())
	if err != nil {
		h.log.Warn("loading metadata for filters failed", "error", err)
		return nil, nil, nil
	}
	composerSet := map[string]struct{}{}
	pieceSet := map[string]struct{}{}
	modelSet := map[string]struct{}{}
	for _, md := range metadata {
		if md.Composer != "" {
			composerSet[md.Composer] = struct{}{}
		}
		if md.PieceName != "" {
			pieceSet[md.PieceName] = struct{}{}
		}
		if md.ModelName != "" {
			modelSet[md.ModelName] = struct{}{}
		}
	}
	return sortedKeys(composerSet), sortedKeys(pieceSet), sortedKeys(modelSet)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// POST /rate
func (h *RateHandler) Submit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if email == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation,
			errMissingEmail)
		return
	}
	ip := c.ClientIP()

	if c.PostForm("batch_submit") == "true" {
		h.submitBatch(c, email, ip)
		return
	}

	err := h.ratingService.SubmitSingle(c.Request.Context(), email, ip,
		c.PostForm("filename"), c.PostForm("score"), c.PostForm("remark"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.HTML(http.StatusOK, "thanks.html", gin.H{"Email": email, "Count": 1})
}

func (h *RateHandler) submitBatch(c *gin.Context, email, ip string) {
	filenames := c.PostFormArray("filenames")
	if len(filenames) == 0 {
		// Distinct from a batch that listed tracks but scored none: a form
		// with no tracks at all is malformed, not an empty submission.
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation,
			errors.New("no tracks in submission"))
		return
	}
	items := make([]services.BatchItem, 0, len(filenames))
	for _, filename := range filenames {
		items = append(items, services.BatchItem{
			Filename: filename,
			Score:    c.PostForm("score_" + filename),
			Remark:   c.PostForm("remark_" + filename),
		})
	}

	count, err := h.ratingService.SubmitBatch(c.Request.Context(), email, ip, items)
	if err != nil {
		if apierr.Code(err) == apierr.CodeNoRatings {
			q := url.Values{}
			q.Set("email", email)
			q.Set("error", "no_ratings")
			c.Redirect(http.StatusSeeOther, "/rate?"+q.Encode())
			return
		}
		response.RespondAPIError(c, err)
		return
	}

	h.log.Info("batch ratings submitted", "email", email, "count", count)
	c.HTML(http.StatusOK, "thanks.html", gin.H{"Email": email, "Count": count})
}
