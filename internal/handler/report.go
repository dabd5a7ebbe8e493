package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/bk001juma/api-matengenezo/internal/geo"
	"github.com/bk001juma/api-matengenezo/internal/middleware"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/report"
	"github.com/bk001juma/api-matengenezo/internal/validation"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports *report.Service
}

func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// coordinate accepts a JSON number or a numeric string and keeps the raw
// text for the service to validate.
type coordinate string

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = coordinate(s)
		return nil
	}
	// Anything else is passed through and rejected as non-numeric later.
	*c = coordinate(data)
	return nil
}

type SubmitReportRequest struct {
	Description string     `json:"description"`
	Latitude    coordinate `json:"latitude"`
	Longitude   coordinate `json:"longitude"`
}

// Submit creates a report from a multipart form or a JSON body
func (h *ReportHandler) Submit(c *gin.Context) {
	sub := report.Submission{UserID: middleware.UserID(c)}

	if strings.HasPrefix(c.ContentType(), "multipart/") || c.ContentType() == "application/x-www-form-urlencoded" {
		sub.Description = c.PostForm("description")
		sub.Latitude = c.PostForm("latitude")
		sub.Longitude = c.PostForm("longitude")

		fh, err := c.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart):
			// no image
		case err != nil:
			verr := validation.New()
			verr.Add("image", "The image failed to upload.")
			middleware.RecordReportSubmission(middleware.OutcomeInvalid, false)
			respondInvalid(c, verr)
			return
		default:
			file, err := fh.Open()
			if err != nil {
				log.Printf("[Report] Failed to open uploaded image: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
				return
			}
			defer file.Close()
			sub.Image = imageFrom(fh, file)
		}
	} else {
		var req SubmitReportRequest
		// An empty body is validated like one with every field missing.
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			middleware.RecordReportSubmission(middleware.OutcomeInvalid, false)
			respondInvalid(c, validation.FromBinding(err))
			return
		}
		sub.Description = req.Description
		sub.Latitude = string(req.Latitude)
		sub.Longitude = string(req.Longitude)
	}

	r, err := h.reports.Submit(c.Request.Context(), sub)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			middleware.RecordReportSubmission(middleware.OutcomeInvalid, false)
			respondInvalid(c, verr)
			return
		}
		log.Printf("[Report] Failed to create report for user %d: %v", sub.UserID, err)
		middleware.RecordReportSubmission(middleware.OutcomeFailed, false)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	middleware.RecordReportSubmission(middleware.OutcomeCreated, matched(r))
	if sub.Image != nil {
		middleware.RecordImageUpload(sub.Image.Size)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Report created",
		"report":  r,
	})
}

func imageFrom(fh *multipart.FileHeader, file multipart.File) *report.Image {
	return &report.Image{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  file,
	}
}

func matched(r *model.Report) bool {
	return r.LocationName != nil && *r.LocationName != geo.UnknownLocation
}

// List returns the authenticated user's reports, newest first
func (h *ReportHandler) List(c *gin.Context) {
	summaries, err := h.reports.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		log.Printf("[Report] Failed to list reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, summaries)
}
