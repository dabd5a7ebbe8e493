package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/middleware"
	"github.com/bk001juma/api-matengenezo/internal/report"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	reports *report.Service
}

func NewExportHandler(reports *report.Service) *ExportHandler {
	return &ExportHandler{reports: reports}
}

// Export downloads the user's reports in the requested format
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format. Use json or csv"})
		return
	}

	userID := middleware.UserID(c)
	summaries, err := h.reports.ListForUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[Export] Failed to list reports for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export reports"})
		return
	}

	filename := fmt.Sprintf("reports-%d-%s", userID, time.Now().Format("20060102"))
	switch format {
	case "json":
		h.exportJSON(c, filename, summaries)
	case "csv":
		h.exportCSV(c, filename, summaries)
	}
}

func (h *ExportHandler) exportJSON(c *gin.Context, filename string, summaries []report.Summary) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", filename))
	c.JSON(http.StatusOK, summaries)
}

func (h *ExportHandler) exportCSV(c *gin.Context, filename string, summaries []report.Summary) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	writer.Write([]string{"id", "description", "status", "location_name", "image_url", "timestamp"})

	for _, s := range summaries {
		imageURL := ""
		if s.ImageURL != nil {
			imageURL = *s.ImageURL
		}
		writer.Write([]string{
			strconv.FormatInt(s.ID, 10),
			s.Description,
			s.Status,
			s.LocationName,
			imageURL,
			s.Timestamp,
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("[Export] Failed to write CSV: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export reports"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
