package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/geo"
	"github.com/bk001juma/api-matengenezo/internal/middleware"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/report"
	"github.com/bk001juma/api-matengenezo/internal/validation"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminHandler struct {
	db      *gorm.DB
	reports *report.Service
}

func NewAdminHandler(db *gorm.DB, reports *report.Service) *AdminHandler {
	return &AdminHandler{db: db, reports: reports}
}

type DashboardStats struct {
	TotalReports     int64            `json:"total_reports"`
	TotalUsers       int64            `json:"total_users"`
	ReportsLast7Days int64            `json:"reports_last_7_days"`
	UnmatchedReports int64            `json:"unmatched_reports"`
	ReportsByStatus  map[string]int64 `json:"reports_by_status"`
	TopLocations     []LocationCount  `json:"top_locations"`
}

type LocationCount struct {
	LocationName string `json:"location_name"`
	Count        int64  `json:"count"`
}

// GetStats returns dashboard statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	var stats DashboardStats

	if err := db.Model(&model.Report{}).Count(&stats.TotalReports).Error; err != nil {
		statsFailed(c, "count reports", err)
		return
	}
	if err := db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		statsFailed(c, "count users", err)
		return
	}
	if err := db.Model(&model.Report{}).
		Where(clause.Gt{Column: clause.Column{Name: "timestamp"}, Value: time.Now().AddDate(0, 0, -7)}).
		Count(&stats.ReportsLast7Days).Error; err != nil {
		statsFailed(c, "count recent reports", err)
		return
	}
	if err := db.Model(&model.Report{}).
		Where("location_name = ?", geo.UnknownLocation).
		Count(&stats.UnmatchedReports).Error; err != nil {
		statsFailed(c, "count unmatched reports", err)
		return
	}

	stats.ReportsByStatus = map[string]int64{
		model.StatusPending:    0,
		model.StatusInProgress: 0,
		model.StatusResolved:   0,
		model.StatusRejected:   0,
	}
	type statusCount struct {
		Status string
		Count  int64
	}
	var statusCounts []statusCount
	if err := db.Model(&model.Report{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		statsFailed(c, "group reports by status", err)
		return
	}
	for _, sc := range statusCounts {
		stats.ReportsByStatus[sc.Status] = sc.Count
	}

	stats.TopLocations = []LocationCount{}
	if err := db.Model(&model.Report{}).
		Select("location_name, count(*) as count").
		Where("location_name IS NOT NULL AND location_name <> ?", geo.UnknownLocation).
		Group("location_name").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopLocations).Error; err != nil {
		statsFailed(c, "rank locations", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func statsFailed(c *gin.Context, what string, err error) {
	log.Printf("[Admin] Failed to %s: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
}

// ListReports returns all reports with pagination and filters
func (h *AdminHandler) ListReports(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := c.Query("status")
	location := c.Query("location")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	query := h.db.WithContext(c.Request.Context()).Model(&model.Report{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if location != "" {
		query = query.Where("location_name = ?", location)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		log.Printf("[Admin] Failed to count reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	reports := []model.Report{}
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		log.Printf("[Admin] Failed to list reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"data":        reports,
		"page":        page,
		"limit":       limit,
		"total_count": totalCount,
		"total_pages": totalPages,
	})
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=1000"`
}

// UpdateReportStatus moves a report through its review lifecycle
func (h *AdminHandler) UpdateReportStatus(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.reports.UpdateStatus(c.Request.Context(), report.StatusUpdate{
		ReportID:   reportID,
		ReviewerID: middleware.UserID(c),
		Status:     req.Status,
		Note:       req.Note,
	})
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			respondInvalid(c, verr)
		case errors.Is(err, report.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		default:
			log.Printf("[Admin] Failed to update report %d: %v", reportID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update report"})
		}
		return
	}

	c.JSON(http.StatusOK, r)
}
