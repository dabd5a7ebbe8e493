package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/bk001juma/api-matengenezo/internal/geo"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/storage"
	"github.com/bk001juma/api-matengenezo/internal/validation"
	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locations *storage.Locations
}

func NewLocationHandler(locations *storage.Locations) *LocationHandler {
	return &LocationHandler{locations: locations}
}

type MatchRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

type MatchResponse struct {
	LocationName string   `json:"location_name"`
	Candidates   []string `json:"candidates"`
}

type LocationRequest struct {
	Name         string   `json:"name" binding:"required,notblank,max=255"`
	Latitude     *float64 `json:"latitude" binding:"required,latitude"`
	Longitude    *float64 `json:"longitude" binding:"required,longitude"`
	RadiusMeters *float64 `json:"radius_meters" binding:"required,gt=0"`
}

// List returns the registry in match order
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locations.ListAll(c.Request.Context())
	if err != nil {
		log.Printf("[Location] Failed to list locations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list locations"})
		return
	}

	c.JSON(http.StatusOK, locations)
}

// Match previews the location a report at the given point would get.
// Candidates lists every containing location, first one wins.
func (h *LocationHandler) Match(c *gin.Context) {
	var req MatchRequest
	if !bindJSON(c, &req) {
		return
	}

	locations, err := h.locations.ListAll(c.Request.Context())
	if err != nil {
		log.Printf("[Location] Failed to list locations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to match location"})
		return
	}

	containing := geo.Containing(*req.Latitude, *req.Longitude, locations)
	candidates := make([]string, 0, len(containing))
	for _, loc := range containing {
		candidates = append(candidates, loc.Name)
	}

	c.JSON(http.StatusOK, MatchResponse{
		LocationName: geo.Match(*req.Latitude, *req.Longitude, locations),
		Candidates:   candidates,
	})
}

// Create adds a location to the registry (admin)
func (h *LocationHandler) Create(c *gin.Context) {
	var req LocationRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.checkName(c, req.Name, 0) {
		return
	}

	loc := req.toModel()
	if err := h.locations.Create(c.Request.Context(), loc); err != nil {
		log.Printf("[Location] Failed to create location: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create location"})
		return
	}

	c.JSON(http.StatusCreated, loc)
}

// Update replaces a location's name, centre and radius (admin)
func (h *LocationHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location ID"})
		return
	}

	var req LocationRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.checkName(c, req.Name, id) {
		return
	}

	loc := req.toModel()
	loc.ID = id
	if err := h.locations.Update(c.Request.Context(), loc); err != nil {
		if errors.Is(err, storage.ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		log.Printf("[Location] Failed to update location %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update location"})
		return
	}

	updated, err := h.locations.Get(c.Request.Context(), id)
	if err != nil {
		log.Printf("[Location] Failed to reload location %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update location"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes a location (admin). Existing reports keep their name.
func (h *LocationHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location ID"})
		return
	}

	if err := h.locations.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		log.Printf("[Location] Failed to delete location %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}

func (h *LocationHandler) checkName(c *gin.Context, name string, exceptID int64) bool {
	taken, err := h.locations.NameTaken(c.Request.Context(), strings.TrimSpace(name), exceptID)
	if err != nil {
		log.Printf("[Location] Failed to check name: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save location"})
		return false
	}
	if taken {
		verr := validation.New()
		verr.Add("name", "The name has already been taken.")
		respondInvalid(c, verr)
		return false
	}
	return true
}

func (r *LocationRequest) toModel() *model.Location {
	return &model.Location{
		Name:         strings.TrimSpace(r.Name),
		Latitude:     *r.Latitude,
		Longitude:    *r.Longitude,
		RadiusMeters: *r.RadiusMeters,
	}
}
