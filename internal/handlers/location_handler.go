package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/location"
)

// LocationHandler serves the bundled country/state/city dataset
type LocationHandler struct {
	dir *location.Directory
}

// NewLocationHandler creates a new LocationHandler
func NewLocationHandler(dir *location.Directory) *LocationHandler {
	return &LocationHandler{dir: dir}
}

// All handles GET /api/locations and returns the dataset file as is
func (h *LocationHandler) All(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "application/json; charset=utf-8", h.dir.Raw())
}

// Countries handles GET /api/locations/countries
func (h *LocationHandler) Countries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.dir.Countries()})
}

// States handles GET /api/locations/countries/:country/states
func (h *LocationHandler) States(c *gin.Context) {
	states, err := h.dir.States(c.Param("country"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": states})
}

// Cities handles GET /api/locations/countries/:country/states/:state/cities
func (h *LocationHandler) Cities(c *gin.Context) {
	cities, err := h.dir.Cities(c.Param("country"), c.Param("state"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cities})
}
