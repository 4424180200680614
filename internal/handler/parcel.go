package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"chiban-geocoder/internal/models"
	"chiban-geocoder/internal/service"

	"github.com/gin-gonic/gin"
)

// ParcelHandler handles parcel lookup requests
type ParcelHandler struct {
	service ParcelService
}

// ParcelService interface for dependency injection
type ParcelService interface {
	Resolve(ctx context.Context, query string, area []string, exact bool) ([]models.ParcelLocation, error)
	Segment(ctx context.Context, notation, cityCode string) ([]string, error)
	FindFude(ctx context.Context, code string) (*models.ParcelLocation, error)
}

// NewParcelHandler creates a new parcel handler
func NewParcelHandler(svc ParcelService) *ParcelHandler {
	return &ParcelHandler{service: svc}
}

// Resolve handles GET /resolve requests
//
//	@Summary	Resolve a parcel string to parcel codes
//	@Tags		parcel
//	@Produce	json
//	@Param		q		query		string		true	"parcel string, e.g. 日田市大字田島字畑江583番地8"
//	@Param		area	query		[]string	false	"area names or JIS codes, outermost first"	collectionFormat(multi)
//	@Param		exact	query		bool		false	"reject codes reached by a partial match"
//	@Success	200		{array}		models.ParcelLocation
//	@Failure	400		{object}	map[string]string
//	@Router		/resolve [get]
func (h *ParcelHandler) Resolve(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'q'"})
		return
	}

	exact := false
	if s := c.Query("exact"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exact format"})
			return
		}
		exact = v
	}

	area := c.QueryArray("area")
	if len(area) == 0 {
		area = nil
	}

	locations, err := h.service.Resolve(c.Request.Context(), query, area, exact)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, locations)
}

// Segment handles GET /segment requests
//
//	@Summary	Split a registry parcel notation into parcel strings
//	@Tags		parcel
//	@Produce	json
//	@Param		q		query		string	true	"notation, e.g. 日田市大字田島字畑江　583番地8、9"
//	@Param		city	query		string	true	"JIS X 0402 municipality code"
//	@Success	200		{array}		string
//	@Failure	400		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/segment [get]
func (h *ParcelHandler) Segment(c *gin.Context) {
	query := c.Query("q")
	city := c.Query("city")
	if query == "" || city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameters 'q' and 'city'"})
		return
	}

	parcels, err := h.service.Segment(c.Request.Context(), query, city)
	if err != nil {
		if errors.Is(err, service.ErrCityNotRegistered) {
			c.JSON(http.StatusNotFound, gin.H{"error": "municipality not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, parcels)
}

// Fude handles GET /fude/:code requests
//
//	@Summary	Look up a parcel by parcel code
//	@Tags		parcel
//	@Produce	json
//	@Param		code	path		string	true	"parcel code"
//	@Success	200		{object}	models.ParcelLocation
//	@Failure	404		{object}	map[string]string
//	@Router		/fude/{code} [get]
func (h *ParcelHandler) Fude(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing parcel code"})
		return
	}

	location, err := h.service.FindFude(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no parcel with the specified code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, location)
}
