package controllers

import (
	"net/http"
	"strconv"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// floatQuery parses an optional float query parameter.
func floatQuery(c *gin.Context, name string) (float64, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, true, err
}

func decimalQuery(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// NearbyTailors handles GET /api/v1/tailors/nearby?lat=&lng=&radius=
func NearbyTailors(c *gin.Context) {
	lat, hasLat, latErr := floatQuery(c, "lat")
	lng, hasLng, lngErr := floatQuery(c, "lng")
	if !hasLat || !hasLng || latErr != nil || lngErr != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "lat and lng query parameters are required numbers")
		return
	}
	radius, hasRadius, err := floatQuery(c, "radius")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "radius must be a number")
		return
	}
	if !hasRadius {
		radius = services.DefaultSearchRadiusKm
	}

	tailors, err := services.NewTailorService(config.GetDB()).Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tailors)
}

// SearchTailors handles GET /api/v1/tailors/search
func SearchTailors(c *gin.Context) {
	filters := services.SearchFilters{Specialization: c.Query("specialization")}

	var err error
	if filters.MinPrice, err = decimalQuery(c, "minPrice"); err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "minPrice must be a number")
		return
	}
	if filters.MaxPrice, err = decimalQuery(c, "maxPrice"); err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "maxPrice must be a number")
		return
	}
	if filters.MinRating, _, err = floatQuery(c, "minRating"); err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "minRating must be a number")
		return
	}
	if raw := c.Query("minExperience"); raw != "" {
		if filters.MinExperience, err = strconv.Atoi(raw); err != nil {
			abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "minExperience must be an integer")
			return
		}
	}

	tailors, err := services.NewTailorService(config.GetDB()).Search(c.Request.Context(), c.Query("q"), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tailors)
}

// GetTailor handles GET /api/v1/tailors/:id
func GetTailor(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	tailor, err := services.NewTailorService(config.GetDB()).Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tailor)
}

// ListTailorReviews handles GET /api/v1/tailors/:id/reviews
func ListTailorReviews(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	reviews, err := services.NewReviewService(config.GetDB()).ListForTailor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, reviews)
}

// CreateTailor handles POST /api/v1/tailors - the caller becomes a tailor
func CreateTailor(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var in services.TailorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	tailor, err := services.NewTailorService(config.GetDB()).Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, tailor)
}

// UpdateTailor handles PUT /api/v1/tailors/:id (owner only)
func UpdateTailor(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var in services.TailorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	tailor, err := services.NewTailorService(config.GetDB()).Update(c.Request.Context(), userID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tailor)
}
