package controllers

import (
	"net/http"

	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/services"
	"github.com/gin-gonic/gin"
)

// EnrollRequest represents the request body for enrolling in a course
type EnrollRequest struct {
	CourseID uint `json:"course_id" binding:"required"`
}

// UpdateProgressRequest represents the request body for recording course progress
type UpdateProgressRequest struct {
	Progress *int `json:"progress" binding:"required"`
}

// courseService wires the material store when object storage is configured.
func courseService() *services.CourseService {
	var store services.MaterialStore
	if s3 := services.GetS3Service(); s3 != nil {
		store = services.NewS3MaterialStore(s3)
	}
	return services.NewCourseService(config.GetDB(), store)
}

func requireStorage(c *gin.Context) bool {
	if services.GetS3Service() == nil {
		abortWithError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "File storage is not configured")
		return false
	}
	return true
}

// ListCourses handles GET /api/v1/courses - active courses only
func ListCourses(c *gin.Context) {
	courses, err := courseService().List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, courses)
}

// GetCourse handles GET /api/v1/courses/:id
func GetCourse(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	course, err := courseService().Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, course)
}

// CreateCourse handles POST /api/v1/courses - tailors and admins only
func CreateCourse(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var in services.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	course, err := courseService().Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id - instructor only
func UpdateCourse(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var in services.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	course, err := courseService().Update(c.Request.Context(), userID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, course)
}

// EnrollInCourse handles POST /api/v1/enrollments
func EnrollInCourse(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	enrollment, err := courseService().Enroll(c.Request.Context(), userID, req.CourseID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, enrollment)
}

// ListEnrollments handles GET /api/v1/enrollments
func ListEnrollments(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	enrollments, err := courseService().Enrollments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, enrollments)
}

// UpdateEnrollmentProgress handles PUT /api/v1/enrollments/:id/progress
func UpdateEnrollmentProgress(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	enrollment, err := courseService().UpdateProgress(c.Request.Context(), userID, id, *req.Progress)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, enrollment)
}

// UploadCourseMaterial handles POST /api/v1/courses/:id/materials (multipart field "file")
func UploadCourseMaterial(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok || !requireStorage(c) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "MISSING_FILE", "A file must be uploaded in the 'file' field")
		return
	}

	link, err := courseService().AddMaterial(c.Request.Context(), userID, id, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, link)
}

// ListCourseMaterials handles GET /api/v1/courses/:id/materials - instructor or enrolled users
func ListCourseMaterials(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok || !requireStorage(c) {
		return
	}

	links, err := courseService().Materials(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, links)
}

// DeleteCourseMaterial handles DELETE /api/v1/courses/:id/materials?key=
func DeleteCourseMaterial(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok || !requireStorage(c) {
		return
	}

	key := c.Query("key")
	if key == "" {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "key query parameter is required")
		return
	}

	if err := courseService().RemoveMaterial(c.Request.Context(), userID, id, key); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": key})
}
