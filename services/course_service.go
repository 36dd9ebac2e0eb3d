package services

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/blousecraft/blousecraft-api/models"
	"github.com/blousecraft/blousecraft-api/utils"
	"github.com/juju/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseInput is the editable part of a course. On create Title and Price are required.
type CourseInput struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Duration      *int             `json:"duration"`
	Level         *string          `json:"level"`
	ThumbnailURL  *string          `json:"thumbnail_url"`
	VideoURL      *string          `json:"video_url"`
	IsActive      *bool            `json:"is_active"`
}

func (in CourseInput) validate() error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return errors.NotValidf("empty title")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return errors.NotValidf("price %s", in.Price)
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return errors.NotValidf("original price %s", in.OriginalPrice)
	}
	if in.Duration != nil && *in.Duration < 0 {
		return errors.NotValidf("duration %d", *in.Duration)
	}
	if in.Level != nil && !models.ValidLevel(*in.Level) {
		return errors.NotValidf("level %q", *in.Level)
	}
	return nil
}

func (in CourseInput) apply(c *models.Course) []string {
	var columns []string
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
		columns = append(columns, "title")
	}
	if in.Description != nil {
		c.Description = *in.Description
		columns = append(columns, "description")
	}
	if in.Price != nil {
		c.Price = *in.Price
		columns = append(columns, "price")
	}
	if in.OriginalPrice != nil {
		c.OriginalPrice = decimal.NewNullDecimal(*in.OriginalPrice)
		columns = append(columns, "original_price")
	}
	if in.Duration != nil {
		c.Duration = *in.Duration
		columns = append(columns, "duration")
	}
	if in.Level != nil {
		c.Level = *in.Level
		columns = append(columns, "level")
	}
	if in.ThumbnailURL != nil {
		c.ThumbnailURL = *in.ThumbnailURL
		columns = append(columns, "thumbnail_url")
	}
	if in.VideoURL != nil {
		c.VideoURL = *in.VideoURL
		columns = append(columns, "video_url")
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
		columns = append(columns, "is_active")
	}
	return columns
}

// MaterialLink is a downloadable course material.
type MaterialLink struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CourseService manages courses, enrollments and course materials.
type CourseService struct {
	db        *gorm.DB
	materials MaterialStore
}

func NewCourseService(db *gorm.DB, materials MaterialStore) *CourseService {
	return &CourseService{db: db, materials: materials}
}

// List returns active courses, best rated first.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	err := s.db.WithContext(ctx).Preload("Instructor").
		Where("is_active = ?", true).
		Order("rating DESC, created_at DESC, id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing courses")
	}
	return courses, nil
}

// Get loads a course with its instructor.
func (s *CourseService) Get(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Preload("Instructor").First(&course, id).Error; err != nil {
		return nil, lookupErr(err, "course %d", id)
	}
	return &course, nil
}

// Create publishes a course taught by instructorID, who must be a tailor or an admin.
func (s *CourseService) Create(ctx context.Context, instructorID string, in CourseInput) (*models.Course, error) {
	if in.Title == nil || in.Price == nil {
		return nil, errors.NotValidf("course without title or price")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var instructor models.User
	if err := s.db.WithContext(ctx).First(&instructor, "id = ?", instructorID).Error; err != nil {
		return nil, lookupErr(err, "user %s", instructorID)
	}
	if instructor.Role != models.RoleTailor && instructor.Role != models.RoleAdmin {
		return nil, errors.Forbiddenf("creating courses as %s", instructor.Role)
	}

	course := models.Course{InstructorID: instructorID, IsActive: true}
	in.apply(&course)
	if course.Level == "" {
		course.Level = models.LevelBeginner
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&course).Error; err != nil {
			return errors.Annotate(err, "creating course")
		}
		// gorm writes the column default for a false bool, so drafts are stored explicitly.
		if !course.IsActive {
			if err := tx.Model(&course).Update("is_active", false).Error; err != nil {
				return errors.Annotate(err, "storing draft course")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, course.ID)
}

// loadForInstructor loads a course and checks that callerID teaches it.
func (s *CourseService) loadForInstructor(ctx context.Context, callerID string, id uint) (*models.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != callerID {
		return nil, errors.Forbiddenf("managing course %d", id)
	}
	return course, nil
}

// Update edits a course. Only its instructor may do so.
func (s *CourseService) Update(ctx context.Context, callerID string, id uint, in CourseInput) (*models.Course, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	course, err := s.loadForInstructor(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	columns := in.apply(course)
	if len(columns) > 0 {
		course.UpdatedAt = time.Now()
		err := s.db.WithContext(ctx).Model(course).
			Select(append(columns, "updated_at")).
			Omit(clause.Associations).
			Updates(course).Error
		if err != nil {
			return nil, errors.Annotate(err, "updating course")
		}
	}
	return s.Get(ctx, id)
}

// Enroll adds userID to an active course and bumps its enrollment count.
func (s *CourseService) Enroll(ctx context.Context, userID string, courseID uint) (*models.Enrollment, error) {
	enrollment := models.Enrollment{UserID: userID, CourseID: courseID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return lookupErr(err, "user %s", userID)
		}

		var course models.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return lookupErr(err, "course %d", courseID)
		}
		if !course.IsActive {
			return invalidStatef("course %d is not open for enrollment", courseID)
		}

		var existing int64
		if err := tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&existing).Error; err != nil {
			return errors.Trace(err)
		}
		if existing > 0 {
			return errors.AlreadyExistsf("enrollment in course %d", courseID)
		}

		if err := tx.Omit(clause.Associations).Create(&enrollment).Error; err != nil {
			return duplicateErr(err, "enrollment in course %d", courseID)
		}
		return tx.Model(&models.Course{}).Where("id = ?", courseID).
			UpdateColumn("total_enrollments", gorm.Expr("total_enrollments + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	var out models.Enrollment
	if err := s.db.WithContext(ctx).Preload("Course").First(&out, enrollment.ID).Error; err != nil {
		return nil, lookupErr(err, "enrollment %d", enrollment.ID)
	}
	return &out, nil
}

// Enrollments returns the user's enrollments with their courses, newest first.
func (s *CourseService) Enrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	enrollments := []models.Enrollment{}
	err := s.db.WithContext(ctx).Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing enrollments")
	}
	return enrollments, nil
}

// UpdateProgress records course progress. Reaching 100 stamps completion once.
func (s *CourseService) UpdateProgress(ctx context.Context, userID string, enrollmentID uint, progress int) (*models.Enrollment, error) {
	if progress < 0 || progress > 100 {
		return nil, errors.NotValidf("progress %d", progress)
	}

	db := s.db.WithContext(ctx)
	var enrollment models.Enrollment
	if err := db.First(&enrollment, enrollmentID).Error; err != nil {
		return nil, lookupErr(err, "enrollment %d", enrollmentID)
	}
	if enrollment.UserID != userID {
		return nil, errors.Forbiddenf("updating enrollment %d", enrollmentID)
	}

	updates := map[string]interface{}{"progress": progress}
	if progress == 100 && enrollment.CompletedAt == nil {
		updates["completed_at"] = time.Now()
	}
	if err := db.Model(&enrollment).Updates(updates).Error; err != nil {
		return nil, errors.Annotate(err, "updating progress")
	}

	var out models.Enrollment
	if err := db.Preload("Course").First(&out, enrollmentID).Error; err != nil {
		return nil, lookupErr(err, "enrollment %d", enrollmentID)
	}
	return &out, nil
}

// AddMaterial uploads a file for a course. Only its instructor may do so.
func (s *CourseService) AddMaterial(ctx context.Context, callerID string, courseID uint, file *multipart.FileHeader) (*MaterialLink, error) {
	course, err := s.loadForInstructor(ctx, callerID, courseID)
	if err != nil {
		return nil, err
	}

	key, err := s.materials.Upload(ctx, courseID, file)
	if err != nil {
		return nil, err
	}

	err = s.updateMaterials(ctx, course, func(current pq.StringArray) (pq.StringArray, error) {
		return append(append(pq.StringArray{}, current...), key), nil
	})
	if err != nil {
		if delErr := s.materials.Delete(ctx, key); delErr != nil {
			logger.FromCtx(ctx).Warn("failed to remove unrecorded material",
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		return nil, errors.Annotate(err, "recording material")
	}

	url, err := s.materials.URL(ctx, key)
	if err != nil {
		return nil, errors.Annotate(err, "signing material url")
	}
	return &MaterialLink{Key: key, Name: utils.MaterialName(key), URL: url}, nil
}

// Materials returns signed download links to the instructor or an enrolled user.
func (s *CourseService) Materials(ctx context.Context, callerID string, courseID uint) ([]MaterialLink, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.InstructorID != callerID {
		var enrolled int64
		if err := s.db.WithContext(ctx).Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", callerID, courseID).
			Count(&enrolled).Error; err != nil {
			return nil, errors.Trace(err)
		}
		if enrolled == 0 {
			return nil, errors.Forbiddenf("materials of course %d", courseID)
		}
	}

	links := make([]MaterialLink, 0, len(course.Materials))
	for _, key := range course.Materials {
		url, err := s.materials.URL(ctx, key)
		if err != nil {
			return nil, errors.Annotatef(err, "signing url for %s", key)
		}
		links = append(links, MaterialLink{Key: key, Name: utils.MaterialName(key), URL: url})
	}
	return links, nil
}

// RemoveMaterial deletes a material file and drops it from the course.
func (s *CourseService) RemoveMaterial(ctx context.Context, callerID string, courseID uint, key string) error {
	course, err := s.loadForInstructor(ctx, callerID, courseID)
	if err != nil {
		return err
	}

	err = s.updateMaterials(ctx, course, func(current pq.StringArray) (pq.StringArray, error) {
		remaining := pq.StringArray{}
		found := false
		for _, k := range current {
			if k == key {
				found = true
				continue
			}
			remaining = append(remaining, k)
		}
		if !found {
			return nil, errors.NotFoundf("material %s", key)
		}
		return remaining, nil
	})
	if err != nil {
		return err
	}
	return s.materials.Delete(ctx, key)
}

const materialWriteAttempts = 5

// updateMaterials rewrites a course's material list with edit. The write only
// lands if the list is still the one edit saw; otherwise the course is reloaded
// and edit runs again.
func (s *CourseService) updateMaterials(ctx context.Context, course *models.Course, edit func(pq.StringArray) (pq.StringArray, error)) error {
	current := course.Materials
	for attempt := 0; attempt < materialWriteAttempts; attempt++ {
		next, err := edit(current)
		if err != nil {
			return err
		}

		q := s.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID)
		if len(current) == 0 {
			q = q.Where("(materials IS NULL OR materials = ?)", pq.StringArray{})
		} else {
			q = q.Where("materials = ?", current)
		}
		res := q.Updates(map[string]interface{}{"materials": next, "updated_at": time.Now()})
		if res.Error != nil {
			return errors.Annotate(res.Error, "updating materials")
		}
		if res.RowsAffected > 0 {
			course.Materials = next
			return nil
		}

		fresh, err := s.Get(ctx, course.ID)
		if err != nil {
			return err
		}
		current = fresh.Materials
	}
	return errors.Annotatef(ErrConflict, "materials of course %d kept changing", course.ID)
}
