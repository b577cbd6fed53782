package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lecture-slides-backend/internal/config"
	"lecture-slides-backend/internal/logger"
	"lecture-slides-backend/models"
	"lecture-slides-backend/utils"
)

var ErrCourseExists = errors.New("course already exists")

// CourseService manages the courses collection. Courses are addressed by their
// course_id, not the Mongo _id.
type CourseService struct {
	courses *mongo.Collection
}

func NewCourseService(db *mongo.Database) *CourseService {
	return &CourseService{courses: db.Collection(config.CoursesCollection)}
}

func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	cursor, err := s.courses.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "course_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer cursor.Close(ctx)

	courses := []models.Course{}
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}
	return courses, nil
}

func (s *CourseService) Get(ctx context.Context, courseID string) (*models.Course, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	var course models.Course
	err := s.courses.FindOne(ctx, bson.M{"course_id": courseID}).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}
	return &course, nil
}

// Create rejects a duplicate course_id with ErrCourseExists. The unique index
// on course_id covers the race between the lookup and the insert.
func (s *CourseService) Create(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	course := models.Course{
		CourseID:   strings.TrimSpace(req.CourseID),
		CourseName: strings.TrimSpace(req.CourseName),
	}
	if course.CourseID == "" || course.CourseName == "" {
		return nil, fmt.Errorf("%w: course_id and course_name are required", ErrValidation)
	}

	if _, err := s.Get(ctx, course.CourseID); err == nil {
		return nil, fmt.Errorf("%w: course with ID '%s' already exists", ErrCourseExists, course.CourseID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	res, err := s.courses.InsertOne(ctx, course)
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: course with ID '%s' already exists", ErrCourseExists, course.CourseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	course.ID = objectID(res.InsertedID)
	logger.Info("Course created", "course_id", course.CourseID, "id", course.ID.Hex())
	return &course, nil
}

// Update changes course_name only. An empty update returns the current course.
func (s *CourseService) Update(ctx context.Context, courseID string, req *models.UpdateCourseRequest) (*models.Course, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	if req.CourseName == nil || strings.TrimSpace(*req.CourseName) == "" {
		return s.Get(ctx, courseID)
	}

	var course models.Course
	err := s.courses.FindOneAndUpdate(ctx,
		bson.M{"course_id": courseID},
		bson.M{"$set": bson.M{"course_name": strings.TrimSpace(*req.CourseName)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return &course, nil
}

func (s *CourseService) Delete(ctx context.Context, courseID string) error {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	res, err := s.courses.DeleteOne(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: course %s", ErrNotFound, courseID)
	}
	logger.Info("Course deleted", "course_id", courseID)
	return nil
}

// DropdownOptions returns {id: course_id, name: course_name} pairs.
func (s *CourseService) DropdownOptions(ctx context.Context) ([]models.CourseOption, error) {
	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]models.CourseOption, 0, len(courses))
	for _, c := range courses {
		opts = append(opts, models.CourseOption{ID: c.CourseID, Name: c.CourseName})
	}
	return opts, nil
}
