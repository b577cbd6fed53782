package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
)

type fakeCourses struct {
	existing map[string]bool
	failOn   string
}

func (f *fakeCourses) Create(_ context.Context, req *models.CreateCourseRequest) (*models.Course, error) {
	if req.CourseID == f.failOn {
		return nil, errors.New("connection reset")
	}
	if f.existing[req.CourseID] {
		return nil, services.ErrCourseExists
	}
	f.existing[req.CourseID] = true
	return &models.Course{CourseID: req.CourseID, CourseName: req.CourseName}, nil
}

const courseYAML = `
courses:
  - course_id: CIS150
    course_name: Intro CS
  - course_id: MA201
    course_name: Linear Algebra
`

func TestLoadCourses(t *testing.T) {
	courses, err := loadCourses(strings.NewReader(courseYAML))
	require.NoError(t, err)
	assert.Equal(t, []models.Course{
		{CourseID: "CIS150", CourseName: "Intro CS"},
		{CourseID: "MA201", CourseName: "Linear Algebra"},
	}, courses)

	courses, err = loadCourses(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, courses)

	_, err = loadCourses(strings.NewReader("courses:\n  - course_code: X\n"))
	assert.Error(t, err)
}

func TestSeedCoursesSkipsExisting(t *testing.T) {
	courses, err := loadCourses(strings.NewReader(courseYAML))
	require.NoError(t, err)

	fake := &fakeCourses{existing: map[string]bool{"CIS150": true}}
	summary, err := seedCourses(context.Background(), fake, courses)
	require.NoError(t, err)
	assert.Equal(t, []string{"MA201"}, summary.Created)
	assert.Equal(t, []string{"CIS150"}, summary.Skipped)
}

func TestSeedCoursesStopsOnOtherErrors(t *testing.T) {
	courses, err := loadCourses(strings.NewReader(courseYAML))
	require.NoError(t, err)

	fake := &fakeCourses{existing: map[string]bool{}, failOn: "MA201"}
	summary, err := seedCourses(context.Background(), fake, courses)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MA201")
	assert.Equal(t, []string{"CIS150"}, summary.Created)
}
