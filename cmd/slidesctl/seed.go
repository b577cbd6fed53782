package main

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"lecture-slides-backend/models"
)

type courseFile struct {
	Courses []models.Course `yaml:"courses"`
}

type seedSummary struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

type courseCreator interface {
	Create(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error)
}

func loadCourses(r io.Reader) ([]models.Course, error) {
	var file courseFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse course file: %w", err)
	}
	return file.Courses, nil
}

func seedCourses(ctx context.Context, courses courseCreator, list []models.Course) (*seedSummary, error) {
	summary := &seedSummary{Created: []string{}, Skipped: []string{}}
	for _, c := range list {
		_, err := courses.Create(ctx, &models.CreateCourseRequest{CourseID: c.CourseID, CourseName: c.CourseName})
		switch {
		case err == nil:
			summary.Created = append(summary.Created, c.CourseID)
		case isSkippable(err):
			summary.Skipped = append(summary.Skipped, c.CourseID)
		default:
			return summary, fmt.Errorf("course %q: %w", c.CourseID, err)
		}
	}
	return summary, nil
}
