package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Course struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id" yaml:"-"`
	CourseID   string             `bson:"course_id" json:"course_id" yaml:"course_id"`
	CourseName string             `bson:"course_name" json:"course_name" yaml:"course_name"`
}

type CreateCourseRequest struct {
	CourseID   string `json:"course_id" binding:"required"`
	CourseName string `json:"course_name" binding:"required"`
}

type UpdateCourseRequest struct {
	CourseName *string `json:"course_name,omitempty"`
}

// CourseOption is the {id, name} pair used by course pickers.
type CourseOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
