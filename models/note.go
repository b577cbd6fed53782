package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Note struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Notes     string             `bson:"notes" json:"notes"`
	FolderID  string             `bson:"folder_id,omitempty" json:"folder_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type CreateNoteRequest struct {
	Title    string `json:"title" binding:"required"`
	Notes    string `json:"notes" binding:"required"`
	FolderID string `json:"folder_id,omitempty"`
}

// UpdateNoteRequest is a partial update; nil fields are left unchanged.
type UpdateNoteRequest struct {
	Title    *string `json:"title,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
}
