package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Folder struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FolderName string             `bson:"folder_name" json:"folder_name"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

type FolderRequest struct {
	FolderName string `json:"folder_name" binding:"required"`
}
