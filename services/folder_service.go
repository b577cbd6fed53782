package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lecture-slides-backend/internal/config"
	"lecture-slides-backend/models"
	"lecture-slides-backend/utils"
)

// FolderService manages note folders. Deleting a folder leaves its notes in place.
type FolderService struct {
	folders *mongo.Collection
	now     func() time.Time
}

func NewFolderService(db *mongo.Database) *FolderService {
	return &FolderService{folders: db.Collection(config.FoldersCollection), now: time.Now}
}

func (s *FolderService) List(ctx context.Context) ([]models.Folder, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	cursor, err := s.folders.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "folder_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer cursor.Close(ctx)

	folders := []models.Folder{}
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}
	return folders, nil
}

func (s *FolderService) Get(ctx context.Context, id string) (*models.Folder, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	oid, err := parseObjectID("folder", id)
	if err != nil {
		return nil, err
	}

	var folder models.Folder
	err = s.folders.FindOne(ctx, bson.M{"_id": oid}).Decode(&folder)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch folder: %w", err)
	}
	return &folder, nil
}

func (s *FolderService) Create(ctx context.Context, req *models.FolderRequest) (*models.Folder, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	name := strings.TrimSpace(req.FolderName)
	if name == "" {
		return nil, fmt.Errorf("%w: folder_name is required", ErrValidation)
	}

	now := s.now().UTC()
	folder := models.Folder{FolderName: name, CreatedAt: now, UpdatedAt: now}

	res, err := s.folders.InsertOne(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	folder.ID = objectID(res.InsertedID)
	return &folder, nil
}

// Update renames a folder.
func (s *FolderService) Update(ctx context.Context, id string, req *models.FolderRequest) (*models.Folder, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	oid, err := parseObjectID("folder", id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.FolderName)
	if name == "" {
		return nil, fmt.Errorf("%w: folder_name is required", ErrValidation)
	}

	var folder models.Folder
	err = s.folders.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"folder_name": name, "updated_at": s.now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&folder)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	return &folder, nil
}

func (s *FolderService) Delete(ctx context.Context, id string) error {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	oid, err := parseObjectID("folder", id)
	if err != nil {
		return err
	}

	res, err := s.folders.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: folder %s", ErrNotFound, id)
	}
	return nil
}
