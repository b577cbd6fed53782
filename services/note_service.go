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

type NoteService struct {
	notes *mongo.Collection
	now   func() time.Time
}

func NewNoteService(db *mongo.Database) *NoteService {
	return &NoteService{notes: db.Collection(config.NotesCollection), now: time.Now}
}

// List returns notes newest first, optionally restricted to one folder.
func (s *NoteService) List(ctx context.Context, folderID string) ([]models.Note, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if folderID != "" {
		filter["folder_id"] = folderID
	}

	cursor, err := s.notes.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []models.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	oid, err := parseObjectID("note", id)
	if err != nil {
		return nil, err
	}

	var note models.Note
	err = s.notes.FindOne(ctx, bson.M{"_id": oid}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: note %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch note: %w", err)
	}
	return &note, nil
}

func (s *NoteService) Create(ctx context.Context, req *models.CreateNoteRequest) (*models.Note, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Notes) == "" {
		return nil, fmt.Errorf("%w: title and notes are required", ErrValidation)
	}

	now := s.now().UTC()
	note := models.Note{
		Title:     req.Title,
		Notes:     req.Notes,
		FolderID:  strings.TrimSpace(req.FolderID),
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.notes.InsertOne(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	note.ID = objectID(res.InsertedID)
	return &note, nil
}

// Update applies the non-nil fields and bumps updated_at. An empty folder_id
// moves the note out of its folder.
func (s *NoteService) Update(ctx context.Context, id string, req *models.UpdateNoteRequest) (*models.Note, error) {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	oid, err := parseObjectID("note", id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": s.now().UTC()}
	update := bson.M{"$set": set}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Notes != nil {
		if strings.TrimSpace(*req.Notes) == "" {
			return nil, fmt.Errorf("%w: notes cannot be empty", ErrValidation)
		}
		set["notes"] = *req.Notes
	}
	if req.FolderID != nil {
		if folder := strings.TrimSpace(*req.FolderID); folder != "" {
			set["folder_id"] = folder
		} else {
			update["$unset"] = bson.M{"folder_id": ""}
		}
	}

	var note models.Note
	err = s.notes.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: note %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return &note, nil
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	ctx, cancel := utils.WithTimeout(ctx)
	defer cancel()

	oid, err := parseObjectID("note", id)
	if err != nil {
		return err
	}

	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: note %s", ErrNotFound, id)
	}
	return nil
}
