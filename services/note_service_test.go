package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"lecture-slides-backend/models"
)

const (
	notesNS   = "slides_db.notes"
	foldersNS = "slides_db.folders"
)

func TestNoteService(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		svc := NewNoteService(mt.DB)
		svc.now = func() time.Time { return now }
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		note, err := svc.Create(ctx, &models.CreateNoteRequest{Title: "Week 1", Notes: "Big-O", FolderID: "f1"})
		require.NoError(mt, err)
		assert.False(mt, note.ID.IsZero())
		assert.Equal(mt, now, note.CreatedAt)
		assert.Equal(mt, now, note.UpdatedAt)
		assert.Equal(mt, "f1", note.FolderID)
	})

	mt.Run("create requires notes", func(mt *mtest.T) {
		svc := NewNoteService(mt.DB)

		_, err := svc.Create(ctx, &models.CreateNoteRequest{Title: "Week 1"})
		assert.ErrorIs(mt, err, ErrValidation)
	})

	mt.Run("list by folder", func(mt *mtest.T) {
		svc := NewNoteService(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, notesNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "title", Value: "Week 1"},
			{Key: "notes", Value: "Big-O"},
			{Key: "folder_id", Value: "f1"},
		}))

		notes, err := svc.List(ctx, "f1")
		require.NoError(mt, err)
		require.Len(mt, notes, 1)
		assert.Equal(mt, "f1", notes[0].FolderID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("filter").Document()
		assert.Equal(mt, "f1", filter.Lookup("folder_id").StringValue())
	})

	mt.Run("get with malformed id", func(mt *mtest.T) {
		svc := NewNoteService(mt.DB)

		_, err := svc.Get(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update bumps updated_at", func(mt *mtest.T) {
		svc := NewNoteService(mt.DB)
		svc.now = func() time.Time { return now }
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "title", Value: "Week 1"},
				{Key: "notes", Value: "Big-Theta"},
				{Key: "updated_at", Value: now},
			}},
		})

		body := "Big-Theta"
		note, err := svc.Update(ctx, id.Hex(), &models.UpdateNoteRequest{Notes: &body})
		require.NoError(mt, err)
		assert.Equal(mt, "Big-Theta", note.Notes)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		set := started.Command.Lookup("update", "$set").Document()
		_, err = set.LookupErr("updated_at")
		assert.NoError(mt, err)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		svc := NewNoteService(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := svc.Delete(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestFolderService(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create and list", func(mt *mtest.T) {
		svc := NewFolderService(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, foldersNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "folder_name", Value: "Algorithms"},
			}),
		)

		folder, err := svc.Create(ctx, &models.FolderRequest{FolderName: "Algorithms"})
		require.NoError(mt, err)
		assert.Equal(mt, "Algorithms", folder.FolderName)

		folders, err := svc.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, folders, 1)
	})

	mt.Run("create requires name", func(mt *mtest.T) {
		svc := NewFolderService(mt.DB)

		_, err := svc.Create(ctx, &models.FolderRequest{FolderName: "  "})
		assert.ErrorIs(mt, err, ErrValidation)
	})

	mt.Run("rename missing", func(mt *mtest.T) {
		svc := NewFolderService(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := svc.Update(ctx, primitive.NewObjectID().Hex(), &models.FolderRequest{FolderName: "Graphs"})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		svc := NewFolderService(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, svc.Delete(ctx, primitive.NewObjectID().Hex()))
	})
}
