package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in DBName.
const (
	CoursesCollection = "courses"
	NotesCollection   = "notes"
	FoldersCollection = "folders"
)

func ConnectMongoDB(ctx context.Context, cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if err := createIndexes(ctx, client.Database(cfg.DBName)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return client, nil
}

func createIndexes(ctx context.Context, db *mongo.Database) error {
	// course_id is the public key for courses; the service also checks, the index closes the race.
	courseIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "course_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection(CoursesCollection).Indexes().CreateMany(ctx, courseIndexes); err != nil {
		return err
	}

	noteIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "folder_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(NotesCollection).Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return err
	}

	folderIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "folder_name", Value: 1}}},
	}
	if _, err := db.Collection(FoldersCollection).Indexes().CreateMany(ctx, folderIndexes); err != nil {
		return err
	}

	return nil
}
