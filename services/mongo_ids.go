package services

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseObjectID treats a malformed id as a missing document.
func parseObjectID(kind, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return oid, nil
}

func objectID(v interface{}) primitive.ObjectID {
	oid, _ := v.(primitive.ObjectID)
	return oid
}
