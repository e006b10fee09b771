package db

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsNoDocuments checks if the error is mongo.ErrNoDocuments.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
