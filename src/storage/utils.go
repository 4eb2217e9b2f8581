package storage

import (
	"github.com/google/uuid"
)

// GenerateID generates a unique, time-ordered ID for storage entities
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
