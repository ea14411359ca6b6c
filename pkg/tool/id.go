package tool

import "github.com/google/uuid"

// GenerateOrderID returns a fresh globally unique order reference.
// UUIDv7 keeps the transaction table roughly insert-ordered.
func GenerateOrderID() string {
	return uuid.Must(uuid.NewV7()).String()
}
