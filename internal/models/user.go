package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries identity only. Authentication lives outside the settlement
// core and is handled by the upstream gateway.
type User struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
	Email     string
}
